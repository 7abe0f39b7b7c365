package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mediashelf/mediashelf/internal/models"
	"github.com/mediashelf/mediashelf/internal/sessions"
	"github.com/mediashelf/mediashelf/pkg/logger"
	"github.com/mediashelf/mediashelf/pkg/reply"
)

const (
	identityKey = "identity"
	sessionKey  = "session"
	tokenKey    = "accessToken"
)

// SessionValidator resolves a session cookie value.
type SessionValidator interface {
	Validate(ctx context.Context, id string) (*sessions.Session, error)
}

// UserLookup loads the account a session belongs to.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TokenVerifier checks a bearer access token and returns the identity it carries.
type TokenVerifier func(raw string) (*models.Identity, time.Time, error)

// Revocations reports access tokens revoked at logout.
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type IdentityConfig struct {
	CookieName   string
	SecureCookie bool
	Sessions     SessionValidator
	Users        UserLookup
	// Verifier is optional; bearer tokens are rejected when it is nil.
	Verifier    TokenVerifier
	Revocations Revocations
}

// IdentityMiddleware attaches the caller identity to the context, or nothing
// for anonymous callers. A bearer token takes precedence over the session
// cookie; a bad bearer token is rejected outright. A cookie that no longer
// resolves to a live session is cleared and the request continues anonymously.
func IdentityMiddleware(cfg IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if auth := c.GetHeader("Authorization"); auth != "" {
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || token == "" {
				reply.Abort(c, http.StatusUnauthorized, "invalid Authorization header")
				return
			}
			if cfg.Verifier == nil {
				reply.Abort(c, http.StatusUnauthorized, "access tokens are not enabled")
				return
			}
			id, _, err := cfg.Verifier(token)
			if err != nil {
				reply.Abort(c, http.StatusUnauthorized, "invalid token")
				return
			}
			if cfg.Revocations != nil {
				revoked, err := cfg.Revocations.IsRevoked(ctx, token)
				if err != nil {
					logger.Errorf("identity: revocation check failed: %v", err)
					reply.Abort(c, http.StatusServiceUnavailable, "could not verify token")
					return
				}
				if revoked {
					reply.Abort(c, http.StatusUnauthorized, "token has been revoked")
					return
				}
			}
			c.Set(identityKey, id)
			c.Set(tokenKey, token)
			c.Next()
			return
		}

		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || sid == "" || cfg.Sessions == nil {
			c.Next()
			return
		}
		sess, err := cfg.Sessions.Validate(ctx, sid)
		if err != nil {
			logger.Warnf("identity: session lookup failed: %v", err)
			c.Next()
			return
		}
		if sess == nil {
			clearCookie(c, cfg)
			c.Next()
			return
		}
		u, err := cfg.Users.GetByID(ctx, sess.UserID)
		if err != nil {
			logger.Warnf("identity: user lookup for session failed: %v", err)
			c.Next()
			return
		}
		if u == nil {
			// account was removed after login
			clearCookie(c, cfg)
			c.Next()
			return
		}
		c.Set(identityKey, u.Identity())
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// RequireIdentity rejects anonymous callers with 401.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) == nil {
			reply.Abort(c, http.StatusUnauthorized, "you must be logged in")
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the caller identity, nil when anonymous.
func IdentityFrom(c *gin.Context) *models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(*models.Identity); ok {
			return id
		}
	}
	return nil
}

// SessionFrom returns the cookie session backing the request, if any.
func SessionFrom(c *gin.Context) *sessions.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*sessions.Session); ok {
			return s
		}
	}
	return nil
}

// AccessTokenFrom returns the bearer token the request was authenticated with.
func AccessTokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// SetSessionCookie writes the session cookie for sess.
func SetSessionCookie(c *gin.Context, name string, secure bool, sess *sessions.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, sess.ID, maxAge, "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c *gin.Context, name string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", secure, true)
}

func clearCookie(c *gin.Context, cfg IdentityConfig) {
	ClearSessionCookie(c, cfg.CookieName, cfg.SecureCookie)
}
