package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/sessions"
	"github.com/mediashelf/mediashelf/internal/tokens"
	"github.com/mediashelf/mediashelf/internal/users"
	"github.com/mediashelf/mediashelf/pkg/fields"
	"github.com/mediashelf/mediashelf/pkg/logger"
	"github.com/mediashelf/mediashelf/pkg/middleware"
	"github.com/mediashelf/mediashelf/pkg/reply"
)

// SignUpRequest is the body of POST /user.
type SignUpRequest struct {
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// LoginRequest is the body of POST /user/auth.
type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

var signUpFields = []string{"userName", "firstName", "lastName", "password"}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	blacklist   *sessions.TokenBlacklist
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, bl *sessions.TokenBlacklist) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, blacklist: bl}
}

// Register routes under /user
func (h *AuthHandler) Register(rg gin.IRouter) {
	u := rg.Group("/user")
	u.POST("", h.SignUp)
	u.POST("/auth", h.Login)
	u.POST("/logout", h.Logout)
	u.GET("/me", middleware.RequireIdentity(), h.Me)
}

// SignUp creates a user account.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply.Fail(c, http.StatusBadRequest, "request body must be a JSON object", gin.H{})
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), users.Registration{
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		if fe, ok := fields.As(err); ok {
			reply.Invalid(c, "Some fields are missing or invalid", fe, signUpFields...)
			return
		}
		if errors.Is(err, users.ErrUserNameTaken) {
			fe := fields.New()
			fe.Add("userName", "is already taken")
			reply.Invalid(c, "Something went wrong while trying to create your account", fe, signUpFields...)
			return
		}
		logger.Errorf("sign up: %v", err)
		reply.Fail(c, http.StatusInternalServerError, "Something went wrong while trying to create your account", gin.H{})
		return
	}
	logger.Infof("user %s registered (%s)", u.UserName, u.ID)
	reply.OK(c, http.StatusCreated, "Successfully created your account", u)
}

// Login checks credentials, starts a cookie session and, when a JWT secret is
// configured, also returns a short-lived access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply.Fail(c, http.StatusBadRequest, "request body must be a JSON object", gin.H{})
		return
	}
	ctx := c.Request.Context()
	u, err := h.usersSvc.Authenticate(ctx, req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			reply.Fail(c, http.StatusUnauthorized, "Invalid user name or password", gin.H{})
			return
		}
		logger.Errorf("login: %v", err)
		reply.Fail(c, http.StatusInternalServerError, "Something went wrong while trying to log you in", gin.H{})
		return
	}
	sess, err := h.sessionsSvc.CreateSession(ctx, u.ID, h.cfg.Session.TTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		reply.Fail(c, http.StatusInternalServerError, "Something went wrong while trying to log you in", gin.H{})
		return
	}
	middleware.SetSessionCookie(c, h.cfg.Session.CookieName, h.cfg.Session.Secure, sess)

	data := gin.H{"user": u}
	if h.cfg.JWT.Secret != "" {
		access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
		if err != nil {
			logger.Errorf("failed to create access token: %v", err)
			reply.Fail(c, http.StatusInternalServerError, "Something went wrong while trying to log you in", gin.H{})
			return
		}
		data["accessToken"] = access
		data["expiresIn"] = int(h.cfg.JWT.AccessTokenTTL.Seconds())
	}
	reply.OK(c, http.StatusOK, "Successfully logged in", data)
}

// Logout ends the cookie session and revokes the bearer token, whichever the
// request was authenticated with. Anonymous logouts succeed as a no-op.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if sess := middleware.SessionFrom(c); sess != nil {
		if err := h.sessionsSvc.Delete(ctx, sess.ID); err != nil {
			logger.Errorf("logout: delete session: %v", err)
			reply.Fail(c, http.StatusInternalServerError, "failed to remove session", gin.H{})
			return
		}
	}
	if tok := middleware.AccessTokenFrom(c); tok != "" {
		if _, exp, err := tokens.ParseAccessToken(h.cfg, tok); err == nil {
			if err := h.blacklist.Revoke(ctx, tok, time.Until(exp)); err != nil {
				logger.Errorf("logout: revoke token: %v", err)
				reply.Fail(c, http.StatusInternalServerError, "failed to revoke access token", gin.H{})
				return
			}
		}
	}
	middleware.ClearSessionCookie(c, h.cfg.Session.CookieName, h.cfg.Session.Secure)
	reply.OK(c, http.StatusOK, "logged out", gin.H{})
}

// Me returns the caller identity.
func (h *AuthHandler) Me(c *gin.Context) {
	reply.OK(c, http.StatusOK, "", middleware.IdentityFrom(c))
}
