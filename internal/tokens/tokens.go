package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/models"
)

// ErrDisabled is returned when no JWT secret is configured.
var ErrDisabled = errors.New("access tokens are disabled")

// Claims is the payload of an access token.
type Claims struct {
	UserName  string `json:"userName"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed JWT access token for the user
func GenerateAccessToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", ErrDisabled
	}
	now := time.Now()
	claims := Claims{
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// ParseAccessToken verifies raw and returns the identity it carries together
// with its expiry. Only HS256 tokens are accepted.
func ParseAccessToken(cfg *config.Config, raw string) (*models.Identity, time.Time, error) {
	if cfg.JWT.Secret == "" {
		return nil, time.Time{}, ErrDisabled
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, time.Time{}, errors.New("parse access token: missing subject")
	}
	id := &models.Identity{
		ID:        claims.Subject,
		UserName:  claims.UserName,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}
	return id, claims.ExpiresAt.Time, nil
}
