package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// DefaultTTL applies when a session is created without an explicit lifetime.
const DefaultTTL = 7 * 24 * time.Hour

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

// CreateSession stores a new session for userID and returns it. The session
// id is 32 random bytes, hex encoded, and doubles as the cookie value.
func (s *Service) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*Session, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := s.now()
	sess := &Session{
		ID:        hex.EncodeToString(b),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate returns the session for id, or nil when it is unknown or expired.
// Expired sessions are removed as a side effect.
func (s *Service) Validate(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Expired(s.now()) {
		_ = s.repo.Delete(ctx, id)
		return nil, nil
	}
	return sess, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
