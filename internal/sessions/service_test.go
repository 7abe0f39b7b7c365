package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndValidateSession(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "user-1", time.Hour)
	require.NoError(t, err)
	require.Len(t, sess.ID, 64)
	assert.Equal(t, "user-1", sess.UserID)

	got, err := svc.Validate(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)

	require.NoError(t, svc.Delete(ctx, sess.ID))
	got, err = svc.Validate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestValidateRemovesExpiredSession(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "user-1", time.Minute)
	require.NoError(t, err)

	svc.now = func() time.Time { return sess.ExpiresAt.Add(time.Second) }
	got, err := svc.Validate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	stored, err := repo.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestValidateUnknownAndEmpty(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	got, err := svc.Validate(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = svc.Validate(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateSessionDefaultsTTL(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	sess, err := svc.CreateSession(context.Background(), "u", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, sess.ExpiresAt.Sub(sess.CreatedAt))
}
