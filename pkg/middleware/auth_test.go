package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/mediashelf/mediashelf/internal/models"
	"github.com/mediashelf/mediashelf/internal/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return f[id], nil
}

func goodVerifier(raw string) (*models.Identity, time.Time, error) {
	if raw == "goodtoken" || raw == "black-token" {
		return &models.Identity{ID: "user1", UserName: "tok"}, time.Now().Add(time.Minute), nil
	}
	return nil, time.Time{}, errors.New("invalid token")
}

type testEnv struct {
	engine   *gin.Engine
	sessions *sessions.Service
	cfg      IdentityConfig
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := sessions.NewService(sessions.NewMemoryRepository())
	cfg := IdentityConfig{
		CookieName: "mediashelf.sid",
		Sessions:   svc,
		Users:      fakeUsers{"u1": {ID: "u1", UserName: "alice", FirstName: "Alice"}},
		Verifier:   goodVerifier,
	}
	g := gin.New()
	g.Use(IdentityMiddleware(cfg))
	g.GET("/whoami", func(c *gin.Context) {
		id := IdentityFrom(c)
		if id == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "session": SessionFrom(c) != nil})
	})
	g.GET("/private", RequireIdentity(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return &testEnv{engine: g, sessions: svc, cfg: cfg}
}

func (e *testEnv) do(req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	rw := httptest.NewRecorder()
	e.engine.ServeHTTP(rw, req)
	var body map[string]interface{}
	_ = json.Unmarshal(rw.Body.Bytes(), &body)
	return rw, body
}

func TestIdentityMiddleware_Anonymous(t *testing.T) {
	env := newEnv(t)
	rw, body := env.do(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, true, body["anonymous"])

	rw, _ = env.do(httptest.NewRequest(http.MethodGet, "/private", nil))
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestIdentityMiddleware_SessionCookie(t *testing.T) {
	env := newEnv(t)
	sess, err := env.sessions.CreateSession(context.Background(), "u1", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "mediashelf.sid", Value: sess.ID})
	rw, body := env.do(req)
	require.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "u1", body["id"])
	assert.Equal(t, true, body["session"])
}

func TestIdentityMiddleware_StaleCookieCleared(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "mediashelf.sid", Value: "gone"})
	rw, body := env.do(req)
	require.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, true, body["anonymous"])

	setCookie := rw.Header().Get("Set-Cookie")
	require.True(t, strings.HasPrefix(setCookie, "mediashelf.sid=;"), setCookie)
	assert.Contains(t, setCookie, "Max-Age=0")
}

func TestIdentityMiddleware_SessionOfDeletedUserCleared(t *testing.T) {
	env := newEnv(t)
	sess, err := env.sessions.CreateSession(context.Background(), "ghost", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "mediashelf.sid", Value: sess.ID})
	rw, body := env.do(req)
	assert.Equal(t, true, body["anonymous"])
	assert.Contains(t, rw.Header().Get("Set-Cookie"), "mediashelf.sid=;")
}

func TestIdentityMiddleware_InvalidHeader(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "BadHeader")
	rw, body := env.do(req)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	assert.Equal(t, true, body["error"])
}

func TestIdentityMiddleware_ValidAndInvalidToken(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	rw, body := env.do(req)
	require.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "user1", body["id"])
	assert.Equal(t, false, body["session"])

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rw, _ = env.do(req)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestIdentityMiddleware_RejectsRevokedToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	bl := sessions.NewTokenBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	require.NoError(t, bl.Revoke(context.Background(), "black-token", 5*time.Second))

	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.Use(IdentityMiddleware(IdentityConfig{CookieName: "sid", Verifier: goodVerifier, Revocations: bl}))
	g.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer black-token")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
}
