package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/models"
	"github.com/mediashelf/mediashelf/internal/sessions"
	"github.com/mediashelf/mediashelf/internal/tokens"
	"github.com/mediashelf/mediashelf/internal/users"
	"github.com/mediashelf/mediashelf/pkg/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Error   bool                       `json:"error"`
	Message string                     `json:"message"`
	Data    json.RawMessage            `json:"data"`
	Fields  map[string]json.RawMessage `json:"fields"`
}

type authEnv struct {
	engine    *gin.Engine
	cfg       *config.Config
	blacklist *sessions.TokenBlacklist
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{}
	cfg.Session.CookieName = "mediashelf.sid"
	cfg.Session.TTL = time.Hour
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute

	uSvc := users.NewService(users.NewMemoryUserRepository())
	sSvc := sessions.NewService(sessions.NewMemoryRepository())
	bl := sessions.NewTokenBlacklist(client)

	g := gin.New()
	g.Use(middleware.IdentityMiddleware(middleware.IdentityConfig{
		CookieName: cfg.Session.CookieName,
		Sessions:   sSvc,
		Users:      uSvc,
		Verifier: func(raw string) (*models.Identity, time.Time, error) {
			return tokens.ParseAccessToken(cfg, raw)
		},
		Revocations: bl,
	}))
	NewAuthHandler(cfg, uSvc, sSvc, bl).Register(g)
	return &authEnv{engine: g, cfg: cfg, blacklist: bl}
}

func (e *authEnv) do(method, path, body string, mod func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if mod != nil {
		mod(req)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func sessionCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

const aliceBody = `{"userName":"alice","firstName":"Alice","lastName":"Liddell","password":"wonderland"}`

func TestSignUp(t *testing.T) {
	e := newAuthEnv(t)

	w := e.do("POST", "/user", aliceBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	env := parseEnvelope(t, w)
	assert.False(t, env.Error)
	assert.Contains(t, string(env.Data), `"userName":"alice"`)
	assert.NotContains(t, string(env.Data), "wonderland")
	assert.NotContains(t, string(env.Data), "passwordHash")

	w = e.do("POST", "/user", aliceBody, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env = parseEnvelope(t, w)
	assert.True(t, env.Error)
	assert.Contains(t, string(env.Fields["userName"]), `"valid":false`)
	assert.Contains(t, string(env.Fields["password"]), `"valid":true`)
}

func TestSignUpValidation(t *testing.T) {
	e := newAuthEnv(t)

	w := e.do("POST", "/user", `{"userName":"al","firstName":"","lastName":"L","password":"short"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := parseEnvelope(t, w)
	assert.Contains(t, string(env.Fields["userName"]), `"valid":false`)
	assert.Contains(t, string(env.Fields["firstName"]), `"valid":false`)
	assert.Contains(t, string(env.Fields["lastName"]), `"valid":true`)
	assert.Contains(t, string(env.Fields["password"]), `"valid":false`)

	w = e.do("POST", "/user", `[1,2]`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginSetsCookieAndToken(t *testing.T) {
	e := newAuthEnv(t)
	require.Equal(t, http.StatusCreated, e.do("POST", "/user", aliceBody, nil).Code)

	w := e.do("POST", "/user/auth", `{"userName":"alice","password":"nope-nope"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, sessionCookie(w, e.cfg.Session.CookieName))

	w = e.do("POST", "/user/auth", `{"userName":"alice","password":"wonderland"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ck := sessionCookie(w, e.cfg.Session.CookieName)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)

	var data struct {
		User        models.User `json:"user"`
		AccessToken string      `json:"accessToken"`
		ExpiresIn   int         `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(parseEnvelope(t, w).Data, &data))
	assert.Equal(t, "alice", data.User.UserName)
	assert.NotEmpty(t, data.AccessToken)
	assert.Equal(t, 900, data.ExpiresIn)

	// the cookie alone authenticates /user/me
	w = e.do("GET", "/user/me", "", func(r *http.Request) { r.AddCookie(ck) })
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userName":"alice"`)

	// and so does the bearer token
	w = e.do("GET", "/user/me", "", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+data.AccessToken) })
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), data.User.ID)
}

func TestLoginWithoutJWTSecretOmitsToken(t *testing.T) {
	e := newAuthEnv(t)
	e.cfg.JWT.Secret = ""
	require.Equal(t, http.StatusCreated, e.do("POST", "/user", aliceBody, nil).Code)

	w := e.do("POST", "/user/auth", `{"userName":"alice","password":"wonderland"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "accessToken")
}

func TestMeRequiresIdentity(t *testing.T) {
	e := newAuthEnv(t)
	w := e.do("GET", "/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutEndsSessionAndRevokesToken(t *testing.T) {
	e := newAuthEnv(t)
	require.Equal(t, http.StatusCreated, e.do("POST", "/user", aliceBody, nil).Code)
	w := e.do("POST", "/user/auth", `{"userName":"alice","password":"wonderland"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ck := sessionCookie(w, e.cfg.Session.CookieName)
	require.NotNil(t, ck)
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(parseEnvelope(t, w).Data, &data))

	w = e.do("POST", "/user/logout", "", func(r *http.Request) { r.AddCookie(ck) })
	require.Equal(t, http.StatusOK, w.Code)
	cleared := sessionCookie(w, e.cfg.Session.CookieName)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)

	// old cookie no longer authenticates
	w = e.do("GET", "/user/me", "", func(r *http.Request) { r.AddCookie(ck) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	bearer := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+data.AccessToken) }
	w = e.do("POST", "/user/logout", "", bearer)
	require.Equal(t, http.StatusOK, w.Code)
	revoked, err := e.blacklist.IsRevoked(t.Context(), data.AccessToken)
	require.NoError(t, err)
	assert.True(t, revoked)

	w = e.do("GET", "/user/me", "", bearer)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnonymousLogoutIsNoop(t *testing.T) {
	e := newAuthEnv(t)
	w := e.do("POST", "/user/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
