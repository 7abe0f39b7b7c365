package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mediashelf/mediashelf/handlers"
	"github.com/mediashelf/mediashelf/internal/chat"
	"github.com/mediashelf/mediashelf/internal/config"
	mediahandler "github.com/mediashelf/mediashelf/internal/media/handler"
	"github.com/mediashelf/mediashelf/internal/media/service"
	"github.com/mediashelf/mediashelf/internal/models"
	"github.com/mediashelf/mediashelf/internal/sessions"
	"github.com/mediashelf/mediashelf/internal/storage"
	"github.com/mediashelf/mediashelf/internal/tokens"
	"github.com/mediashelf/mediashelf/internal/users"
	"github.com/mediashelf/mediashelf/pkg/metrics"
	"github.com/mediashelf/mediashelf/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// app bundles the wired services. Optional backends are nil when not configured.
type app struct {
	cfg       *config.Config
	started   time.Time
	redis     *redis.Client
	mongo     *mongo.Client
	minio     *storage.MinIOStorage
	users     *users.Service
	sessions  *sessions.Service
	blacklist *sessions.TokenBlacklist
	media     *service.Service
	uploads   *storage.Uploads
	room      *chat.Room
}

// router builds the HTTP surface. Middleware order matters: identity must be
// resolved before the rate limiter keys on it.
func (a *app) router(reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors(a.cfg.Server.AllowOrigin))

	idCfg := middleware.IdentityConfig{
		CookieName:   a.cfg.Session.CookieName,
		SecureCookie: a.cfg.Session.Secure,
		Sessions:     a.sessions,
		Users:        a.users,
	}
	if a.cfg.JWT.Secret != "" {
		cfg := a.cfg
		idCfg.Verifier = func(raw string) (*models.Identity, time.Time, error) {
			return tokens.ParseAccessToken(cfg, raw)
		}
	}
	if a.blacklist != nil {
		idCfg.Revocations = a.blacklist
	}
	r.Use(middleware.IdentityMiddleware(idCfg))

	if rl := a.cfg.RateLimit; rl.Enabled {
		if rl.UseRedis && a.redis != nil {
			r.Use(middleware.RedisRateLimitMiddleware(a.redis, rl.RPS, rl.Burst, time.Duration(rl.WindowSeconds)*time.Second))
		} else {
			r.Use(middleware.RateLimitMiddleware(rl.RPS, rl.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", a.ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	handlers.RegisterSwagger(r)

	mediahandler.New(a.media).Register(r)
	handlers.NewAuthHandler(a.cfg, a.users, a.sessions, a.blacklist).Register(r)
	handlers.NewChatHandler(a.room).Register(r)
	if a.uploads != nil {
		handlers.NewUploadHandler(a.uploads).Register(r)
	}
	return r
}

// ready returns 200 only when every configured backend answers.
func (a *app) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{}
	ok := true
	check := func(name string, configured bool, ping func(context.Context) error) {
		switch {
		case !configured:
			deps[name] = "disabled"
		case ping(ctx) != nil:
			deps[name] = "down"
			ok = false
		default:
			deps[name] = "up"
		}
	}
	check("mongodb", a.mongo != nil, func(ctx context.Context) error { return a.mongo.Ping(ctx, nil) })
	check("redis", a.redis != nil, func(ctx context.Context) error { return a.redis.Ping(ctx).Err() })
	check("minio", a.minio != nil, a.minio.Ping)

	status, word := http.StatusOK, "ready"
	if !ok {
		status, word = http.StatusServiceUnavailable, "not_ready"
	}
	c.JSON(status, gin.H{"status": word, "deps": deps, "uptime": time.Since(a.started).String()})
}

func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		h.Set("Access-Control-Expose-Headers", "Content-Length")
		if origin != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)
	return reg
}
