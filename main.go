package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediashelf/mediashelf/internal/chat"
	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/database"
	"github.com/mediashelf/mediashelf/internal/media/service"
	"github.com/mediashelf/mediashelf/internal/sessions"
	"github.com/mediashelf/mediashelf/internal/storage"
	"github.com/mediashelf/mediashelf/internal/users"
	"github.com/mediashelf/mediashelf/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Debugf("startup: log level %s", logger.LevelString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a := &app{cfg: cfg, started: time.Now()}

	// Redis is optional: sessions, the token blacklist and the shared rate limiter use it when reachable.
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = client.Close()
		} else {
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			a.redis = client
			defer func() { _ = client.Close() }()
		}
	}

	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Warnf("could not connect to MongoDB, falling back to in-memory stores: %v", err)
		} else {
			a.mongo = client
			defer func() { _ = client.Disconnect(context.Background()) }()
		}
	}

	var db *mongo.Database
	if a.mongo != nil {
		db = a.mongo.Database(cfg.MongoDB.Database)
		a.users = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
	} else {
		logger.Warnf("users and media are kept in memory and will not survive a restart")
		a.users = users.NewService(users.NewMemoryUserRepository())
	}

	switch {
	case a.redis != nil:
		a.sessions = sessions.NewService(sessions.NewRedisRepository(a.redis, "session:"))
		a.blacklist = sessions.NewTokenBlacklist(a.redis)
		logger.Infof("using Redis for session storage")
	case db != nil:
		a.sessions = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
		logger.Infof("using MongoDB for session storage")
	default:
		a.sessions = sessions.NewService(sessions.NewMemoryRepository())
	}

	opts := service.Options{EnforceOwnership: cfg.Media.EnforceOwnership}
	if db != nil {
		a.media = service.NewMongoService(db, a.users, opts)
	} else {
		a.media = service.NewMemoryService(a.users, opts)
	}

	if cfg.MinIO.Endpoint != "" {
		s, err := storage.NewMinIOStorage(ctx, &cfg.MinIO)
		if err != nil {
			logger.Warnf("uploads disabled: %v", err)
		} else {
			a.minio = s
			a.uploads = storage.NewUploads(s, cfg.MinIO.PresignTTL, cfg.MinIO.MaxUpload)
		}
	}

	a.room = chat.NewRoom(chat.DefaultRoom)
	defer a.room.Close()

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     a.router(newRegistry()),
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: chat streams stay open
	}
	logger.Infof("config summary: mongo=%v redis=%v minio=%v jwt=%v ownership=%v",
		a.mongo != nil, a.redis != nil, a.minio != nil, cfg.JWT.Secret != "", cfg.Media.EnforceOwnership)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("starting mediashelf on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("shutting down")
		// end open chat streams so Shutdown does not wait on them
		a.room.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
