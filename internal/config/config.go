package config

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	LogLevel  string
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Session   SessionConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	MinIO     MinIOConfig
	Media     MediaConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	// AllowOrigin is echoed in Access-Control-Allow-Origin.
	AllowOrigin string
}

// MongoDBConfig is optional; with an empty URI the service runs on in-memory stores.
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// MinIOConfig holds MinIO connection configuration. Uploads are disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Bucket     string
	PresignTTL time.Duration
	MaxUpload  int64
}

type MediaConfig struct {
	// EnforceOwnership restricts update and delete to the author of a document.
	EnforceOwnership bool
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("SERVER_ALLOW_ORIGIN", "*")
	v.SetDefault("MONGODB_DATABASE", "mediashelf")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_COOKIE_NAME", "mediashelf.sid")
	v.SetDefault("SESSION_TTL_HOURS", 168)
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "mediashelf")
	v.SetDefault("MINIO_PRESIGN_TTL_MINUTES", 15)
	v.SetDefault("MINIO_MAX_UPLOAD_MB", 32)
	v.SetDefault("MEDIA_ENFORCE_OWNERSHIP", true)

	cfg := &Config{
		LogLevel: v.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
			AllowOrigin:     v.GetString("SERVER_ALLOW_ORIGIN"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			CookieName: v.GetString("SESSION_COOKIE_NAME"),
			TTL:        time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour,
			Secure:     v.GetBool("SESSION_COOKIE_SECURE"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		MinIO: MinIOConfig{
			Endpoint:   v.GetString("MINIO_ENDPOINT"),
			AccessKey:  v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:  os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:     v.GetBool("MINIO_USE_SSL"),
			Bucket:     v.GetString("MINIO_BUCKET"),
			PresignTTL: time.Duration(v.GetInt("MINIO_PRESIGN_TTL_MINUTES")) * time.Minute,
			MaxUpload:  v.GetInt64("MINIO_MAX_UPLOAD_MB") << 20,
		},
		Media: MediaConfig{
			EnforceOwnership: v.GetBool("MEDIA_ENFORCE_OWNERSHIP"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks each section and reports all offending keys at once.
func (c *Config) Validate() error {
	return validation.Errors{
		"server": validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Port, validation.Required, is.Port),
			validation.Field(&c.Server.ShutdownTimeout, validation.Required),
		),
		"mongodb": validation.ValidateStruct(&c.MongoDB,
			validation.Field(&c.MongoDB.Database, validation.When(c.MongoDB.URI != "", validation.Required)),
			validation.Field(&c.MongoDB.Timeout, validation.When(c.MongoDB.URI != "", validation.Required)),
		),
		"redis": validation.ValidateStruct(&c.Redis,
			validation.Field(&c.Redis.Port, validation.When(c.Redis.Host != "", validation.Required, is.Port)),
		),
		"session": validation.ValidateStruct(&c.Session,
			validation.Field(&c.Session.CookieName, validation.Required),
			validation.Field(&c.Session.TTL, validation.Required),
		),
		"jwt": validation.ValidateStruct(&c.JWT,
			validation.Field(&c.JWT.Secret, validation.When(c.JWT.Secret != "", validation.Length(32, 0))),
		),
		"ratelimit": validation.ValidateStruct(&c.RateLimit,
			validation.Field(&c.RateLimit.RPS, validation.When(c.RateLimit.Enabled, validation.Required, validation.Min(0.0).Exclusive())),
			validation.Field(&c.RateLimit.WindowSeconds, validation.When(c.RateLimit.UseRedis, validation.Required, validation.Min(1))),
		),
		"minio": validation.ValidateStruct(&c.MinIO,
			validation.Field(&c.MinIO.AccessKey, validation.When(c.MinIO.Endpoint != "", validation.Required)),
			validation.Field(&c.MinIO.SecretKey, validation.When(c.MinIO.Endpoint != "", validation.Required)),
			validation.Field(&c.MinIO.Bucket, validation.When(c.MinIO.Endpoint != "", validation.Required)),
		),
	}.Filter()
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
