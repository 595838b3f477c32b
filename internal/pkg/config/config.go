package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// BaseURL prefixes relative profile image URLs in responses.
	BaseURL string `env:"BASE_URL, default=http://localhost:8080"`

	Auth    AuthConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Audit   AuditConfig
	Storage StorageConfig
}

type AuthConfig struct {
	JWTSecret   string        `env:"JWT_SECRET, required"`
	JWTTTL      time.Duration `env:"JWT_TTL,     default=24h"`
	BcryptCost  int           `env:"BCRYPT_COST, default=10"`
	PublicPaths []string      `env:"PUBLIC_PATHS, default=/api/auth/login,/api/auth/register,/health,/error,/swagger,/metrics,/uploads"`

	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS,    default=5"`
	LoginLockout       time.Duration `env:"LOGIN_LOCKOUT,         default=15m"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE, default=30"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=account_service"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type StorageConfig struct {
	Driver    string `env:"STORAGE_DRIVER, default=local"`
	UploadDir string `env:"UPLOAD_DIR,     default=uploads"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION, default=us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}
