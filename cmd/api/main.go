// @title           Account Service API
// @version         1.0
// @description     User accounts, JWT authentication and role-based access control.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oguzhanozgokce/account-service/internal/api"
	"github.com/oguzhanozgokce/account-service/internal/api/handler"
	"github.com/oguzhanozgokce/account-service/internal/core/ports"
	"github.com/oguzhanozgokce/account-service/internal/core/service"
	"github.com/oguzhanozgokce/account-service/internal/core/token"
	mongodb "github.com/oguzhanozgokce/account-service/internal/infrastructure/db/mongo"
	redisdb "github.com/oguzhanozgokce/account-service/internal/infrastructure/db/redis"
	"github.com/oguzhanozgokce/account-service/internal/infrastructure/queue"
	"github.com/oguzhanozgokce/account-service/internal/infrastructure/storage"
	"github.com/oguzhanozgokce/account-service/internal/pkg/config"
	"github.com/oguzhanozgokce/account-service/pkg/logger"
)

const (
	serviceName     = "account-service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	codec, err := token.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	tokens := token.NewService(codec)

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()
	if err := mongodb.EnsureSchema(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()

	images, uploadDir, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	// --- Core ---
	userRepo := mongodb.NewUserRepository(db)
	auditService := service.NewAuditService(mongodb.NewAuditRepository(db), logger.Component(log, "audit"))
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditService, logger.Component(log, "dispatcher"))

	authService := service.NewAuthService(
		userRepo,
		tokens,
		service.NewBcryptHasher(cfg.Auth.BcryptCost),
		redisdb.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockout),
		dispatcher,
		logger.Component(log, "auth"),
	)
	userService := service.NewUserService(userRepo, images, dispatcher, logger.Component(log, "users"))

	e := api.NewRouter(api.RouterConfig{
		AuthService:        authService,
		UserService:        userService,
		Tokens:             tokens,
		Users:              userRepo,
		PublicPaths:        cfg.Auth.PublicPaths,
		BaseURL:            cfg.BaseURL,
		UploadDir:          uploadDir,
		RateLimitPerMinute: cfg.Auth.RateLimitPerMinute,
		Production:         !cfg.IsDevelopment(),
		Readiness: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(db),
			"redis":   handler.RedisPinger(rdb),
		},
		Log: logger.Component(log, "http"),
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(sctx)

		stopWorkers()
		dispatcher.Wait()
		return err
	})

	return g.Wait()
}

func newImageStore(ctx context.Context, cfg *config.Config) (ports.ImageStore, string, error) {
	if cfg.Storage.Driver == config.StorageS3 {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.Storage.S3Bucket,
			Region:    cfg.Storage.S3Region,
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			PublicURL: cfg.Storage.S3PublicURL,
		})
		return store, "", err
	}

	store, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}
