package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"equipment-monitor/internal/config"
	apphttp "equipment-monitor/internal/http"
	"equipment-monitor/internal/service"
	"equipment-monitor/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API",
		Long:         "Seeds missing default accounts, then serves the API until SIGINT or SIGTERM.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, rootOpts)
		},
	}
}

func runServer(ctx context.Context, opts *RootOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	created, err := a.users.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	if created > 0 {
		logger.Infof("seeded %d account(s)", created)
	}

	store, err := buildStorage(ctx, a.cfg, logger)
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}

	sessions, err := service.NewSessionIssuer(a.users, service.SessionOptions{
		Secret: a.cfg.Auth.JWTSecret,
		TTL:    a.cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}
	attachments := service.NewAttachmentService(store, service.AttachmentOptions{MaxBytes: a.cfg.Attachments.MaxBytes})

	rdb := buildRedis(ctx, a.cfg, logger)
	var scripter redis.Scripter
	if rdb != nil {
		defer rdb.Close()
		scripter = rdb
	}

	if a.cfg.Env == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Deps{
		Users:          a.users,
		Sessions:       sessions,
		Shifts:         service.NewShiftService(a.repos.Shifts, a.repos.Users),
		Reports:        service.NewReportService(a.repos.Reports, attachments, logger),
		Attachments:    attachments,
		Logger:         logger,
		RequestTimeout: a.cfg.Server.RequestTimeout,
		LoginLimiter:   apphttp.NewLoginLimiter(a.cfg.RateLimit, scripter, logger),
		AllowedOrigins: a.cfg.CORS.AllowedOrigins,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", a.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
	return nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (storage.Service, error) {
	if cfg.Storage.Driver != "s3" {
		logger.Infof("storing attachments in %s", cfg.Attachments.Dir)
		local, err := storage.NewLocalService(cfg.Attachments.Dir)
		if err != nil {
			return nil, err
		}
		return local, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	remote, err := storage.NewS3Service(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
	if err != nil {
		return nil, err
	}
	return remote, nil
}

// buildRedis returns nil when rate limiting is off, Redis is not configured or unreachable.
func buildRedis(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) *redis.Client {
	if !cfg.RateLimit.Enabled || cfg.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, login rate limiting disabled")
		rdb.Close()
		return nil
	}
	logger.Infof("login rate limiting via redis %s", cfg.Redis.Addr)
	return rdb
}
