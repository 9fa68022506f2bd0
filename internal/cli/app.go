package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"equipment-monitor/internal/config"
	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/repository/sqlite"
	"equipment-monitor/internal/service"
)

// app bundles what every command needs: config, logger, the open database and user accounts.
type app struct {
	cfg    config.Config
	logger *logrus.Logger
	db     *sql.DB
	repos  *sqlite.Repositories
	users  service.UserService
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repos, err := sqlite.NewRepositories(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init repositories: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		repos:  repos,
		users: service.NewUserService(repos.Users, service.UserOptions{
			BcryptCost: cfg.Auth.BcryptCost,
			Seed:       seedAccounts(cfg),
		}),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func newLogger(cfg config.Config, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	return logger, nil
}

// seedAccounts converts configured seed accounts; nil selects the built-in defaults.
func seedAccounts(cfg config.Config) []service.NewUser {
	if len(cfg.Auth.Seed) == 0 {
		return nil
	}
	out := make([]service.NewUser, 0, len(cfg.Auth.Seed))
	for _, acc := range cfg.Auth.Seed {
		out = append(out, service.NewUser{
			Username: acc.Username,
			Password: acc.Password,
			Role:     domain.Role(acc.Role),
			FullName: acc.FullName,
		})
	}
	return out
}
