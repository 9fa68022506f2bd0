package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"equipment-monitor/internal/repository"
)

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// a single connection keeps the pragmas below in effect for every statement
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 5000;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// Repositories bundles the sqlite-backed repositories sharing one handle.
type Repositories struct {
	Users   repository.UserRepository
	Shifts  repository.ShiftRepository
	Reports repository.ReportRepository
}

// NewRepositories builds the repositories and creates their tables in dependency order.
func NewRepositories(ctx context.Context, db *sql.DB) (*Repositories, error) {
	repos := &Repositories{
		Users:   NewUserRepository(db),
		Shifts:  NewShiftRepository(db),
		Reports: NewReportRepository(db),
	}
	if err := repos.Users.Init(ctx); err != nil {
		return nil, fmt.Errorf("init user repository: %w", err)
	}
	if err := repos.Shifts.Init(ctx); err != nil {
		return nil, fmt.Errorf("init shift repository: %w", err)
	}
	if err := repos.Reports.Init(ctx); err != nil {
		return nil, fmt.Errorf("init report repository: %w", err)
	}
	return repos, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "check constraint") || strings.Contains(msg, "foreign key constraint")
}

func wrapWriteErr(op string, err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("%s: %w: %v", op, repository.ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanNotFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return fmt.Errorf("scan %s: %w", what, err)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
