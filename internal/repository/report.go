package repository

import (
	"context"

	"equipment-monitor/internal/domain"
)

// ReportRepository exposes persistence operations for reports. Reports are append-only.
type ReportRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, report *domain.Report) (int64, error)
	List(ctx context.Context, scope Scope) ([]domain.Report, error)
	GetByAudioFile(ctx context.Context, name string) (*domain.Report, error)
}
