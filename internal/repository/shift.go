package repository

import (
	"context"

	"equipment-monitor/internal/domain"
)

// ShiftRepository exposes persistence operations for shifts.
type ShiftRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, shift *domain.Shift) (int64, error)
	// Update replaces the mutable fields and reports whether a row matched.
	Update(ctx context.Context, shift *domain.Shift) (bool, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, scope Scope) ([]domain.Shift, error)
}
