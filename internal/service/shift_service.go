package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/repository"
)

// shiftTimeLayouts are tried in order when parsing shift boundaries. Layouts
// without an offset are read as UTC.
var shiftTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ShiftInput is the client-supplied part of a shift.
type ShiftInput struct {
	UserID      int64
	StartTime   string
	EndTime     string
	Description string
}

// ShiftService manages shift schedules. Mutations are admin-only.
type ShiftService interface {
	List(ctx context.Context, id domain.Identity) ([]domain.Shift, error)
	Create(ctx context.Context, id domain.Identity, in ShiftInput) (int64, error)
	Update(ctx context.Context, id domain.Identity, shiftID int64, in ShiftInput) error
	Delete(ctx context.Context, id domain.Identity, shiftID int64) error
}

type shiftService struct {
	shifts repository.ShiftRepository
	users  repository.UserRepository
}

func NewShiftService(shifts repository.ShiftRepository, users repository.UserRepository) ShiftService {
	return &shiftService{
		shifts: shifts,
		users:  users,
	}
}

func (s *shiftService) List(ctx context.Context, id domain.Identity) ([]domain.Shift, error) {
	return s.shifts.List(ctx, ScopeFor(id))
}

func (s *shiftService) Create(ctx context.Context, id domain.Identity, in ShiftInput) (int64, error) {
	if err := requireAdmin(id); err != nil {
		return 0, err
	}
	shift, err := s.prepare(ctx, in)
	if err != nil {
		return 0, err
	}

	shiftID, err := s.shifts.Create(ctx, shift)
	if err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return 0, ErrUnknownUser
		}
		return 0, err
	}
	return shiftID, nil
}

// Update returns ErrNotFound when no shift has the given id.
func (s *shiftService) Update(ctx context.Context, id domain.Identity, shiftID int64, in ShiftInput) error {
	if err := requireAdmin(id); err != nil {
		return err
	}
	shift, err := s.prepare(ctx, in)
	if err != nil {
		return err
	}
	shift.ID = shiftID

	ok, err := s.shifts.Update(ctx, shift)
	if err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return ErrUnknownUser
		}
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete is idempotent: removing a missing shift succeeds.
func (s *shiftService) Delete(ctx context.Context, id domain.Identity, shiftID int64) error {
	if err := requireAdmin(id); err != nil {
		return err
	}
	return s.shifts.Delete(ctx, shiftID)
}

func (s *shiftService) prepare(ctx context.Context, in ShiftInput) (*domain.Shift, error) {
	if in.UserID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	startAt, endAt, err := parseShiftRange(strings.TrimSpace(in.StartTime), strings.TrimSpace(in.EndTime))
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}

	return &domain.Shift{
		UserID:      in.UserID,
		StartTime:   formatShiftTime(startAt),
		EndTime:     formatShiftTime(endAt),
		Description: strings.TrimSpace(in.Description),
	}, nil
}

// parseShiftRange requires both boundaries to parse and start to precede end.
// Overlapping shifts for the same engineer are allowed.
func parseShiftRange(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_time and end_time are required", ErrInvalidInput)
	}
	startAt, err := parseShiftTime(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_time: %v", ErrInvalidInput, err)
	}
	endAt, err := parseShiftTime(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_time: %v", ErrInvalidInput, err)
	}
	if !startAt.Before(endAt) {
		return time.Time{}, time.Time{}, ErrInvalidShiftRange
	}
	return startAt, endAt, nil
}

// formatShiftTime is the stored form: RFC3339 in UTC, so text order is time order.
func formatShiftTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseShiftTime(v string) (time.Time, error) {
	for _, layout := range shiftTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", v)
}
