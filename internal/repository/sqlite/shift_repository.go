package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/repository"
)

const createShiftsTable = `
CREATE TABLE IF NOT EXISTS shifts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_shifts_user_id ON shifts(user_id);
`

const selectShifts = `
SELECT s.id, s.user_id, s.start_time, s.end_time, s.description, s.created_at, u.username, u.full_name
FROM shifts s
JOIN users u ON u.id = s.user_id`

type ShiftRepository struct {
	db *sql.DB
}

func NewShiftRepository(db *sql.DB) repository.ShiftRepository {
	return &ShiftRepository{db: db}
}

func (r *ShiftRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createShiftsTable); err != nil {
		return fmt.Errorf("create shifts table: %w", err)
	}
	return nil
}

func (r *ShiftRepository) Create(ctx context.Context, shift *domain.Shift) (int64, error) {
	shift.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO shifts (user_id, start_time, end_time, description, created_at)
VALUES (?, ?, ?, ?, ?)`,
		shift.UserID,
		shift.StartTime,
		shift.EndTime,
		shift.Description,
		shift.CreatedAt,
	)
	if err != nil {
		return 0, wrapWriteErr("insert shift", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("shift last insert id: %w", err)
	}
	shift.ID = id
	return id, nil
}

func (r *ShiftRepository) Update(ctx context.Context, shift *domain.Shift) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE shifts
SET user_id=?, start_time=?, end_time=?, description=?
WHERE id=?`,
		shift.UserID,
		shift.StartTime,
		shift.EndTime,
		shift.Description,
		shift.ID,
	)
	if err != nil {
		return false, wrapWriteErr("update shift", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("shift update rows affected: %w", err)
	}
	return aff > 0, nil
}

func (r *ShiftRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shifts WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	return nil
}

func (r *ShiftRepository) List(ctx context.Context, scope repository.Scope) ([]domain.Shift, error) {
	query := selectShifts
	var args []any
	if !scope.All {
		query += `
WHERE s.user_id = ?`
		args = append(args, scope.OwnerID)
	}
	query += `
ORDER BY datetime(s.start_time) DESC, s.start_time DESC, s.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shifts: %w", err)
	}
	defer rows.Close()

	shifts := []domain.Shift{}
	for rows.Next() {
		var shift domain.Shift
		if err := rows.Scan(
			&shift.ID,
			&shift.UserID,
			&shift.StartTime,
			&shift.EndTime,
			&shift.Description,
			&shift.CreatedAt,
			&shift.Username,
			&shift.FullName,
		); err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}
