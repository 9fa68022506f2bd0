package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/repository"
)

const createReportsTable = `
CREATE TABLE IF NOT EXISTS reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	equipment_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK(status IN ('working', 'faulty', 'maintenance')),
	description TEXT NOT NULL DEFAULT '',
	audio_file TEXT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_reports_user_id ON reports(user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_reports_audio_file ON reports(audio_file) WHERE audio_file IS NOT NULL;
`

const selectReports = `
SELECT r.id, r.user_id, r.equipment_id, r.status, r.description, r.audio_file, r.created_at, u.username, u.full_name
FROM reports r
JOIN users u ON u.id = r.user_id`

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createReportsTable); err != nil {
		return fmt.Errorf("create reports table: %w", err)
	}
	return nil
}

func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) (int64, error) {
	report.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO reports (user_id, equipment_id, status, description, audio_file, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		report.UserID,
		report.EquipmentID,
		string(report.Status),
		report.Description,
		nullString(report.AudioFile),
		report.CreatedAt,
	)
	if err != nil {
		return 0, wrapWriteErr("insert report", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("report last insert id: %w", err)
	}
	report.ID = id
	return id, nil
}

func (r *ReportRepository) List(ctx context.Context, scope repository.Scope) ([]domain.Report, error) {
	query := selectReports
	var args []any
	if !scope.All {
		query += `
WHERE r.user_id = ?`
		args = append(args, scope.OwnerID)
	}
	query += `
ORDER BY r.created_at DESC, r.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

func (r *ReportRepository) GetByAudioFile(ctx context.Context, name string) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, selectReports+`
WHERE r.audio_file = ?`, name)
	return scanReport(row)
}

func scanReport(scanner interface {
	Scan(dest ...any) error
}) (*domain.Report, error) {
	var (
		report    domain.Report
		status    string
		audioFile sql.NullString
	)
	if err := scanner.Scan(
		&report.ID,
		&report.UserID,
		&report.EquipmentID,
		&status,
		&report.Description,
		&audioFile,
		&report.CreatedAt,
		&report.Username,
		&report.FullName,
	); err != nil {
		return nil, scanNotFound("report", err)
	}
	report.Status = domain.ReportStatus(status)
	report.AudioFile = audioFile.String
	return &report, nil
}
