package domain

import "time"

type ReportStatus string

const (
	ReportStatusWorking     ReportStatus = "working"
	ReportStatusFaulty      ReportStatus = "faulty"
	ReportStatusMaintenance ReportStatus = "maintenance"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusWorking, ReportStatusFaulty, ReportStatusMaintenance:
		return true
	}
	return false
}

// Report is an append-only equipment status entry.
type Report struct {
	ID          int64
	UserID      int64
	EquipmentID string
	Status      ReportStatus
	Description string
	AudioFile   string
	CreatedAt   time.Time

	Username string
	FullName string
}
