package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/repository"
	"equipment-monitor/internal/storage"
)

// ReportInput is the client-supplied part of a report. The owner always comes from the session.
type ReportInput struct {
	EquipmentID string
	Status      domain.ReportStatus
	Description string
}

// ReportService records and lists equipment status reports.
type ReportService interface {
	List(ctx context.Context, id domain.Identity) ([]domain.Report, error)
	CreateText(ctx context.Context, id domain.Identity, in ReportInput) (*domain.Report, error)
	CreateWithAudio(ctx context.Context, id domain.Identity, in ReportInput, up *Upload) (*domain.Report, error)
	OpenAttachment(ctx context.Context, id domain.Identity, name string) (io.ReadCloser, *storage.ObjectInfo, error)
}

type reportService struct {
	reports     repository.ReportRepository
	attachments AttachmentService
	logger      logrus.FieldLogger
}

func NewReportService(reports repository.ReportRepository, attachments AttachmentService, logger logrus.FieldLogger) ReportService {
	if logger == nil {
		logger = logrus.New()
	}
	return &reportService{
		reports:     reports,
		attachments: attachments,
		logger:      logger,
	}
}

func (s *reportService) List(ctx context.Context, id domain.Identity) ([]domain.Report, error) {
	return s.reports.List(ctx, ScopeFor(id))
}

func (s *reportService) CreateText(ctx context.Context, id domain.Identity, in ReportInput) (*domain.Report, error) {
	report, err := newReport(id, in)
	if err != nil {
		return nil, err
	}
	if err := s.insert(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// CreateWithAudio stores the attachment before the row that references it.
// If the row cannot be written the stored blob is removed again.
// A nil upload creates a report without audio.
func (s *reportService) CreateWithAudio(ctx context.Context, id domain.Identity, in ReportInput, up *Upload) (*domain.Report, error) {
	report, err := newReport(id, in)
	if err != nil {
		return nil, err
	}

	if up != nil {
		name, err := s.attachments.Store(ctx, *up)
		if err != nil {
			return nil, err
		}
		report.AudioFile = name
	}

	if err := s.insert(ctx, report); err != nil {
		if report.AudioFile != "" {
			if rmErr := s.attachments.Remove(context.WithoutCancel(ctx), report.AudioFile); rmErr != nil {
				s.logger.WithError(rmErr).WithField("audio_file", report.AudioFile).Warn("remove orphaned attachment")
			}
		}
		return nil, err
	}
	return report, nil
}

// OpenAttachment returns ErrNotFound both for unknown names and for
// attachments of reports outside the caller's scope.
func (s *reportService) OpenAttachment(ctx context.Context, id domain.Identity, name string) (io.ReadCloser, *storage.ObjectInfo, error) {
	if storage.ValidateName(name) != nil {
		return nil, nil, ErrNotFound
	}
	report, err := s.reports.GetByAudioFile(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if !CanView(id, report.UserID) {
		return nil, nil, ErrNotFound
	}
	return s.attachments.Open(ctx, name)
}

func (s *reportService) insert(ctx context.Context, report *domain.Report) error {
	if _, err := s.reports.Create(ctx, report); err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return err
	}
	return nil
}

func newReport(id domain.Identity, in ReportInput) (*domain.Report, error) {
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return &domain.Report{
		UserID:      id.ID,
		EquipmentID: strings.TrimSpace(in.EquipmentID),
		Status:      in.Status,
		Description: strings.TrimSpace(in.Description),
	}, nil
}
