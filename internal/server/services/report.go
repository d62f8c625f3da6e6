package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ibalodis/fieldsignal/internal/server/models"
	"github.com/ibalodis/fieldsignal/internal/server/repositories/reports"
)

// ReportService accepts submitted hazard reports and serves the read API.
type ReportService struct {
	reports reports.Repository
}

func NewReportService(repo reports.Repository) *ReportService {
	return &ReportService{reports: repo}
}

// Accept assigns the canonical identifier and persists the report. The
// returned id is what the submitting client records as the remote id.
func (s *ReportService) Accept(ctx context.Context, report *models.Report) (string, error) {
	report.ID = uuid.NewString()
	report.ReceivedAt = time.Now()

	if err := s.reports.Insert(ctx, report); err != nil {
		return "", fmt.Errorf("error saving report: %v", err)
	}
	return report.ID, nil
}

// List returns up to limit of the most recent reports, newest first.
func (s *ReportService) List(ctx context.Context, limit int) ([]models.Report, error) {
	return s.reports.List(ctx, limit)
}
