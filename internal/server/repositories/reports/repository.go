package reports

import (
	"context"

	"github.com/ibalodis/fieldsignal/internal/server/models"
)

// Repository stores accepted hazard reports.
type Repository interface {
	// Insert persists a report.
	Insert(ctx context.Context, report *models.Report) error

	// List returns the most recent reports, newest first.
	List(ctx context.Context, limit int) ([]models.Report, error)
}
