package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibalodis/fieldsignal/internal/server/models"
)

type memReportRepo struct {
	inserted []*models.Report
}

func (r *memReportRepo) Insert(ctx context.Context, report *models.Report) error {
	r.inserted = append(r.inserted, report)
	return nil
}

func (r *memReportRepo) List(ctx context.Context, limit int) ([]models.Report, error) {
	var result []models.Report
	for i := len(r.inserted) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, *r.inserted[i])
	}
	return result, nil
}

func TestAccept_AssignsIDAndReceivedAt(t *testing.T) {
	repo := &memReportRepo{}
	svc := NewReportService(repo)

	report := &models.Report{UserID: "user-7", Description: "flooded underpass"}
	id, err := svc.Accept(context.Background(), report)
	require.NoError(t, err)

	assert.NotEmpty(t, id)
	assert.Equal(t, id, report.ID)
	assert.False(t, report.ReceivedAt.IsZero())
	require.Len(t, repo.inserted, 1)
}

func TestAccept_UniqueIDs(t *testing.T) {
	repo := &memReportRepo{}
	svc := NewReportService(repo)

	id1, err := svc.Accept(context.Background(), &models.Report{Description: "a"})
	require.NoError(t, err)
	id2, err := svc.Accept(context.Background(), &models.Report{Description: "b"})
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}
