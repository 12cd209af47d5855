package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/lab-ranker/internal/models"
)

// AnalysisRunRepository defines the interface for analysis run storage
type AnalysisRunRepository interface {
	SaveRun(ctx context.Context, report *models.Report) error
	GetLatestRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error)
	GetRecommendations(ctx context.Context, runID uuid.UUID) ([]models.Recommendation, error)
	GetDispositions(ctx context.Context, runID uuid.UUID) ([]DispositionRow, error)
}
