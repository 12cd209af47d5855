package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisRun is the stored header of a completed run.
type AnalysisRun struct {
	ID          uuid.UUID  `json:"id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Summary     RunSummary `json:"summary"`
	CreatedAt   time.Time  `json:"created_at"`
}
