package repository

import (
	"context"
	"time"

	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SampleRepository provides versioned access to pickup samples.
// Reads annotate each sample with its owning agent's public fields.
type SampleRepository interface {
	// Create inserts a new sample and returns it as stored.
	// An unknown AgentID yields errs.ErrValidation.
	Create(ctx context.Context, s *model.Sample) (*model.Sample, error)

	// Get returns a sample by ID regardless of owner, or errs.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*model.Sample, error)

	// ListByAgentDay returns all samples of agentID scheduled on day (UTC midnight).
	ListByAgentDay(ctx context.Context, agentID uuid.UUID, day time.Time) ([]model.Sample, error)

	// UpdateState writes status, notes and updated_at if the stored version
	// still equals s.Ver, bumping it. Returns errs.ErrVersionConflict otherwise.
	UpdateState(ctx context.Context, s *model.Sample) (*model.Sample, error)
}
