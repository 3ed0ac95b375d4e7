package service

import (
	"context"
	"errors"

	"github.com/and161185/sample-dispatch/internal/errs"
	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/and161185/sample-dispatch/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// Guard enforces the single ownership rule: the authenticated agent must be
// the owner of whatever it touches.
type Guard struct {
	samples repository.SampleRepository
}

// NewGuard constructs a Guard reading ownership from samples.
func NewGuard(samples repository.SampleRepository) *Guard {
	return &Guard{samples: samples}
}

// CheckAgentPath verifies that an agent id taken from a request path names
// the caller. A mismatch is errs.ErrForbidden: the other agent's list may
// exist, and that is not hidden.
func (g *Guard) CheckAgentPath(actor uuid.UUID, pathAgentID string) error {
	id, err := uuid.FromString(pathAgentID)
	if err != nil || actor == uuid.Nil || id != actor {
		return errs.ErrForbidden
	}
	return nil
}

// OwnedSample loads a sample for mutation by actor. A missing sample, an
// unparsable id and a sample owned by someone else all return
// errs.ErrNotFound so that non-owners cannot probe for ids.
func (g *Guard) OwnedSample(ctx context.Context, actor uuid.UUID, sampleID string) (*model.Sample, error) {
	id, err := uuid.FromString(sampleID)
	if err != nil || actor == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	s, err := g.samples.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if s.AgentID != actor {
		return nil, errs.ErrNotFound
	}
	return s, nil
}
