// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/sample-dispatch/internal/model"
)

// AgentRepository persists agent identities and their password digests.
type AgentRepository interface {
	// Create inserts a new agent. Returns errs.ErrAlreadyExists if the phone is taken.
	Create(ctx context.Context, a *model.Agent) error
	// GetByPhone loads an agent by its login phone.
	GetByPhone(ctx context.Context, phone string) (*model.Agent, error)
}
