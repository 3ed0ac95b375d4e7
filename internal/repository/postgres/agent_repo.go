package postgres

import (
	"context"
	"errors"

	"github.com/and161185/sample-dispatch/internal/errs"
	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/jackc/pgx/v5"
)

// AgentRepo implements AgentRepository using PostgreSQL.
type AgentRepo struct{ db *DB }

// NewAgentRepo constructs an agent repository.
func NewAgentRepo(db *DB) *AgentRepo { return &AgentRepo{db: db} }

// Create inserts a new agent row.
func (r *AgentRepo) Create(ctx context.Context, a *model.Agent) error {
	const q = `
INSERT INTO agents (id, name, phone, pwd_hash, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Name, a.Phone, a.PasswordHash, a.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByPhone selects an agent by phone.
func (r *AgentRepo) GetByPhone(ctx context.Context, phone string) (*model.Agent, error) {
	const q = `
SELECT id, name, phone, pwd_hash, created_at
FROM agents WHERE phone=$1`
	return scanAgent(r.db.Pool.QueryRow(ctx, q, phone))
}

func scanAgent(row rowScanner) (*model.Agent, error) {
	var a model.Agent
	if err := row.Scan(&a.ID, &a.Name, &a.Phone, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
