package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/sample-dispatch/internal/errs"
	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// SampleRepo implements SampleRepository using PostgreSQL.
type SampleRepo struct{ db *DB }

// NewSampleRepo constructs a sample repository.
func NewSampleRepo(db *DB) *SampleRepo { return &SampleRepo{db: db} }

const sampleCols = `
SELECT s.id, s.patient_name, s.pickup_address, s.scheduled_date, s.priority, s.notes,
       s.status, s.agent_id, s.ver, s.created_at, s.updated_at, a.name, a.phone
FROM samples s JOIN agents a ON a.id = s.agent_id`

// Create inserts the sample and reads it back with its owner annotation.
func (r *SampleRepo) Create(ctx context.Context, s *model.Sample) (out *model.Sample, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			out, err = nil, e
		}
	}()

	const ins = `
INSERT INTO samples (id, patient_name, pickup_address, scheduled_date, priority, notes, status, agent_id, ver, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	if _, err = tx.Exec(ctx, ins,
		s.ID, s.PatientName, s.PickupAddress, s.ScheduledDate, string(s.Priority), s.Notes,
		string(s.Status), s.AgentID, s.Ver, s.CreatedAt, s.UpdatedAt,
	); err != nil {
		switch {
		case isForeignKeyViolation(err):
			return nil, fmt.Errorf("%w: agent %s does not exist", errs.ErrValidation, s.AgentID)
		case isUniqueViolation(err):
			return nil, errs.ErrAlreadyExists
		}
		return nil, err
	}

	out, err = scanSample(tx.QueryRow(ctx, sampleCols+` WHERE s.id=$1`, s.ID))
	return out, err
}

// Get returns a single sample by id.
func (r *SampleRepo) Get(ctx context.Context, id uuid.UUID) (*model.Sample, error) {
	return scanSample(r.db.Pool.QueryRow(ctx, sampleCols+` WHERE s.id=$1`, id))
}

// ListByAgentDay returns the agent's samples scheduled on the given day.
// Filtering by status and dispatch ordering are left to the service.
func (r *SampleRepo) ListByAgentDay(ctx context.Context, agentID uuid.UUID, day time.Time) ([]model.Sample, error) {
	rows, err := r.db.Pool.Query(ctx, sampleCols+`
WHERE s.agent_id=$1 AND s.scheduled_date=$2
ORDER BY s.created_at ASC`, agentID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Sample{}
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// UpdateState writes the mutable lifecycle fields under a version check.
func (r *SampleRepo) UpdateState(ctx context.Context, s *model.Sample) (*model.Sample, error) {
	const upd = `
UPDATE samples
SET status=$3, notes=$4, updated_at=$5, ver=ver+1
WHERE id=$1 AND ver=$2`
	tag, err := r.db.Pool.Exec(ctx, upd, s.ID, s.Ver, string(s.Status), s.Notes, s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, errs.ErrVersionConflict
	}
	return r.Get(ctx, s.ID)
}

func scanSample(row rowScanner) (*model.Sample, error) {
	var (
		s          model.Sample
		priority   string
		status     string
		agentName  string
		agentPhone string
	)
	err := row.Scan(
		&s.ID, &s.PatientName, &s.PickupAddress, &s.ScheduledDate, &priority, &s.Notes,
		&status, &s.AgentID, &s.Ver, &s.CreatedAt, &s.UpdatedAt, &agentName, &agentPhone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	s.Priority = model.Priority(priority)
	s.Status = model.Status(status)
	s.ScheduledDate = model.Day(s.ScheduledDate)
	s.Agent = &model.AgentPublic{ID: s.AgentID, Name: agentName, Phone: agentPhone}
	return &s, nil
}
