package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/sample-dispatch/internal/errs"
	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/and161185/sample-dispatch/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// delayPrefix marks each entry of the delay log kept in a sample's notes.
const delayPrefix = "DELAY: "

// SampleService defines the sample lifecycle and the daily dispatch list.
type SampleService interface {
	// Create registers a new SCHEDULED sample.
	Create(ctx context.Context, in model.NewSample) (*model.Sample, error)
	// MarkCollected sets COLLECTED on a sample owned by actor.
	MarkCollected(ctx context.Context, actor uuid.UUID, sampleID string) (*model.Sample, error)
	// ReportDelay sets DELAYED and records reason in the notes.
	ReportDelay(ctx context.Context, actor uuid.UUID, sampleID, reason string) (*model.Sample, error)
	// ListToday returns actor's dispatch list for the current UTC day.
	ListToday(ctx context.Context, actor uuid.UUID, pathAgentID string) ([]model.Sample, error)
}

type SampleServiceImpl struct {
	repo  repository.SampleRepository
	guard *Guard
	now   Clock
}

// NewSampleService constructs SampleService. A nil clock means time.Now.
func NewSampleService(repo repository.SampleRepository, clock Clock) *SampleServiceImpl {
	return &SampleServiceImpl{repo: repo, guard: NewGuard(repo), now: orNow(clock)}
}

// Create validates input and stores the sample.
// Validation rules:
// - patient name, pickup address, scheduled date and agent id are required
// - priority is empty (MEDIUM) or one of HIGH/MEDIUM/LOW
func (s *SampleServiceImpl) Create(ctx context.Context, in model.NewSample) (*model.Sample, error) {
	in.PatientName = strings.TrimSpace(in.PatientName)
	in.PickupAddress = strings.TrimSpace(in.PickupAddress)
	if in.PatientName == "" || in.PickupAddress == "" || in.ScheduledDate.IsZero() || in.AgentID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient name, pickup address, scheduled date, and agent ID are required", errs.ErrValidation)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", errs.ErrValidation, in.Priority)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, &model.Sample{
		ID:            id,
		PatientName:   in.PatientName,
		PickupAddress: in.PickupAddress,
		ScheduledDate: model.Day(in.ScheduledDate),
		Priority:      in.Priority,
		Notes:         in.Notes,
		Status:        model.StatusScheduled,
		AgentID:       in.AgentID,
		Ver:           1,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// MarkCollected applies COLLECTED from any current state, including
// COLLECTED and CANCELLED.
func (s *SampleServiceImpl) MarkCollected(ctx context.Context, actor uuid.UUID, sampleID string) (*model.Sample, error) {
	cur, err := s.guard.OwnedSample(ctx, actor, sampleID)
	if err != nil {
		return nil, err
	}
	cur.Status = model.StatusCollected
	cur.UpdatedAt = s.now().UTC()
	return s.repo.UpdateState(ctx, cur)
}

// ReportDelay prepends "DELAY: <reason>" to the notes so the newest delay
// comes first and earlier entries are kept.
func (s *SampleServiceImpl) ReportDelay(ctx context.Context, actor uuid.UUID, sampleID, reason string) (*model.Sample, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: delay reason is required", errs.ErrValidation)
	}
	cur, err := s.guard.OwnedSample(ctx, actor, sampleID)
	if err != nil {
		return nil, err
	}
	cur.Status = model.StatusDelayed
	cur.Notes = prependDelay(cur.Notes, reason)
	cur.UpdatedAt = s.now().UTC()
	return s.repo.UpdateState(ctx, cur)
}

func prependDelay(notes, reason string) string {
	if notes == "" {
		return delayPrefix + reason
	}
	return delayPrefix + reason + "\n" + notes
}

// ListToday checks the path agent against actor and returns the ordered
// dispatch list for today.
func (s *SampleServiceImpl) ListToday(ctx context.Context, actor uuid.UUID, pathAgentID string) ([]model.Sample, error) {
	if err := s.guard.CheckAgentPath(actor, pathAgentID); err != nil {
		return nil, err
	}
	today := model.Day(s.now())
	all, err := s.repo.ListByAgentDay(ctx, actor, today)
	if err != nil {
		return nil, err
	}
	return SelectDispatch(all, actor, today), nil
}
