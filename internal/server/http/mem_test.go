package httpserver

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/sample-dispatch/internal/errs"
	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/and161185/sample-dispatch/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// memStore backs both repositories in memory, joined like the SQL store.
type memStore struct {
	mu      sync.Mutex
	agents  map[uuid.UUID]model.Agent
	samples map[uuid.UUID]model.Sample
}

func newMemStore() *memStore {
	return &memStore{agents: map[uuid.UUID]model.Agent{}, samples: map[uuid.UUID]model.Sample{}}
}

type memAgents struct{ *memStore }
type memSamples struct{ *memStore }

var (
	_ repository.AgentRepository  = memAgents{}
	_ repository.SampleRepository = memSamples{}
)

func (m memAgents) Create(_ context.Context, a *model.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.agents {
		if x.Phone == a.Phone {
			return errs.ErrAlreadyExists
		}
	}
	m.agents[a.ID] = *a
	return nil
}

func (m memAgents) GetByPhone(_ context.Context, phone string) (*model.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agents {
		if a.Phone == phone {
			return &a, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m memSamples) withAgent(s model.Sample) model.Sample {
	if a, ok := m.agents[s.AgentID]; ok {
		p := a.Public()
		s.Agent = &p
	}
	return s
}

func (m memSamples) Create(_ context.Context, s *model.Sample) (*model.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[s.AgentID]; !ok {
		return nil, errs.ErrValidation
	}
	m.samples[s.ID] = *s
	out := m.withAgent(*s)
	return &out, nil
}

func (m memSamples) Get(_ context.Context, id uuid.UUID) (*model.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.samples[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := m.withAgent(s)
	return &out, nil
}

func (m memSamples) ListByAgentDay(_ context.Context, agentID uuid.UUID, day time.Time) ([]model.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Sample{}
	for _, s := range m.samples {
		if s.AgentID == agentID && s.ScheduledDate.Equal(day) {
			out = append(out, m.withAgent(s))
		}
	}
	return out, nil
}

func (m memSamples) UpdateState(_ context.Context, s *model.Sample) (*model.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.samples[s.ID]
	if !ok || cur.Ver != s.Ver {
		return nil, errs.ErrVersionConflict
	}
	cur.Status, cur.Notes, cur.UpdatedAt = s.Status, s.Notes, s.UpdatedAt
	cur.Ver++
	m.samples[s.ID] = cur
	out := m.withAgent(cur)
	return &out, nil
}
