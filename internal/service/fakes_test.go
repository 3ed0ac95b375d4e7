package service

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/sample-dispatch/internal/errs"
	"github.com/and161185/sample-dispatch/internal/limiter"
	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/and161185/sample-dispatch/internal/repository"
	"github.com/gofrs/uuid/v5"
)

type fakeAgents struct {
	byPhone map[string]*model.Agent

	createErr error
	getErr    error
}

var _ repository.AgentRepository = (*fakeAgents)(nil)

func (f *fakeAgents) Create(_ context.Context, a *model.Agent) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byPhone == nil {
		f.byPhone = map[string]*model.Agent{}
	}
	if _, exists := f.byPhone[a.Phone]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *a
	f.byPhone[a.Phone] = &cpy
	return nil
}

func (f *fakeAgents) GetByPhone(_ context.Context, phone string) (*model.Agent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byPhone[phone]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

// fakeSamples mimics the postgres repo: version-checked updates and owner
// annotation on reads.
type fakeSamples struct {
	mu   sync.Mutex
	byID map[uuid.UUID]model.Sample

	createErr error
	getErr    error
	listErr   error
	updateErr error

	lastListDay time.Time
}

var _ repository.SampleRepository = (*fakeSamples)(nil)

func newFakeSamples() *fakeSamples {
	return &fakeSamples{byID: map[uuid.UUID]model.Sample{}}
}

func (f *fakeSamples) annotate(s model.Sample) *model.Sample {
	s.Agent = &model.AgentPublic{ID: s.AgentID, Name: "agent", Phone: "000"}
	return &s
}

func (f *fakeSamples) put(s model.Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[s.ID] = s
}

func (f *fakeSamples) Create(_ context.Context, s *model.Sample) (*model.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.byID[s.ID] = *s
	return f.annotate(*s), nil
}

func (f *fakeSamples) Get(_ context.Context, id uuid.UUID) (*model.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return f.annotate(s), nil
}

func (f *fakeSamples) ListByAgentDay(_ context.Context, agentID uuid.UUID, day time.Time) ([]model.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastListDay = day
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Sample{}
	for _, s := range f.byID {
		if s.AgentID == agentID && s.ScheduledDate.Equal(day) {
			out = append(out, *f.annotate(s))
		}
	}
	return out, nil
}

func (f *fakeSamples) UpdateState(_ context.Context, s *model.Sample) (*model.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	cur, ok := f.byID[s.ID]
	if !ok || cur.Ver != s.Ver {
		return nil, errs.ErrVersionConflict
	}
	cur.Status = s.Status
	cur.Notes = s.Notes
	cur.UpdatedAt = s.UpdatedAt
	cur.Ver++
	f.byID[s.ID] = cur
	return f.annotate(cur), nil
}

// stepClock is a settable clock.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
