package service

import (
	"testing"
	"time"

	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func TestSelectDispatch_FilterAndOrder(t *testing.T) {
	t.Parallel()

	agent := uuid.Must(uuid.NewV4())
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return day.Add(6*time.Hour + time.Duration(min)*time.Minute) }
	mk := func(name string, p model.Priority, st model.Status, created time.Time) model.Sample {
		return model.Sample{
			ID: uuid.Must(uuid.NewV4()), PatientName: name, Priority: p, Status: st,
			AgentID: agent, ScheduledDate: day, CreatedAt: created,
		}
	}

	in := []model.Sample{
		mk("low-early", model.PriorityLow, model.StatusScheduled, at(0)),
		mk("med-late", model.PriorityMedium, model.StatusDelayed, at(30)),
		mk("high-late", model.PriorityHigh, model.StatusScheduled, at(20)),
		mk("med-early", model.PriorityMedium, model.StatusScheduled, at(10)),
		mk("high-early", model.PriorityHigh, model.StatusDelayed, at(5)),
		mk("collected", model.PriorityHigh, model.StatusCollected, at(1)),
		mk("cancelled", model.PriorityHigh, model.StatusCancelled, at(2)),
	}
	foreign := mk("foreign", model.PriorityHigh, model.StatusScheduled, at(0))
	foreign.AgentID = uuid.Must(uuid.NewV4())
	yesterday := mk("yesterday", model.PriorityHigh, model.StatusScheduled, at(0))
	yesterday.ScheduledDate = day.Add(-24 * time.Hour)
	in = append(in, foreign, yesterday)

	got := SelectDispatch(in, agent, day.Add(13*time.Hour))

	var names []string
	for _, s := range got {
		names = append(names, s.PatientName)
	}
	require.Equal(t, []string{"high-early", "high-late", "med-early", "med-late", "low-early"}, names)

	require.Equal(t, names, func() []string {
		var again []string
		for _, s := range SelectDispatch(in, agent, day) {
			again = append(again, s.PatientName)
		}
		return again
	}())
}

func TestSelectDispatch_DayIsUTC(t *testing.T) {
	t.Parallel()

	agent := uuid.Must(uuid.NewV4())
	s := model.Sample{
		ID: uuid.Must(uuid.NewV4()), AgentID: agent, Status: model.StatusScheduled, Priority: model.PriorityLow,
		ScheduledDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	// 23:30 on Feb 28 in UTC-5 is already March 1 in UTC.
	local := time.Date(2026, 2, 28, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	require.Len(t, SelectDispatch([]model.Sample{s}, agent, local), 1)

	// 00:30 on March 2 in UTC+3 is still March 1 in UTC.
	east := time.Date(2026, 3, 2, 0, 30, 0, 0, time.FixedZone("MSK", 3*3600))
	require.Len(t, SelectDispatch([]model.Sample{s}, agent, east), 1)

	require.Empty(t, SelectDispatch([]model.Sample{s}, agent, time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)))
}

func TestSelectDispatch_EmptyNotNil(t *testing.T) {
	t.Parallel()
	got := SelectDispatch(nil, uuid.Must(uuid.NewV4()), time.Now())
	require.NotNil(t, got)
	require.Empty(t, got)
}
