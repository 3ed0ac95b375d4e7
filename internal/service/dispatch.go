package service

import (
	"sort"
	"time"

	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SelectDispatch returns the agent's worklist for day: samples owned by
// agentID, scheduled on that calendar day (UTC) and still active, ordered
// HIGH > MEDIUM > LOW and then by creation time, earliest first.
// The result is never nil.
func SelectDispatch(samples []model.Sample, agentID uuid.UUID, day time.Time) []model.Sample {
	day = model.Day(day)
	out := make([]model.Sample, 0, len(samples))
	for _, s := range samples {
		if s.AgentID != agentID || !s.Status.Active() {
			continue
		}
		if !model.Day(s.ScheduledDate).Equal(day) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
