// Package convert maps domain models to and from the JSON wire format.
package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/and161185/sample-dispatch/internal/errs"
	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/gofrs/uuid/v5"
)

// DateLayout is the wire format of a sample's scheduled date.
const DateLayout = "2006-01-02"

// --- agents ---

// Agent is the public JSON shape of an agent.
type Agent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ToAgent converts the public agent projection.
func ToAgent(a model.AgentPublic) Agent {
	return Agent{ID: a.ID.String(), Name: a.Name, Phone: a.Phone}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// RegisterResponse answers a successful registration.
type RegisterResponse struct {
	Message string `json:"message"`
	Agent   Agent  `json:"agent"`
}

// LoginResponse answers a successful login.
type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Agent     Agent     `json:"agent"`
}

// --- samples ---

// Sample is the JSON shape of a sample.
type Sample struct {
	ID            string    `json:"id"`
	PatientName   string    `json:"patientName"`
	PickupAddress string    `json:"pickupAddress"`
	ScheduledDate string    `json:"scheduledDate"`
	Priority      string    `json:"priority"`
	Notes         string    `json:"notes"`
	Status        string    `json:"status"`
	AgentID       string    `json:"agentId"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Agent         *Agent    `json:"agent,omitempty"`
}

// ToSample converts a domain sample.
func ToSample(s model.Sample) Sample {
	out := Sample{
		ID:            s.ID.String(),
		PatientName:   s.PatientName,
		PickupAddress: s.PickupAddress,
		ScheduledDate: s.ScheduledDate.UTC().Format(DateLayout),
		Priority:      string(s.Priority),
		Notes:         s.Notes,
		Status:        string(s.Status),
		AgentID:       s.AgentID.String(),
		Version:       s.Ver,
		CreatedAt:     s.CreatedAt.UTC(),
		UpdatedAt:     s.UpdatedAt.UTC(),
	}
	if s.Agent != nil {
		a := ToAgent(*s.Agent)
		out.Agent = &a
	}
	return out
}

// ToSamples converts a list; the result is never nil so it encodes as [].
func ToSamples(in []model.Sample) []Sample {
	out := make([]Sample, 0, len(in))
	for _, s := range in {
		out = append(out, ToSample(s))
	}
	return out
}

// SampleResponse wraps a single sample.
type SampleResponse struct {
	Message string `json:"message"`
	Sample  Sample `json:"sample"`
}

// SamplesResponse wraps the dispatch list.
type SamplesResponse struct {
	Message string   `json:"message"`
	Samples []Sample `json:"samples"`
}

// CreateSampleRequest is the body of POST /samples.
type CreateSampleRequest struct {
	PatientName   string `json:"patientName"`
	PickupAddress string `json:"pickupAddress"`
	ScheduledDate string `json:"scheduledDate"`
	Priority      string `json:"priority,omitempty"`
	Notes         string `json:"notes,omitempty"`
	AgentID       string `json:"agentId"`
}

// FromCreateSampleRequest parses wire values. Empty fields are passed through
// as zero values and left for the service to reject; malformed ones fail here.
func FromCreateSampleRequest(in CreateSampleRequest) (model.NewSample, error) {
	out := model.NewSample{
		PatientName:   in.PatientName,
		PickupAddress: in.PickupAddress,
		Priority:      model.Priority(strings.ToUpper(strings.TrimSpace(in.Priority))),
		Notes:         in.Notes,
	}
	if v := strings.TrimSpace(in.ScheduledDate); v != "" {
		d, err := ParseScheduledDate(v)
		if err != nil {
			return model.NewSample{}, err
		}
		out.ScheduledDate = d
	}
	if v := strings.TrimSpace(in.AgentID); v != "" {
		id, err := uuid.FromString(v)
		if err != nil {
			return model.NewSample{}, fmt.Errorf("%w: bad agent ID", errs.ErrValidation)
		}
		out.AgentID = id
	}
	return out, nil
}

// ParseScheduledDate accepts YYYY-MM-DD or RFC 3339 and returns the UTC day.
func ParseScheduledDate(v string) (time.Time, error) {
	if d, err := time.Parse(DateLayout, v); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return model.Day(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: scheduled date must be YYYY-MM-DD or RFC 3339", errs.ErrValidation)
}

// DelayRequest is the body of POST /samples/{id}/report-delay.
type DelayRequest struct {
	Reason string `json:"reason"`
}

// --- misc ---

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
