// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Priority ranks a pickup within an agent's daily dispatch list.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities: higher rank is dispatched first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Status is the lifecycle state of a sample.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCollected Status = "COLLECTED"
	StatusDelayed   Status = "DELAYED"
	StatusCancelled Status = "CANCELLED"
)

// Active reports whether a sample in this state still needs a visit.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusDelayed
}

// Tokens describes an issued session token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Agent is a field worker account. The password is never stored in plaintext.
type Agent struct {
	ID           uuid.UUID // PK
	Name         string
	Phone        string // unique login handle
	PasswordHash string // encoded argon2id digest
	CreatedAt    time.Time
}

// Public returns the fields of the agent that may leave the server.
func (a Agent) Public() AgentPublic {
	return AgentPublic{ID: a.ID, Name: a.Name, Phone: a.Phone}
}

// AgentPublic is the agent projection embedded in API responses.
type AgentPublic struct {
	ID    uuid.UUID
	Name  string
	Phone string
}

// Sample is a pickup task owned by a single agent.
type Sample struct {
	ID            uuid.UUID
	PatientName   string
	PickupAddress string
	ScheduledDate time.Time // UTC midnight
	Priority      Priority
	Notes         string
	Status        Status
	AgentID       uuid.UUID // FK -> agents.id, immutable
	Ver           int64     // optimistic concurrency token (>= 1)
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Agent *AgentPublic // owner annotation, filled on reads
}

// NewSample is the input for creating a sample.
type NewSample struct {
	PatientName   string
	PickupAddress string
	ScheduledDate time.Time
	Priority      Priority // empty means MEDIUM
	Notes         string
	AgentID       uuid.UUID
}

// Day truncates t to midnight UTC of its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
