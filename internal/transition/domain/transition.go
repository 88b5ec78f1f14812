// Package domain defines bulk re-encryption requests and their queued units.
package domain

import (
	"time"

	"github.com/google/uuid"

	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
)

// Status is the lifecycle state of a transition.
type Status string

const (
	StatusEnqueued   Status = "enqueued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further unit will change s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// UnitStatus is the state of one queued migration unit.
type UnitStatus string

const (
	UnitPending   UnitStatus = "pending"
	UnitCompleted UnitStatus = "completed"
	UnitFailed    UnitStatus = "failed"
)

// UnitCounts tallies a transition's units by status.
type UnitCounts struct {
	Pending   int
	Completed int
	Failed    int
}

// Status derives the transition status from unit counts. A transition stays
// open until every unit has completed or used up its retries.
func (c UnitCounts) Status() Status {
	switch {
	case c.Pending > 0 && c.Completed+c.Failed == 0:
		return StatusEnqueued
	case c.Pending > 0:
		return StatusInProgress
	case c.Failed > 0:
		return StatusFailed
	default:
		return StatusCompleted
	}
}

// Transition is a request to move every secret of an account from one
// encryption target to another.
type Transition struct {
	ID          uuid.UUID
	AccountID   string
	From        secretsDomain.Target
	To          secretsDomain.Target
	Status      Status
	TotalUnits  int
	RequestedBy string
	// Counts is filled on reads.
	Counts    UnitCounts
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MigrationUnit re-encrypts one secret. Rows of this type are the durable
// queue drained by the worker.
type MigrationUnit struct {
	ID           uuid.UUID
	TransitionID uuid.UUID
	SecretID     uuid.UUID
	AccountID    string
	From         secretsDomain.Target
	To           secretsDomain.Target
	Status       UnitStatus
	Retries      int
	LastError    *string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}
