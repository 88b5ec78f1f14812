// Package domain defines the append-only audit records kept for every
// encrypted secret: who changed it and who resolved it.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Description is the closed set of change log reasons.
type Description string

const (
	Created            Description = "Created"
	ChangedPassword    Description = "Changed password"
	ChangedNameAndFile Description = "Changed Name and File"
	FileUploaded       Description = "File uploaded"
)

// Valid reports whether d is one of the known descriptions.
func (d Description) Valid() bool {
	switch d {
	case Created, ChangedPassword, ChangedNameAndFile, FileUploaded:
		return true
	}
	return false
}

// User identifies the actor a change is attributed to.
type User struct {
	ID    string
	Email string
	Name  string
}

// ChangeLog records one modification of a secret.
type ChangeLog struct {
	ID          uuid.UUID
	SecretID    uuid.UUID
	AccountID   string
	User        User
	Description Description
	CreatedAt   time.Time
}

// UsageLog records one decrypt-context resolution of a secret.
type UsageLog struct {
	ID                  uuid.UUID
	SecretID            uuid.UUID
	AccountID           string
	AppID               string
	WorkflowExecutionID string
	EnvID               string
	CreatedAt           time.Time
}
