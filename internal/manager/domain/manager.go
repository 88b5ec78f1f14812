// Package domain defines the caller-facing types of the secret manager:
// the execution context every call carries and the Encryptable capability of
// entities whose fields are externalized into encrypted secrets.
package domain

import (
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
)

// ExecutionContext identifies who is acting and where. Audit entries are
// attributed from it.
type ExecutionContext struct {
	AccountID           string
	AppID               string
	WorkflowExecutionID string
	EnvID               string
	User                auditDomain.User
}

// Encryptable is an entity with fields whose plaintext must never be stored
// on the entity itself.
type Encryptable interface {
	EncryptableID() string
	AccountID() string
	EncryptedFields() []*EncryptableField
}

// EncryptableField is one sensitive field of an Encryptable.
//
// SecretRef is the secret the field points at. Value carries plaintext only
// transiently: a non-nil Value on save is encrypted and then cleared, and a
// nil Value with a SecretRef attaches the entity to that secret.
type EncryptableField struct {
	Name       string
	SecretType secretsDomain.SecretType
	Value      []byte
	SecretRef  *uuid.UUID
	// Renamed marks a value change that came with a rename.
	Renamed bool
}

// EncryptionDetail is what a delegate needs to decrypt one field itself.
type EncryptionDetail struct {
	FieldName string
	Secret    *secretsDomain.EncryptedSecret
	// Config and Credentials are nil for LOCAL secrets.
	Config      *kmsconfigDomain.KmsConfig
	Credentials *cryptoDomain.Credentials
}

// EncryptedValue is an inventory entry: secret metadata without key material.
type EncryptedValue struct {
	ID             uuid.UUID
	Name           string
	Type           secretsDomain.SecretType
	EncryptionType cryptoDomain.EncryptionType
	KmsID          *uuid.UUID
	KmsName        string
	CreatedBy      auditDomain.User
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
