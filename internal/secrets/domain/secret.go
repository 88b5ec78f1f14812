// Package domain defines the reference-counted encrypted secret record.
// One record holds one distinct secret value; every entity referencing it is
// listed in ParentIDs, and the record is removed when the last one detaches.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

// SecretType is the kind of owning attribute a secret backs.
type SecretType string

const (
	SecretText    SecretType = "SECRET_TEXT"
	ConfigFile    SecretType = "CONFIG_FILE"
	SSHKey        SecretType = "SSH_KEY"
	APIKey        SecretType = "API_KEY"
	CloudProvider SecretType = "CLOUD_PROVIDER"
)

// Valid reports whether t is a known secret type.
func (t SecretType) Valid() bool {
	switch t {
	case SecretText, ConfigFile, SSHKey, APIKey, CloudProvider:
		return true
	}
	return false
}

// EncryptedSecret is the persisted form of one secret value.
type EncryptedSecret struct {
	ID             uuid.UUID
	AccountID      string
	Name           string
	Type           SecretType
	EncryptionType cryptoDomain.EncryptionType
	// KmsID is set only for KMS encryption.
	KmsID *uuid.UUID
	// Ciphertext is nil when the stored plaintext was nil.
	Ciphertext  []byte
	KeyMaterial []byte
	ParentIDs   []string
	Enabled     bool
	CreatedBy   auditDomain.User
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Envelope returns the encrypted payload of s.
func (s *EncryptedSecret) Envelope() *cryptoDomain.Envelope {
	return &cryptoDomain.Envelope{Ciphertext: s.Ciphertext, KeyMaterial: s.KeyMaterial}
}

// HasParent reports whether ownerID references s.
func (s *EncryptedSecret) HasParent(ownerID string) bool {
	return slices.Contains(s.ParentIDs, ownerID)
}

// EncryptedWith reports whether s is currently encrypted by target.
func (s *EncryptedSecret) EncryptedWith(target Target) bool {
	if s.EncryptionType != target.Type {
		return false
	}
	if s.KmsID == nil || target.KmsID == nil {
		return s.KmsID == nil && target.KmsID == nil
	}
	return *s.KmsID == *target.KmsID
}

// Target names an encryption backend: LOCAL, or KMS with a config ID.
type Target struct {
	Type  cryptoDomain.EncryptionType
	KmsID *uuid.UUID
}

// LocalTarget is the target used when no KMS config applies.
func LocalTarget() Target {
	return Target{Type: cryptoDomain.Local}
}

// KMSTarget is the target for a KMS config.
func KMSTarget(kmsID uuid.UUID) Target {
	return Target{Type: cryptoDomain.KMS, KmsID: &kmsID}
}

// Equal reports whether t and other select the same backend.
func (t Target) Equal(other Target) bool {
	s := EncryptedSecret{EncryptionType: t.Type, KmsID: t.KmsID}
	return s.EncryptedWith(other)
}

// String renders t for logs.
func (t Target) String() string {
	if t.KmsID == nil {
		return string(t.Type)
	}
	return string(t.Type) + ":" + t.KmsID.String()
}
