// Package usecase implements the secret store: dedup-aware puts, resolution
// with usage logging, reference-counted detach and in-place re-encryption.
package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
)

// SecretRepository persists secrets and their parent IDs.
type SecretRepository interface {
	// Create inserts the record and one parent row per ParentIDs entry.
	Create(ctx context.Context, secret *secretsDomain.EncryptedSecret) error
	Get(ctx context.Context, id uuid.UUID) (*secretsDomain.EncryptedSecret, error)
	// GetForUpdate is Get with the secret row locked until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*secretsDomain.EncryptedSecret, error)
	// UpdateEncryption rewrites name, encryption fields and updated_at.
	UpdateEncryption(ctx context.Context, secret *secretsDomain.EncryptedSecret) error
	Delete(ctx context.Context, id uuid.UUID) error
	// AddParent is a no-op when the parent is already attached.
	AddParent(ctx context.Context, id uuid.UUID, parentID string) error
	RemoveParent(ctx context.Context, id uuid.UUID, parentID string) error
	// List returns a page of the account's secrets without parent IDs.
	List(ctx context.Context, accountID string, offset, limit int) ([]*secretsDomain.EncryptedSecret, error)
	ListIDsByTarget(ctx context.Context, accountID string, target secretsDomain.Target) ([]uuid.UUID, error)
	CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error)
}

// ConfigResolver is the part of the config registry the store needs.
type ConfigResolver interface {
	Get(ctx context.Context, accountID string) (*kmsconfigDomain.KmsConfig, error)
	GetByID(ctx context.Context, accountID string, id uuid.UUID) (*kmsconfigDomain.KmsConfig, error)
	Credentials(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) (*cryptoDomain.Credentials, error)
}

// AuditRecorder appends audit entries.
type AuditRecorder interface {
	RecordChange(
		ctx context.Context,
		secretID uuid.UUID,
		accountID string,
		user auditDomain.User,
		description auditDomain.Description,
	) error
	RecordUsage(ctx context.Context, secretID uuid.UUID, accountID string, usage auditUseCase.UsageContext) error
}

// PutInput stores a value for OwnerID. With RefID the owner is attached to
// the existing secret instead and Value is ignored.
type PutInput struct {
	AccountID string
	OwnerID   string
	Name      string
	Type      secretsDomain.SecretType
	Value     []byte
	RefID     *uuid.UUID
	User      auditDomain.User
	// Description overrides "Created" for new records. On attach it is
	// recorded when set; a changed Name renames the shared record and is
	// logged as "Changed Name and File" unless Description says otherwise.
	Description auditDomain.Description
}

// UpdateInput replaces the value an owner references. CurrentID is the
// secret the owner holds today, if any; a nil Value only detaches it.
type UpdateInput struct {
	AccountID string
	OwnerID   string
	CurrentID *uuid.UUID
	Name      string
	Type      secretsDomain.SecretType
	Value     []byte
	Renamed   bool
	User      auditDomain.User
}

// UpdateInPlaceInput re-uploads the value of an existing secret, keeping its
// ID and owners.
type UpdateInPlaceInput struct {
	AccountID string
	ID        uuid.UUID
	Name      string
	Value     []byte
	User      auditDomain.User
}

// SecretUseCase is the secret store.
type SecretUseCase interface {
	Put(ctx context.Context, input PutInput) (*secretsDomain.EncryptedSecret, error)

	// Resolve decrypts the secret and appends a usage entry before returning.
	// The plaintext is nil when a nil value was stored. Callers must zero it.
	Resolve(
		ctx context.Context,
		accountID string,
		id uuid.UUID,
		usage auditUseCase.UsageContext,
	) ([]byte, error)

	// Detach removes ownerID and deletes the secret when no owner remains.
	// It reports whether the secret was deleted.
	Detach(ctx context.Context, accountID, ownerID string, id uuid.UUID) (bool, error)

	Update(ctx context.Context, input UpdateInput) (*secretsDomain.EncryptedSecret, error)
	UpdateInPlace(ctx context.Context, input UpdateInPlaceInput) (*secretsDomain.EncryptedSecret, error)

	Get(ctx context.Context, accountID string, id uuid.UUID) (*secretsDomain.EncryptedSecret, error)
	List(ctx context.Context, accountID string, offset, limit int) ([]*secretsDomain.EncryptedSecret, error)

	// ActiveTarget is the backend new values for accountID are encrypted with.
	ActiveTarget(ctx context.Context, accountID string) (secretsDomain.Target, error)

	// Migrate re-encrypts one secret from one backend to another. It reports
	// false without writing when the secret is gone, already on to, or no
	// longer on from.
	Migrate(ctx context.Context, accountID string, id uuid.UUID, from, to secretsDomain.Target) (bool, error)
}
