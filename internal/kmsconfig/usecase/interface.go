// Package usecase implements the KMS config registry: validated saves,
// default resolution with global fallback, masked listings and guarded deletes.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
)

// KmsConfigRepository persists configs.
type KmsConfigRepository interface {
	Create(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) error
	Update(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) error
	Get(ctx context.Context, id uuid.UUID) (*kmsconfigDomain.KmsConfig, error)
	// GetDefault returns ErrKmsConfigNotFound when the account has no default.
	GetDefault(ctx context.Context, accountID string) (*kmsconfigDomain.KmsConfig, error)
	// ListByAccount returns the account's configs newest first.
	ListByAccount(ctx context.Context, accountID string) ([]*kmsconfigDomain.KmsConfig, error)
	// LockAccount row-locks the account's configs until the transaction ends.
	LockAccount(ctx context.Context, accountID string) error
	ClearDefault(ctx context.Context, accountID string) error
	SetDefault(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UsageCounter counts records that still depend on a config.
type UsageCounter interface {
	CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error)
}

// SaveInput carries a create (ID nil) or update request. For updates an empty
// or masked SecretKey/KmsArn keeps the stored value.
type SaveInput struct {
	ID        *uuid.UUID
	AccountID string
	Name      string
	AccessKey string
	SecretKey string
	KmsArn    string
	Region    string
	IsDefault bool
}

// KmsConfigUseCase is the config registry.
type KmsConfigUseCase interface {
	// Save validates the credentials with a live round trip, then persists.
	Save(ctx context.Context, input SaveInput) (*kmsconfigDomain.KmsConfigView, error)

	// Get returns the config encryption should use for accountID: the
	// account default, else the global default, else nil for LOCAL.
	Get(ctx context.Context, accountID string) (*kmsconfigDomain.KmsConfig, error)

	// GetByID returns a config owned by accountID or by the global account.
	GetByID(ctx context.Context, accountID string, id uuid.UUID) (*kmsconfigDomain.KmsConfig, error)

	// Credentials unseals the secret parts of cfg.
	Credentials(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) (*cryptoDomain.Credentials, error)

	// List returns masked configs; with includeGlobal the global default is
	// merged in. Exactly one entry is flagged default when any exists.
	List(ctx context.Context, accountID string, includeGlobal bool) ([]*kmsconfigDomain.KmsConfigView, error)

	// Delete fails with ErrConfigInUse while anything references the config.
	Delete(ctx context.Context, accountID string, id uuid.UUID) error
}
