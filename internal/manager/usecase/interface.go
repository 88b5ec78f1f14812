// Package usecase implements the secret manager, the entry point the
// orchestration layer uses to encrypt entity fields, resolve them at run time
// and manage secret lifecycle.
package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	managerDomain "github.com/allisson/secretstore/internal/manager/domain"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
)

// SaveSecretInput stores a raw value for OwnerID, or attaches OwnerID to
// RefID when set.
type SaveSecretInput struct {
	OwnerID string
	Name    string
	Type    secretsDomain.SecretType
	Value   []byte
	RefID   *uuid.UUID
}

// SaveFileInput uploads a file secret.
type SaveFileInput struct {
	OwnerID string
	Name    string
	Content io.Reader
}

// UpdateFileInput re-uploads an existing file secret.
type UpdateFileInput struct {
	ID      uuid.UUID
	Name    string
	Content io.Reader
}

// SecretManager composes the registry, store, audit and transition modules.
// Every call acts within exec.AccountID.
type SecretManager interface {
	// EncryptFields stores every field carrying a value or reference and
	// points it at the resulting secret. Values are zeroed and cleared.
	EncryptFields(ctx context.Context, exec managerDomain.ExecutionContext, e managerDomain.Encryptable) error

	// DecryptFields fills Value for every referenced field, logging one usage
	// entry per field. Callers must zero the values.
	DecryptFields(ctx context.Context, exec managerDomain.ExecutionContext, e managerDomain.Encryptable) error

	// DetachFields removes the entity from the named fields' secrets, or from
	// every field when no name is given, and clears their references.
	DetachFields(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		e managerDomain.Encryptable,
		names ...string,
	) error

	// GetEncryptionDetails returns what a delegate needs to decrypt each
	// referenced field and logs one usage entry per field.
	GetEncryptionDetails(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		e managerDomain.Encryptable,
	) ([]*managerDomain.EncryptionDetail, error)

	SaveSecret(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		input SaveSecretInput,
	) (*secretsDomain.EncryptedSecret, error)
	SaveFile(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		input SaveFileInput,
	) (*secretsDomain.EncryptedSecret, error)
	UpdateFile(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		input UpdateFileInput,
	) (*secretsDomain.EncryptedSecret, error)

	// DeleteSecret detaches ownerID and reports whether the secret was removed.
	DeleteSecret(ctx context.Context, exec managerDomain.ExecutionContext, ownerID string, id uuid.UUID) (bool, error)

	TransitionSecrets(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		from, to secretsDomain.Target,
	) (*transitionDomain.Transition, error)
	GetTransition(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		id uuid.UUID,
	) (*transitionDomain.Transition, error)

	ListEncryptedValues(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		offset, limit int,
	) ([]*managerDomain.EncryptedValue, error)
	GetChangeLogs(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		secretID uuid.UUID,
	) ([]*auditDomain.ChangeLog, error)
	GetUsageLogs(
		ctx context.Context,
		exec managerDomain.ExecutionContext,
		secretID uuid.UUID,
		offset, limit int,
	) ([]*auditDomain.UsageLog, error)
}
