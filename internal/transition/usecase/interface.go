// Package usecase implements the transition coordinator and the background
// worker that drains its queue of migration units.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
)

// Config holds worker settings.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// TransitionRepository persists transitions and the unit queue.
type TransitionRepository interface {
	Create(ctx context.Context, transition *transitionDomain.Transition) error
	// Get returns the header with unit counts filled.
	Get(ctx context.Context, id uuid.UUID) (*transitionDomain.Transition, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status transitionDomain.Status) error
	CreateUnits(ctx context.Context, units []*transitionDomain.MigrationUnit) error
	// ClaimPendingUnits locks up to limit pending units, skipping rows other
	// transactions hold.
	ClaimPendingUnits(ctx context.Context, limit int) ([]*transitionDomain.MigrationUnit, error)
	UpdateUnit(ctx context.Context, unit *transitionDomain.MigrationUnit) error
	// CountByKmsID counts pending units moving secrets from or to a config.
	CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error)
}

// SecretLister enumerates the secrets a transition covers.
type SecretLister interface {
	ListIDsByTarget(ctx context.Context, accountID string, target secretsDomain.Target) ([]uuid.UUID, error)
}

// ConfigLookup resolves a KMS config in account scope.
type ConfigLookup interface {
	GetByID(ctx context.Context, accountID string, id uuid.UUID) (*kmsconfigDomain.KmsConfig, error)
}

// SecretMigrator re-encrypts one secret.
type SecretMigrator interface {
	Migrate(ctx context.Context, accountID string, id uuid.UUID, from, to secretsDomain.Target) (bool, error)
}

// StartInput requests moving every secret of AccountID from From to To.
type StartInput struct {
	AccountID   string
	From        secretsDomain.Target
	To          secretsDomain.Target
	RequestedBy string
}

// TransitionUseCase is the transition coordinator.
type TransitionUseCase interface {
	// Start enqueues one unit per secret currently on From and returns
	// without waiting for the worker.
	Start(ctx context.Context, input StartInput) (*transitionDomain.Transition, error)
	Get(ctx context.Context, accountID string, id uuid.UUID) (*transitionDomain.Transition, error)
}

// Worker drains the unit queue.
type Worker interface {
	Start(ctx context.Context) error
	// ProcessBatch handles up to the configured batch size of units and
	// reports how many it took.
	ProcessBatch(ctx context.Context) (int, error)
}
