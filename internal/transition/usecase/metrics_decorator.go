package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/secretstore/internal/metrics"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
)

// migratorWithMetrics decorates SecretMigrator with metrics instrumentation.
type migratorWithMetrics struct {
	next    SecretMigrator
	metrics metrics.BusinessMetrics
}

// NewMigratorWithMetrics wraps the migrator the worker drives. Units whose
// secret needed no work are recorded with status "skipped".
func NewMigratorWithMetrics(migrator SecretMigrator, m metrics.BusinessMetrics) SecretMigrator {
	return &migratorWithMetrics{
		next:    migrator,
		metrics: m,
	}
}

func (s *migratorWithMetrics) Migrate(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
	from, to secretsDomain.Target,
) (bool, error) {
	start := time.Now()
	migrated, err := s.next.Migrate(ctx, accountID, id, from, to)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case !migrated:
		status = "skipped"
	}

	s.metrics.RecordOperation(ctx, "transition", "secret_migrate", status)
	s.metrics.RecordDuration(ctx, "transition", "secret_migrate", time.Since(start), status)

	return migrated, err
}
