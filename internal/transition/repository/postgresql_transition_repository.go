// Package repository persists transitions and the migration unit queue on
// PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	"github.com/allisson/secretstore/internal/database"
	apperrors "github.com/allisson/secretstore/internal/errors"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
)

const transitionColumns = `id, account_id, from_type, from_kms_id, to_type, to_kms_id, status, total_units,
			  requested_by, created_at, updated_at`

const unitColumns = `id, transition_id, secret_id, account_id, from_type, from_kms_id, to_type, to_kms_id,
			  status, retries, last_error, created_at, processed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgreSQLTransitionRepository implements transition persistence for PostgreSQL databases.
type PostgreSQLTransitionRepository struct {
	db *sql.DB
}

// Create inserts a transition header.
func (p *PostgreSQLTransitionRepository) Create(
	ctx context.Context,
	transition *transitionDomain.Transition,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO secret_transitions (` + transitionColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		transition.ID,
		transition.AccountID,
		string(transition.From.Type),
		transition.From.KmsID,
		string(transition.To.Type),
		transition.To.KmsID,
		string(transition.Status),
		transition.TotalUnits,
		transition.RequestedBy,
		transition.CreatedAt,
		transition.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create transition")
	}
	return nil
}

// Get retrieves a transition header with its unit counts.
func (p *PostgreSQLTransitionRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*transitionDomain.Transition, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + transitionColumns + `,
			  (SELECT COUNT(*) FROM secret_migrations m WHERE m.transition_id = t.id AND m.status = 'pending'),
			  (SELECT COUNT(*) FROM secret_migrations m WHERE m.transition_id = t.id AND m.status = 'completed'),
			  (SELECT COUNT(*) FROM secret_migrations m WHERE m.transition_id = t.id AND m.status = 'failed')
			  FROM secret_transitions t WHERE t.id = $1`

	var transition transitionDomain.Transition
	var fromType, toType, status string
	var fromKmsID, toKmsID uuid.NullUUID
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&transition.ID,
		&transition.AccountID,
		&fromType,
		&fromKmsID,
		&toType,
		&toKmsID,
		&status,
		&transition.TotalUnits,
		&transition.RequestedBy,
		&transition.CreatedAt,
		&transition.UpdatedAt,
		&transition.Counts.Pending,
		&transition.Counts.Completed,
		&transition.Counts.Failed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transitionDomain.ErrTransitionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get transition")
	}

	transition.From = postgresTarget(fromType, fromKmsID)
	transition.To = postgresTarget(toType, toKmsID)
	transition.Status = transitionDomain.Status(status)
	return &transition, nil
}

// UpdateStatus sets the header status.
func (p *PostgreSQLTransitionRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status transitionDomain.Status,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secret_transitions SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update transition status")
	}
	return requireAffected(result, "failed to update transition status")
}

// CreateUnits enqueues migration units.
func (p *PostgreSQLTransitionRepository) CreateUnits(
	ctx context.Context,
	units []*transitionDomain.MigrationUnit,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO secret_migrations (` + unitColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	for _, unit := range units {
		_, err := querier.ExecContext(
			ctx,
			query,
			unit.ID,
			unit.TransitionID,
			unit.SecretID,
			unit.AccountID,
			string(unit.From.Type),
			unit.From.KmsID,
			string(unit.To.Type),
			unit.To.KmsID,
			string(unit.Status),
			unit.Retries,
			unit.LastError,
			unit.CreatedAt,
			unit.ProcessedAt,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create migration unit")
		}
	}
	return nil
}

// ClaimPendingUnits locks pending units, least retried first.
func (p *PostgreSQLTransitionRepository) ClaimPendingUnits(
	ctx context.Context,
	limit int,
) ([]*transitionDomain.MigrationUnit, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + unitColumns + `
			  FROM secret_migrations
			  WHERE status = $1
			  ORDER BY retries ASC, created_at ASC, id ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, string(transitionDomain.UnitPending), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to claim migration units")
	}
	defer func() {
		_ = rows.Close()
	}()

	units := make([]*transitionDomain.MigrationUnit, 0)
	for rows.Next() {
		unit, err := scanPostgresUnit(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan migration unit")
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate migration units")
	}
	return units, nil
}

// UpdateUnit records the outcome of an attempt.
func (p *PostgreSQLTransitionRepository) UpdateUnit(
	ctx context.Context,
	unit *transitionDomain.MigrationUnit,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secret_migrations
			  SET status = $1, retries = $2, last_error = $3, processed_at = $4
			  WHERE id = $5`

	_, err := querier.ExecContext(
		ctx,
		query,
		string(unit.Status),
		unit.Retries,
		unit.LastError,
		unit.ProcessedAt,
		unit.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update migration unit")
	}
	return nil
}

// CountByKmsID counts pending units moving secrets from or to a config.
func (p *PostgreSQLTransitionRepository) CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM secret_migrations
			  WHERE status = $1 AND (from_kms_id = $2 OR to_kms_id = $2)`

	var count int64
	err := querier.QueryRowContext(ctx, query, string(transitionDomain.UnitPending), kmsID).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count migration units by kms config")
	}
	return count, nil
}

func scanPostgresUnit(row rowScanner) (*transitionDomain.MigrationUnit, error) {
	var unit transitionDomain.MigrationUnit
	var fromType, toType, status string
	var fromKmsID, toKmsID uuid.NullUUID
	err := row.Scan(
		&unit.ID,
		&unit.TransitionID,
		&unit.SecretID,
		&unit.AccountID,
		&fromType,
		&fromKmsID,
		&toType,
		&toKmsID,
		&status,
		&unit.Retries,
		&unit.LastError,
		&unit.CreatedAt,
		&unit.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	unit.From = postgresTarget(fromType, fromKmsID)
	unit.To = postgresTarget(toType, toKmsID)
	unit.Status = transitionDomain.UnitStatus(status)
	return &unit, nil
}

func postgresTarget(encryptionType string, kmsID uuid.NullUUID) secretsDomain.Target {
	target := secretsDomain.Target{Type: cryptoDomain.EncryptionType(encryptionType)}
	if kmsID.Valid {
		id := kmsID.UUID
		target.KmsID = &id
	}
	return target
}

func requireAffected(result sql.Result, msg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, msg)
	}
	if affected == 0 {
		return transitionDomain.ErrTransitionNotFound
	}
	return nil
}

// NewPostgreSQLTransitionRepository creates a new PostgreSQL transition repository instance.
func NewPostgreSQLTransitionRepository(db *sql.DB) *PostgreSQLTransitionRepository {
	return &PostgreSQLTransitionRepository{db: db}
}
