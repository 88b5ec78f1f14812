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

// MySQLTransitionRepository implements transition persistence for MySQL databases.
// UUIDs are stored as BINARY(16).
type MySQLTransitionRepository struct {
	db *sql.DB
}

// Create inserts a transition header.
func (m *MySQLTransitionRepository) Create(
	ctx context.Context,
	transition *transitionDomain.Transition,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := transition.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal transition id")
	}

	query := `INSERT INTO secret_transitions (` + transitionColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		transition.AccountID,
		string(transition.From.Type),
		nullableID(transition.From.KmsID),
		string(transition.To.Type),
		nullableID(transition.To.KmsID),
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
func (m *MySQLTransitionRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*transitionDomain.Transition, error) {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal transition id")
	}

	query := `SELECT ` + transitionColumns + `,
			  (SELECT COUNT(*) FROM secret_migrations m WHERE m.transition_id = t.id AND m.status = 'pending'),
			  (SELECT COUNT(*) FROM secret_migrations m WHERE m.transition_id = t.id AND m.status = 'completed'),
			  (SELECT COUNT(*) FROM secret_migrations m WHERE m.transition_id = t.id AND m.status = 'failed')
			  FROM secret_transitions t WHERE t.id = ?`

	var transition transitionDomain.Transition
	var rawTransitionID, fromKmsID, toKmsID []byte
	var fromType, toType, status string
	err = querier.QueryRowContext(ctx, query, rawID).Scan(
		&rawTransitionID,
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

	if err := transition.ID.UnmarshalBinary(rawTransitionID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal transition id")
	}
	if transition.From, err = mysqlTarget(fromType, fromKmsID); err != nil {
		return nil, err
	}
	if transition.To, err = mysqlTarget(toType, toKmsID); err != nil {
		return nil, err
	}
	transition.Status = transitionDomain.Status(status)
	return &transition, nil
}

// UpdateStatus sets the header status.
func (m *MySQLTransitionRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status transitionDomain.Status,
) error {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal transition id")
	}

	query := `UPDATE secret_transitions SET status = ?, updated_at = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, string(status), time.Now().UTC(), rawID); err != nil {
		return apperrors.Wrap(err, "failed to update transition status")
	}
	return nil
}

// CreateUnits enqueues migration units.
func (m *MySQLTransitionRepository) CreateUnits(
	ctx context.Context,
	units []*transitionDomain.MigrationUnit,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO secret_migrations (` + unitColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, unit := range units {
		id, err := unit.ID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal migration unit id")
		}
		transitionID, err := unit.TransitionID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal transition id")
		}
		secretID, err := unit.SecretID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal secret id")
		}

		_, err = querier.ExecContext(
			ctx,
			query,
			id,
			transitionID,
			secretID,
			unit.AccountID,
			string(unit.From.Type),
			nullableID(unit.From.KmsID),
			string(unit.To.Type),
			nullableID(unit.To.KmsID),
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
func (m *MySQLTransitionRepository) ClaimPendingUnits(
	ctx context.Context,
	limit int,
) ([]*transitionDomain.MigrationUnit, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + unitColumns + `
			  FROM secret_migrations
			  WHERE status = ?
			  ORDER BY retries ASC, created_at ASC, id ASC
			  LIMIT ?
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
		unit, err := scanMySQLUnit(rows)
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
func (m *MySQLTransitionRepository) UpdateUnit(
	ctx context.Context,
	unit *transitionDomain.MigrationUnit,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := unit.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal migration unit id")
	}

	query := `UPDATE secret_migrations
			  SET status = ?, retries = ?, last_error = ?, processed_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, string(unit.Status), unit.Retries, unit.LastError, unit.ProcessedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update migration unit")
	}
	return nil
}

// CountByKmsID counts pending units moving secrets from or to a config.
func (m *MySQLTransitionRepository) CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	rawKmsID, err := kmsID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal kms config id")
	}

	query := `SELECT COUNT(*) FROM secret_migrations
			  WHERE status = ? AND (from_kms_id = ? OR to_kms_id = ?)`

	var count int64
	err = querier.QueryRowContext(ctx, query, string(transitionDomain.UnitPending), rawKmsID, rawKmsID).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count migration units by kms config")
	}
	return count, nil
}

func scanMySQLUnit(row rowScanner) (*transitionDomain.MigrationUnit, error) {
	var unit transitionDomain.MigrationUnit
	var id, transitionID, secretID, fromKmsID, toKmsID []byte
	var fromType, toType, status string
	err := row.Scan(
		&id,
		&transitionID,
		&secretID,
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

	if err := unit.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal migration unit id")
	}
	if err := unit.TransitionID.UnmarshalBinary(transitionID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal transition id")
	}
	if err := unit.SecretID.UnmarshalBinary(secretID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal secret id")
	}
	if unit.From, err = mysqlTarget(fromType, fromKmsID); err != nil {
		return nil, err
	}
	if unit.To, err = mysqlTarget(toType, toKmsID); err != nil {
		return nil, err
	}
	unit.Status = transitionDomain.UnitStatus(status)
	return &unit, nil
}

func mysqlTarget(encryptionType string, rawKmsID []byte) (secretsDomain.Target, error) {
	target := secretsDomain.Target{Type: cryptoDomain.EncryptionType(encryptionType)}
	if rawKmsID == nil {
		return target, nil
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(rawKmsID); err != nil {
		return secretsDomain.Target{}, apperrors.Wrap(err, "failed to unmarshal kms config id")
	}
	target.KmsID = &id
	return target, nil
}

// nullableID returns the BINARY(16) form of id, or nil for NULL.
func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	raw, _ := id.MarshalBinary()
	return raw
}

// NewMySQLTransitionRepository creates a new MySQL transition repository instance.
func NewMySQLTransitionRepository(db *sql.DB) *MySQLTransitionRepository {
	return &MySQLTransitionRepository{db: db}
}
