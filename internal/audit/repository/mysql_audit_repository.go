package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	"github.com/allisson/secretstore/internal/database"
	apperrors "github.com/allisson/secretstore/internal/errors"
)

// MySQLChangeLogRepository implements ChangeLog persistence for MySQL.
type MySQLChangeLogRepository struct {
	db *sql.DB
}

// Create appends a change log entry.
func (m *MySQLChangeLogRepository) Create(ctx context.Context, entry *auditDomain.ChangeLog) error {
	querier := database.GetTx(ctx, m.db)

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal change log id")
	}
	secretID, err := entry.SecretID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `INSERT INTO change_logs (id, secret_id, account_id, user_id, user_email, user_name, description, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		secretID,
		entry.AccountID,
		entry.User.ID,
		entry.User.Email,
		entry.User.Name,
		string(entry.Description),
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create change log")
	}
	return nil
}

// ListBySecret returns the secret's change log newest first.
func (m *MySQLChangeLogRepository) ListBySecret(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
) ([]*auditDomain.ChangeLog, error) {
	querier := database.GetTx(ctx, m.db)

	rawSecretID, err := secretID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `SELECT id, secret_id, account_id, user_id, user_email, user_name, description, created_at
			  FROM change_logs
			  WHERE account_id = ? AND secret_id = ?
			  ORDER BY created_at DESC, id DESC`

	rows, err := querier.QueryContext(ctx, query, accountID, rawSecretID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list change logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.ChangeLog, 0)
	for rows.Next() {
		var entry auditDomain.ChangeLog
		var id, entrySecretID []byte
		var description string
		err := rows.Scan(
			&id,
			&entrySecretID,
			&entry.AccountID,
			&entry.User.ID,
			&entry.User.Email,
			&entry.User.Name,
			&description,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan change log")
		}
		if err := entry.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal change log id")
		}
		if err := entry.SecretID.UnmarshalBinary(entrySecretID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal secret id")
		}
		entry.Description = auditDomain.Description(description)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate change logs")
	}
	return entries, nil
}

// NewMySQLChangeLogRepository creates a new MySQL ChangeLog repository.
func NewMySQLChangeLogRepository(db *sql.DB) *MySQLChangeLogRepository {
	return &MySQLChangeLogRepository{db: db}
}

// MySQLUsageLogRepository implements UsageLog persistence for MySQL.
type MySQLUsageLogRepository struct {
	db *sql.DB
}

// Create appends a usage log entry.
func (m *MySQLUsageLogRepository) Create(ctx context.Context, entry *auditDomain.UsageLog) error {
	querier := database.GetTx(ctx, m.db)

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal usage log id")
	}
	secretID, err := entry.SecretID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `INSERT INTO usage_logs (id, secret_id, account_id, app_id, workflow_execution_id, env_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		secretID,
		entry.AccountID,
		entry.AppID,
		entry.WorkflowExecutionID,
		entry.EnvID,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create usage log")
	}
	return nil
}

// ListBySecret returns a page of the secret's usage log newest first.
func (m *MySQLUsageLogRepository) ListBySecret(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
	offset, limit int,
) ([]*auditDomain.UsageLog, error) {
	querier := database.GetTx(ctx, m.db)

	rawSecretID, err := secretID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `SELECT id, secret_id, account_id, app_id, workflow_execution_id, env_id, created_at
			  FROM usage_logs
			  WHERE account_id = ? AND secret_id = ?
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, accountID, rawSecretID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list usage logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.UsageLog, 0)
	for rows.Next() {
		var entry auditDomain.UsageLog
		var id, entrySecretID []byte
		err := rows.Scan(
			&id,
			&entrySecretID,
			&entry.AccountID,
			&entry.AppID,
			&entry.WorkflowExecutionID,
			&entry.EnvID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan usage log")
		}
		if err := entry.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal usage log id")
		}
		if err := entry.SecretID.UnmarshalBinary(entrySecretID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal secret id")
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate usage logs")
	}
	return entries, nil
}

// DeleteOlderThan removes usage logs created before olderThan. With dryRun it
// only counts them.
func (m *MySQLUsageLogRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	if dryRun {
		var count int64
		err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_logs WHERE created_at < ?`, olderThan).
			Scan(&count)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count usage logs")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM usage_logs WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete usage logs")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows count")
	}
	return count, nil
}

// NewMySQLUsageLogRepository creates a new MySQL UsageLog repository.
func NewMySQLUsageLogRepository(db *sql.DB) *MySQLUsageLogRepository {
	return &MySQLUsageLogRepository{db: db}
}
