// Package repository persists change and usage logs in PostgreSQL or MySQL.
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

// PostgreSQLChangeLogRepository implements ChangeLog persistence for PostgreSQL.
type PostgreSQLChangeLogRepository struct {
	db *sql.DB
}

// Create appends a change log entry.
func (p *PostgreSQLChangeLogRepository) Create(ctx context.Context, entry *auditDomain.ChangeLog) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO change_logs (id, secret_id, account_id, user_id, user_email, user_name, description, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.SecretID,
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
func (p *PostgreSQLChangeLogRepository) ListBySecret(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
) ([]*auditDomain.ChangeLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret_id, account_id, user_id, user_email, user_name, description, created_at
			  FROM change_logs
			  WHERE account_id = $1 AND secret_id = $2
			  ORDER BY created_at DESC, id DESC`

	rows, err := querier.QueryContext(ctx, query, accountID, secretID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list change logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.ChangeLog, 0)
	for rows.Next() {
		var entry auditDomain.ChangeLog
		var description string
		err := rows.Scan(
			&entry.ID,
			&entry.SecretID,
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
		entry.Description = auditDomain.Description(description)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate change logs")
	}
	return entries, nil
}

// NewPostgreSQLChangeLogRepository creates a new PostgreSQL ChangeLog repository.
func NewPostgreSQLChangeLogRepository(db *sql.DB) *PostgreSQLChangeLogRepository {
	return &PostgreSQLChangeLogRepository{db: db}
}

// PostgreSQLUsageLogRepository implements UsageLog persistence for PostgreSQL.
type PostgreSQLUsageLogRepository struct {
	db *sql.DB
}

// Create appends a usage log entry.
func (p *PostgreSQLUsageLogRepository) Create(ctx context.Context, entry *auditDomain.UsageLog) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO usage_logs (id, secret_id, account_id, app_id, workflow_execution_id, env_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.SecretID,
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
func (p *PostgreSQLUsageLogRepository) ListBySecret(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
	offset, limit int,
) ([]*auditDomain.UsageLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret_id, account_id, app_id, workflow_execution_id, env_id, created_at
			  FROM usage_logs
			  WHERE account_id = $1 AND secret_id = $2
			  ORDER BY created_at DESC, id DESC
			  LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, accountID, secretID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list usage logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.UsageLog, 0)
	for rows.Next() {
		var entry auditDomain.UsageLog
		err := rows.Scan(
			&entry.ID,
			&entry.SecretID,
			&entry.AccountID,
			&entry.AppID,
			&entry.WorkflowExecutionID,
			&entry.EnvID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan usage log")
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
func (p *PostgreSQLUsageLogRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_logs WHERE created_at < $1`, olderThan).
			Scan(&count)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count usage logs")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM usage_logs WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete usage logs")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows count")
	}
	return count, nil
}

// NewPostgreSQLUsageLogRepository creates a new PostgreSQL UsageLog repository.
func NewPostgreSQLUsageLogRepository(db *sql.DB) *PostgreSQLUsageLogRepository {
	return &PostgreSQLUsageLogRepository{db: db}
}
