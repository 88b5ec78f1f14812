package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/secretstore/internal/database"
	apperrors "github.com/allisson/secretstore/internal/errors"
	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
)

const postgresKmsConfigColumns = `id, account_id, name, access_key, secret_key_ciphertext, secret_key_material,
			  kms_arn_ciphertext, kms_arn_material, region, is_default, created_at, updated_at`

// PostgreSQLKmsConfigRepository implements KmsConfig persistence for PostgreSQL databases.
type PostgreSQLKmsConfigRepository struct {
	db *sql.DB
}

// Create inserts a new config.
func (p *PostgreSQLKmsConfigRepository) Create(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO kms_configs (` + postgresKmsConfigColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := querier.ExecContext(
		ctx,
		query,
		cfg.ID,
		cfg.AccountID,
		cfg.Name,
		cfg.AccessKey,
		cfg.SecretKey.Ciphertext,
		cfg.SecretKey.KeyMaterial,
		cfg.KmsArn.Ciphertext,
		cfg.KmsArn.KeyMaterial,
		cfg.Region,
		cfg.IsDefault,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "failed to create kms config")
	}
	return nil
}

// Update overwrites every mutable column and refreshes updated_at.
func (p *PostgreSQLKmsConfigRepository) Update(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE kms_configs
			  SET name = $1, access_key = $2, secret_key_ciphertext = $3, secret_key_material = $4,
			      kms_arn_ciphertext = $5, kms_arn_material = $6, region = $7, is_default = $8, updated_at = $9
			  WHERE id = $10`

	cfg.UpdatedAt = time.Now().UTC()
	result, err := querier.ExecContext(
		ctx,
		query,
		cfg.Name,
		cfg.AccessKey,
		cfg.SecretKey.Ciphertext,
		cfg.SecretKey.KeyMaterial,
		cfg.KmsArn.Ciphertext,
		cfg.KmsArn.KeyMaterial,
		cfg.Region,
		cfg.IsDefault,
		cfg.UpdatedAt,
		cfg.ID,
	)
	if err != nil {
		return mapWriteError(err, "failed to update kms config")
	}
	return requireAffected(result, "failed to update kms config")
}

// Get retrieves a config by ID.
func (p *PostgreSQLKmsConfigRepository) Get(ctx context.Context, id uuid.UUID) (*kmsconfigDomain.KmsConfig, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresKmsConfigColumns + ` FROM kms_configs WHERE id = $1`

	cfg, err := scanPostgresKmsConfig(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kmsconfigDomain.ErrKmsConfigNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get kms config")
	}
	return cfg, nil
}

// GetDefault retrieves the default config of an account.
func (p *PostgreSQLKmsConfigRepository) GetDefault(
	ctx context.Context,
	accountID string,
) (*kmsconfigDomain.KmsConfig, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresKmsConfigColumns + `
			  FROM kms_configs WHERE account_id = $1 AND is_default
			  LIMIT 1`

	cfg, err := scanPostgresKmsConfig(querier.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kmsconfigDomain.ErrKmsConfigNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get default kms config")
	}
	return cfg, nil
}

// ListByAccount retrieves the account's configs newest first.
func (p *PostgreSQLKmsConfigRepository) ListByAccount(
	ctx context.Context,
	accountID string,
) ([]*kmsconfigDomain.KmsConfig, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresKmsConfigColumns + `
			  FROM kms_configs WHERE account_id = $1
			  ORDER BY created_at DESC, id DESC`

	rows, err := querier.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list kms configs")
	}
	defer func() {
		_ = rows.Close()
	}()

	configs := make([]*kmsconfigDomain.KmsConfig, 0)
	for rows.Next() {
		cfg, err := scanPostgresKmsConfig(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan kms config")
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate kms configs")
	}
	return configs, nil
}

// LockAccount takes row locks on the account's configs. An account without
// configs locks nothing, so the one-default index still guards first saves.
func (p *PostgreSQLKmsConfigRepository) LockAccount(ctx context.Context, accountID string) error {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id FROM kms_configs WHERE account_id = $1 FOR UPDATE`

	rows, err := querier.QueryContext(ctx, query, accountID)
	if err != nil {
		return apperrors.Wrap(err, "failed to lock kms configs")
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		// drain so every row is locked
	}
	if err := rows.Err(); err != nil {
		return apperrors.Wrap(err, "failed to lock kms configs")
	}
	return nil
}

// ClearDefault unsets the account's default flag.
func (p *PostgreSQLKmsConfigRepository) ClearDefault(ctx context.Context, accountID string) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE kms_configs SET is_default = FALSE, updated_at = $1
			  WHERE account_id = $2 AND is_default`

	if _, err := querier.ExecContext(ctx, query, time.Now().UTC(), accountID); err != nil {
		return apperrors.Wrap(err, "failed to clear default kms config")
	}
	return nil
}

// SetDefault flags one config as its account's default.
func (p *PostgreSQLKmsConfigRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE kms_configs SET is_default = TRUE, updated_at = $1 WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return mapWriteError(err, "failed to set default kms config")
	}
	return requireAffected(result, "failed to set default kms config")
}

// Delete removes a config. A secret still referencing it yields ErrConfigInUse.
func (p *PostgreSQLKmsConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM kms_configs WHERE id = $1`, id)
	if err != nil {
		return mapDeleteError(err)
	}
	return requireAffected(result, "failed to delete kms config")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresKmsConfig(row rowScanner) (*kmsconfigDomain.KmsConfig, error) {
	var cfg kmsconfigDomain.KmsConfig
	err := row.Scan(
		&cfg.ID,
		&cfg.AccountID,
		&cfg.Name,
		&cfg.AccessKey,
		&cfg.SecretKey.Ciphertext,
		&cfg.SecretKey.KeyMaterial,
		&cfg.KmsArn.Ciphertext,
		&cfg.KmsArn.KeyMaterial,
		&cfg.Region,
		&cfg.IsDefault,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func requireAffected(result sql.Result, message string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, message)
	}
	if affected == 0 {
		return kmsconfigDomain.ErrKmsConfigNotFound
	}
	return nil
}

// NewPostgreSQLKmsConfigRepository creates a new PostgreSQL KmsConfig repository instance.
func NewPostgreSQLKmsConfigRepository(db *sql.DB) *PostgreSQLKmsConfigRepository {
	return &PostgreSQLKmsConfigRepository{db: db}
}
