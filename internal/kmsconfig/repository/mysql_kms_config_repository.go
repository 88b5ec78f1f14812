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

const mysqlKmsConfigColumns = `id, account_id, name, access_key, secret_key_ciphertext, secret_key_material,
			  kms_arn_ciphertext, kms_arn_material, region, is_default, created_at, updated_at`

// MySQLKmsConfigRepository implements KmsConfig persistence for MySQL databases.
type MySQLKmsConfigRepository struct {
	db *sql.DB
}

// Create inserts a new config.
func (m *MySQLKmsConfigRepository) Create(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO kms_configs (` + mysqlKmsConfigColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := cfg.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal kms config id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLKmsConfigRepository) Update(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE kms_configs
			  SET name = ?, access_key = ?, secret_key_ciphertext = ?, secret_key_material = ?,
			      kms_arn_ciphertext = ?, kms_arn_material = ?, region = ?, is_default = ?, updated_at = ?
			  WHERE id = ?`

	id, err := cfg.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal kms config id")
	}

	cfg.UpdatedAt = time.Now().UTC()
	_, err = querier.ExecContext(
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
		id,
	)
	if err != nil {
		return mapWriteError(err, "failed to update kms config")
	}
	// MySQL reports zero affected rows for unchanged values, so existence is
	// checked by the caller's prior Get.
	return nil
}

// Get retrieves a config by ID.
func (m *MySQLKmsConfigRepository) Get(ctx context.Context, id uuid.UUID) (*kmsconfigDomain.KmsConfig, error) {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal kms config id")
	}

	query := `SELECT ` + mysqlKmsConfigColumns + ` FROM kms_configs WHERE id = ?`

	cfg, err := scanMySQLKmsConfig(querier.QueryRowContext(ctx, query, rawID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kmsconfigDomain.ErrKmsConfigNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get kms config")
	}
	return cfg, nil
}

// GetDefault retrieves the default config of an account.
func (m *MySQLKmsConfigRepository) GetDefault(
	ctx context.Context,
	accountID string,
) (*kmsconfigDomain.KmsConfig, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlKmsConfigColumns + `
			  FROM kms_configs WHERE account_id = ? AND is_default = TRUE
			  LIMIT 1`

	cfg, err := scanMySQLKmsConfig(querier.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kmsconfigDomain.ErrKmsConfigNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get default kms config")
	}
	return cfg, nil
}

// ListByAccount retrieves the account's configs newest first.
func (m *MySQLKmsConfigRepository) ListByAccount(
	ctx context.Context,
	accountID string,
) ([]*kmsconfigDomain.KmsConfig, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlKmsConfigColumns + `
			  FROM kms_configs WHERE account_id = ?
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
		cfg, err := scanMySQLKmsConfig(rows)
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

// LockAccount takes row locks on the account's configs.
func (m *MySQLKmsConfigRepository) LockAccount(ctx context.Context, accountID string) error {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, `SELECT id FROM kms_configs WHERE account_id = ? FOR UPDATE`, accountID)
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
func (m *MySQLKmsConfigRepository) ClearDefault(ctx context.Context, accountID string) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE kms_configs SET is_default = FALSE, updated_at = ?
			  WHERE account_id = ? AND is_default = TRUE`

	if _, err := querier.ExecContext(ctx, query, time.Now().UTC(), accountID); err != nil {
		return apperrors.Wrap(err, "failed to clear default kms config")
	}
	return nil
}

// SetDefault flags one config as its account's default.
func (m *MySQLKmsConfigRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal kms config id")
	}

	query := `UPDATE kms_configs SET is_default = TRUE, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, time.Now().UTC(), rawID)
	if err != nil {
		return mapWriteError(err, "failed to set default kms config")
	}
	return requireAffected(result, "failed to set default kms config")
}

// Delete removes a config. A secret still referencing it yields ErrConfigInUse.
func (m *MySQLKmsConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal kms config id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM kms_configs WHERE id = ?`, rawID)
	if err != nil {
		return mapDeleteError(err)
	}
	return requireAffected(result, "failed to delete kms config")
}

func scanMySQLKmsConfig(row rowScanner) (*kmsconfigDomain.KmsConfig, error) {
	var cfg kmsconfigDomain.KmsConfig
	var id []byte
	err := row.Scan(
		&id,
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
	if err := cfg.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal kms config id")
	}
	return &cfg, nil
}

// NewMySQLKmsConfigRepository creates a new MySQL KmsConfig repository instance.
func NewMySQLKmsConfigRepository(db *sql.DB) *MySQLKmsConfigRepository {
	return &MySQLKmsConfigRepository{db: db}
}
