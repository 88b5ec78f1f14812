// Package repository implements persistence for encrypted secrets and their
// owner lists on PostgreSQL and MySQL.
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
)

const secretColumns = `id, account_id, name, secret_type, encryption_type, kms_id, ciphertext, key_material,
			  enabled, created_by_id, created_by_email, created_by_name, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgreSQLSecretRepository implements EncryptedSecret persistence for PostgreSQL databases.
type PostgreSQLSecretRepository struct {
	db *sql.DB
}

// Create inserts the secret and its parent rows.
func (p *PostgreSQLSecretRepository) Create(ctx context.Context, secret *secretsDomain.EncryptedSecret) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO encrypted_secrets (` + secretColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.ID,
		secret.AccountID,
		secret.Name,
		string(secret.Type),
		string(secret.EncryptionType),
		secret.KmsID,
		secret.Ciphertext,
		secret.KeyMaterial,
		secret.Enabled,
		secret.CreatedBy.ID,
		secret.CreatedBy.Email,
		secret.CreatedBy.Name,
		secret.CreatedAt,
		secret.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create secret")
	}

	for _, parentID := range secret.ParentIDs {
		if err := p.AddParent(ctx, secret.ID, parentID); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a secret with its parent IDs.
func (p *PostgreSQLSecretRepository) Get(ctx context.Context, id uuid.UUID) (*secretsDomain.EncryptedSecret, error) {
	return p.get(ctx, id, false)
}

// GetForUpdate retrieves a secret and locks its row until the transaction ends.
func (p *PostgreSQLSecretRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*secretsDomain.EncryptedSecret, error) {
	return p.get(ctx, id, true)
}

func (p *PostgreSQLSecretRepository) get(
	ctx context.Context,
	id uuid.UUID,
	forUpdate bool,
) (*secretsDomain.EncryptedSecret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + secretColumns + ` FROM encrypted_secrets WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	secret, err := scanPostgresSecret(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, secretsDomain.ErrSecretNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get secret")
	}

	rows, err := querier.QueryContext(
		ctx,
		`SELECT parent_id FROM encrypted_secret_parents WHERE secret_id = $1 ORDER BY created_at, parent_id`,
		id,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get secret parents")
	}
	defer func() {
		_ = rows.Close()
	}()

	secret.ParentIDs = make([]string, 0)
	for rows.Next() {
		var parentID string
		if err := rows.Scan(&parentID); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret parent")
		}
		secret.ParentIDs = append(secret.ParentIDs, parentID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate secret parents")
	}
	return secret, nil
}

// UpdateEncryption rewrites the name and encryption columns.
func (p *PostgreSQLSecretRepository) UpdateEncryption(
	ctx context.Context,
	secret *secretsDomain.EncryptedSecret,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE encrypted_secrets
			  SET name = $1, encryption_type = $2, kms_id = $3, ciphertext = $4, key_material = $5, updated_at = $6
			  WHERE id = $7`

	secret.UpdatedAt = time.Now().UTC()
	result, err := querier.ExecContext(
		ctx,
		query,
		secret.Name,
		string(secret.EncryptionType),
		secret.KmsID,
		secret.Ciphertext,
		secret.KeyMaterial,
		secret.UpdatedAt,
		secret.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update secret")
	}
	return requireAffected(result, "failed to update secret")
}

// Delete removes a secret. Parent rows cascade.
func (p *PostgreSQLSecretRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM encrypted_secrets WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete secret")
	}
	return requireAffected(result, "failed to delete secret")
}

// AddParent attaches parentID to the secret, ignoring duplicates.
func (p *PostgreSQLSecretRepository) AddParent(ctx context.Context, id uuid.UUID, parentID string) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO encrypted_secret_parents (secret_id, parent_id, created_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (secret_id, parent_id) DO NOTHING`

	if _, err := querier.ExecContext(ctx, query, id, parentID, time.Now().UTC()); err != nil {
		return apperrors.Wrap(err, "failed to add secret parent")
	}
	return nil
}

// RemoveParent detaches parentID from the secret.
func (p *PostgreSQLSecretRepository) RemoveParent(ctx context.Context, id uuid.UUID, parentID string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM encrypted_secret_parents WHERE secret_id = $1 AND parent_id = $2`

	if _, err := querier.ExecContext(ctx, query, id, parentID); err != nil {
		return apperrors.Wrap(err, "failed to remove secret parent")
	}
	return nil
}

// List returns a page of the account's secrets newest first, without parent IDs.
func (p *PostgreSQLSecretRepository) List(
	ctx context.Context,
	accountID string,
	offset, limit int,
) ([]*secretsDomain.EncryptedSecret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + secretColumns + `
			  FROM encrypted_secrets
			  WHERE account_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	defer func() {
		_ = rows.Close()
	}()

	secrets := make([]*secretsDomain.EncryptedSecret, 0)
	for rows.Next() {
		secret, err := scanPostgresSecret(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret")
		}
		secrets = append(secrets, secret)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate secrets")
	}
	return secrets, nil
}

// ListIDsByTarget returns the IDs of the account's secrets encrypted by target.
func (p *PostgreSQLSecretRepository) ListIDsByTarget(
	ctx context.Context,
	accountID string,
	target secretsDomain.Target,
) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id FROM encrypted_secrets WHERE account_id = $1 AND encryption_type = $2`
	args := []any{accountID, string(target.Type)}
	if target.KmsID == nil {
		query += ` AND kms_id IS NULL`
	} else {
		query += ` AND kms_id = $3`
		args = append(args, *target.KmsID)
	}
	query += ` ORDER BY id`

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secret ids")
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate secret ids")
	}
	return ids, nil
}

// CountByKmsID counts the secrets encrypted by a KMS config.
func (p *PostgreSQLSecretRepository) CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM encrypted_secrets WHERE kms_id = $1`, kmsID).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count secrets by kms config")
	}
	return count, nil
}

func scanPostgresSecret(row rowScanner) (*secretsDomain.EncryptedSecret, error) {
	var secret secretsDomain.EncryptedSecret
	var secretType, encryptionType string
	var kmsID uuid.NullUUID
	err := row.Scan(
		&secret.ID,
		&secret.AccountID,
		&secret.Name,
		&secretType,
		&encryptionType,
		&kmsID,
		&secret.Ciphertext,
		&secret.KeyMaterial,
		&secret.Enabled,
		&secret.CreatedBy.ID,
		&secret.CreatedBy.Email,
		&secret.CreatedBy.Name,
		&secret.CreatedAt,
		&secret.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	secret.Type = secretsDomain.SecretType(secretType)
	secret.EncryptionType = cryptoDomain.EncryptionType(encryptionType)
	if kmsID.Valid {
		secret.KmsID = &kmsID.UUID
	}
	return &secret, nil
}

func requireAffected(result sql.Result, msg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, msg)
	}
	if affected == 0 {
		return secretsDomain.ErrSecretNotFound
	}
	return nil
}

// NewPostgreSQLSecretRepository creates a new PostgreSQL EncryptedSecret repository instance.
func NewPostgreSQLSecretRepository(db *sql.DB) *PostgreSQLSecretRepository {
	return &PostgreSQLSecretRepository{db: db}
}
