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

// MySQLSecretRepository implements EncryptedSecret persistence for MySQL databases.
// UUIDs are stored as BINARY(16).
type MySQLSecretRepository struct {
	db *sql.DB
}

// Create inserts the secret and its parent rows.
func (m *MySQLSecretRepository) Create(ctx context.Context, secret *secretsDomain.EncryptedSecret) error {
	querier := database.GetTx(ctx, m.db)

	id, err := secret.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}
	kmsID, err := marshalNullableID(secret.KmsID)
	if err != nil {
		return err
	}

	query := `INSERT INTO encrypted_secrets (` + secretColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		secret.AccountID,
		secret.Name,
		string(secret.Type),
		string(secret.EncryptionType),
		kmsID,
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
		if err := m.AddParent(ctx, secret.ID, parentID); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a secret with its parent IDs.
func (m *MySQLSecretRepository) Get(ctx context.Context, id uuid.UUID) (*secretsDomain.EncryptedSecret, error) {
	return m.get(ctx, id, false)
}

// GetForUpdate retrieves a secret and locks its row until the transaction ends.
func (m *MySQLSecretRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*secretsDomain.EncryptedSecret, error) {
	return m.get(ctx, id, true)
}

func (m *MySQLSecretRepository) get(
	ctx context.Context,
	id uuid.UUID,
	forUpdate bool,
) (*secretsDomain.EncryptedSecret, error) {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `SELECT ` + secretColumns + ` FROM encrypted_secrets WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	secret, err := scanMySQLSecret(querier.QueryRowContext(ctx, query, rawID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, secretsDomain.ErrSecretNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get secret")
	}

	rows, err := querier.QueryContext(
		ctx,
		`SELECT parent_id FROM encrypted_secret_parents WHERE secret_id = ? ORDER BY created_at, parent_id`,
		rawID,
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
func (m *MySQLSecretRepository) UpdateEncryption(
	ctx context.Context,
	secret *secretsDomain.EncryptedSecret,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := secret.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}
	kmsID, err := marshalNullableID(secret.KmsID)
	if err != nil {
		return err
	}

	query := `UPDATE encrypted_secrets
			  SET name = ?, encryption_type = ?, kms_id = ?, ciphertext = ?, key_material = ?, updated_at = ?
			  WHERE id = ?`

	secret.UpdatedAt = time.Now().UTC()
	_, err = querier.ExecContext(
		ctx,
		query,
		secret.Name,
		string(secret.EncryptionType),
		kmsID,
		secret.Ciphertext,
		secret.KeyMaterial,
		secret.UpdatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update secret")
	}
	// Callers hold the row lock from GetForUpdate, so the row exists.
	return nil
}

// Delete removes a secret. Parent rows cascade.
func (m *MySQLSecretRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM encrypted_secrets WHERE id = ?`, rawID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete secret")
	}
	return requireAffected(result, "failed to delete secret")
}

// AddParent attaches parentID to the secret, ignoring duplicates.
func (m *MySQLSecretRepository) AddParent(ctx context.Context, id uuid.UUID, parentID string) error {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `INSERT IGNORE INTO encrypted_secret_parents (secret_id, parent_id, created_at) VALUES (?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, rawID, parentID, time.Now().UTC()); err != nil {
		return apperrors.Wrap(err, "failed to add secret parent")
	}
	return nil
}

// RemoveParent detaches parentID from the secret.
func (m *MySQLSecretRepository) RemoveParent(ctx context.Context, id uuid.UUID, parentID string) error {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `DELETE FROM encrypted_secret_parents WHERE secret_id = ? AND parent_id = ?`

	if _, err := querier.ExecContext(ctx, query, rawID, parentID); err != nil {
		return apperrors.Wrap(err, "failed to remove secret parent")
	}
	return nil
}

// List returns a page of the account's secrets newest first, without parent IDs.
func (m *MySQLSecretRepository) List(
	ctx context.Context,
	accountID string,
	offset, limit int,
) ([]*secretsDomain.EncryptedSecret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + secretColumns + `
			  FROM encrypted_secrets
			  WHERE account_id = ?
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	defer func() {
		_ = rows.Close()
	}()

	secrets := make([]*secretsDomain.EncryptedSecret, 0)
	for rows.Next() {
		secret, err := scanMySQLSecret(rows)
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
func (m *MySQLSecretRepository) ListIDsByTarget(
	ctx context.Context,
	accountID string,
	target secretsDomain.Target,
) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id FROM encrypted_secrets WHERE account_id = ? AND encryption_type = ?`
	args := []any{accountID, string(target.Type)}
	if target.KmsID == nil {
		query += ` AND kms_id IS NULL`
	} else {
		rawKmsID, err := target.KmsID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal kms config id")
		}
		query += ` AND kms_id = ?`
		args = append(args, rawKmsID)
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
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret id")
		}
		var id uuid.UUID
		if err := id.UnmarshalBinary(raw); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal secret id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate secret ids")
	}
	return ids, nil
}

// CountByKmsID counts the secrets encrypted by a KMS config.
func (m *MySQLSecretRepository) CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	rawKmsID, err := kmsID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal kms config id")
	}

	var count int64
	err = querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM encrypted_secrets WHERE kms_id = ?`, rawKmsID).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count secrets by kms config")
	}
	return count, nil
}

func scanMySQLSecret(row rowScanner) (*secretsDomain.EncryptedSecret, error) {
	var secret secretsDomain.EncryptedSecret
	var id, kmsID []byte
	var secretType, encryptionType string
	err := row.Scan(
		&id,
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
	if err := secret.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal secret id")
	}
	if kmsID != nil {
		var parsed uuid.UUID
		if err := parsed.UnmarshalBinary(kmsID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal kms config id")
		}
		secret.KmsID = &parsed
	}
	secret.Type = secretsDomain.SecretType(secretType)
	secret.EncryptionType = cryptoDomain.EncryptionType(encryptionType)
	return &secret, nil
}

// marshalNullableID returns nil for a nil id so the column is written as NULL.
func marshalNullableID(id *uuid.UUID) (any, error) {
	if id == nil {
		return nil, nil
	}
	raw, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal kms config id")
	}
	return raw, nil
}

// NewMySQLSecretRepository creates a new MySQL EncryptedSecret repository instance.
func NewMySQLSecretRepository(db *sql.DB) *MySQLSecretRepository {
	return &MySQLSecretRepository{db: db}
}
