package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
	auditMocks "github.com/allisson/secretstore/internal/audit/usecase/mocks"
	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	cryptoService "github.com/allisson/secretstore/internal/crypto/service"
	cryptoServiceMocks "github.com/allisson/secretstore/internal/crypto/service/mocks"
	databaseMocks "github.com/allisson/secretstore/internal/database/mocks"
	apperrors "github.com/allisson/secretstore/internal/errors"
	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
	kmsconfigMocks "github.com/allisson/secretstore/internal/kmsconfig/usecase/mocks"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	"github.com/allisson/secretstore/internal/secrets/usecase"
	secretsMocks "github.com/allisson/secretstore/internal/secrets/usecase/mocks"
)

var testUser = auditDomain.User{ID: "u-1", Email: "jane@example.com", Name: "Jane"}

type storeDeps struct {
	txManager *databaseMocks.MockTxManager
	repo      *secretsMocks.MockSecretRepository
	configs   *kmsconfigMocks.MockKmsConfigUseCase
	audit     *auditMocks.MockAuditUseCase
	local     *cryptoServiceMocks.EchoProvider
	kms       *cryptoServiceMocks.EchoProvider
	store     usecase.SecretUseCase
}

func newStoreDeps(t *testing.T) *storeDeps {
	d := &storeDeps{
		txManager: databaseMocks.NewMockTxManager(t),
		repo:      secretsMocks.NewMockSecretRepository(t),
		configs:   kmsconfigMocks.NewMockKmsConfigUseCase(t),
		audit:     auditMocks.NewMockAuditUseCase(t),
		local:     &cryptoServiceMocks.EchoProvider{Kind: cryptoDomain.Local},
		kms:       &cryptoServiceMocks.EchoProvider{Kind: cryptoDomain.KMS},
	}
	d.store = usecase.NewSecretUseCase(
		d.txManager,
		d.repo,
		d.configs,
		cryptoService.NewProviderRegistry(d.local, d.kms),
		d.audit,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return d
}

func (d *storeDeps) expectLocalActive(accountID string) {
	d.configs.On("Get", mock.Anything, accountID).Return(nil, nil).Once()
}

func (d *storeDeps) expectKmsConfig(accountID string, cfg *kmsconfigDomain.KmsConfig) {
	d.configs.On("GetByID", mock.Anything, accountID, cfg.ID).Return(cfg, nil).Once()
	d.configs.On("Credentials", mock.Anything, cfg).Return(&cryptoDomain.Credentials{AccessKey: "AKIA"}, nil).Once()
}

func localSecret(accountID string, parents ...string) *secretsDomain.EncryptedSecret {
	now := time.Now().UTC()
	return &secretsDomain.EncryptedSecret{
		ID:             uuid.Must(uuid.NewV7()),
		AccountID:      accountID,
		Name:           "db-password",
		Type:           secretsDomain.SecretText,
		EncryptionType: cryptoDomain.Local,
		Ciphertext:     []byte("LOCAL|s3cr3t"),
		KeyMaterial:    []byte("LOCAL:" + accountID),
		ParentIDs:      parents,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestSecretUseCase_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_NewLocalSecret", func(t *testing.T) {
		d := newStoreDeps(t)
		d.expectLocalActive("acc-1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()

		var created *secretsDomain.EncryptedSecret
		d.repo.On("Create", mock.Anything, mock.MatchedBy(func(s *secretsDomain.EncryptedSecret) bool {
			created = s
			return true
		})).Return(nil).Once()
		d.audit.On("RecordChange", mock.Anything, mock.Anything, "acc-1", testUser, auditDomain.Created).
			Return(nil).Once()

		secret, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E1",
			Name:      "db-password",
			Type:      secretsDomain.SecretText,
			Value:     []byte("s3cr3t"),
			User:      testUser,
		})
		require.NoError(t, err)
		assert.Same(t, created, secret)
		assert.Equal(t, cryptoDomain.Local, secret.EncryptionType)
		assert.Nil(t, secret.KmsID)
		assert.Equal(t, []string{"E1"}, secret.ParentIDs)
		assert.Equal(t, testUser, secret.CreatedBy)
		assert.True(t, secret.Enabled)
		assert.NotEqual(t, []byte("s3cr3t"), secret.Ciphertext)
	})

	t.Run("Success_NewKmsSecret", func(t *testing.T) {
		d := newStoreDeps(t)
		cfg := &kmsconfigDomain.KmsConfig{ID: uuid.Must(uuid.NewV7()), AccountID: "acc-1"}
		d.configs.On("Get", mock.Anything, "acc-1").Return(cfg, nil).Once()
		d.expectKmsConfig("acc-1", cfg)
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("Create", mock.Anything, mock.MatchedBy(func(s *secretsDomain.EncryptedSecret) bool {
			return s.EncryptionType == cryptoDomain.KMS && s.KmsID != nil && *s.KmsID == cfg.ID
		})).Return(nil).Once()
		d.audit.On("RecordChange", mock.Anything, mock.Anything, "acc-1", testUser, auditDomain.Created).
			Return(nil).Once()

		_, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E1",
			Name:      "api-key",
			Type:      secretsDomain.APIKey,
			Value:     []byte("k"),
			User:      testUser,
		})
		require.NoError(t, err)
	})

	t.Run("Success_NilValueStoresNoCiphertext", func(t *testing.T) {
		d := newStoreDeps(t)
		d.expectLocalActive("acc-1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("Create", mock.Anything, mock.MatchedBy(func(s *secretsDomain.EncryptedSecret) bool {
			return s.Ciphertext == nil && s.KeyMaterial != nil
		})).Return(nil).Once()
		d.audit.On("RecordChange", mock.Anything, mock.Anything, "acc-1", testUser, auditDomain.Created).
			Return(nil).Once()

		_, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E1",
			Name:      "empty",
			Type:      secretsDomain.SecretText,
			User:      testUser,
		})
		require.NoError(t, err)
	})

	t.Run("Success_AttachByReference", func(t *testing.T) {
		d := newStoreDeps(t)
		existing := localSecret("acc-1", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, existing.ID).Return(existing, nil).Once()
		d.repo.On("AddParent", mock.Anything, existing.ID, "E2").Return(nil).Once()

		secret, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E2",
			Name:      "db-password",
			Type:      secretsDomain.SecretText,
			RefID:     &existing.ID,
			User:      testUser,
		})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, secret.ID)
		assert.ElementsMatch(t, []string{"E1", "E2"}, secret.ParentIDs)
		d.audit.AssertNotCalled(t, "RecordChange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		d.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Success_AttachSameOwnerTwiceIsNoop", func(t *testing.T) {
		d := newStoreDeps(t)
		existing := localSecret("acc-1", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, existing.ID).Return(existing, nil).Once()

		secret, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E1",
			Name:      "db-password",
			Type:      secretsDomain.SecretText,
			RefID:     &existing.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"E1"}, secret.ParentIDs)
	})

	t.Run("Success_AttachWithDescription", func(t *testing.T) {
		d := newStoreDeps(t)
		existing := localSecret("acc-1", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, existing.ID).Return(existing, nil).Once()
		d.repo.On("AddParent", mock.Anything, existing.ID, "E2").Return(nil).Once()
		d.audit.On("RecordChange", mock.Anything, existing.ID, "acc-1", testUser, auditDomain.ChangedNameAndFile).
			Return(nil).Once()

		_, err := d.store.Put(ctx, usecase.PutInput{
			AccountID:   "acc-1",
			OwnerID:     "E2",
			Name:        "db-password",
			Type:        secretsDomain.SecretText,
			RefID:       &existing.ID,
			User:        testUser,
			Description: auditDomain.ChangedNameAndFile,
		})
		require.NoError(t, err)
		d.repo.AssertNotCalled(t, "UpdateEncryption", mock.Anything, mock.Anything)
	})

	t.Run("Success_AttachWithNewNameRenamesAndLogs", func(t *testing.T) {
		d := newStoreDeps(t)
		existing := localSecret("acc-1", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, existing.ID).Return(existing, nil).Once()
		d.repo.On("AddParent", mock.Anything, existing.ID, "E2").Return(nil).Once()
		d.repo.On("UpdateEncryption", mock.Anything, mock.MatchedBy(func(s *secretsDomain.EncryptedSecret) bool {
			return s.ID == existing.ID && s.Name == "renamed" && string(s.Ciphertext) == "LOCAL|s3cr3t"
		})).Return(nil).Once()
		d.audit.On("RecordChange", mock.Anything, existing.ID, "acc-1", testUser, auditDomain.ChangedNameAndFile).
			Return(nil).Once()

		secret, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E2",
			Name:      "renamed",
			Type:      secretsDomain.SecretText,
			RefID:     &existing.ID,
			User:      testUser,
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed", secret.Name)
	})

	t.Run("Error_ReferenceTypeMismatch", func(t *testing.T) {
		d := newStoreDeps(t)
		existing := localSecret("acc-1", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, existing.ID).Return(existing, nil).Once()

		_, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E2",
			Name:      "db-password",
			Type:      secretsDomain.SSHKey,
			RefID:     &existing.ID,
		})
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})

	t.Run("Error_ReferenceOtherAccount", func(t *testing.T) {
		d := newStoreDeps(t)
		existing := localSecret("acc-2", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, existing.ID).Return(existing, nil).Once()

		_, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E2",
			Name:      "db-password",
			Type:      secretsDomain.SecretText,
			RefID:     &existing.ID,
		})
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Error_InvalidInput", func(t *testing.T) {
		d := newStoreDeps(t)
		_, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			Name:      "x",
			Type:      secretsDomain.SecretType("PASSWORD"),
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.ErrorIs(t, err, secretsDomain.ErrInvalidSecretType)
	})

	t.Run("Error_InvalidActingUserEmail", func(t *testing.T) {
		d := newStoreDeps(t)
		_, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E1",
			Name:      "db-password",
			Type:      secretsDomain.SecretText,
			Value:     []byte("v"),
			User:      auditDomain.User{ID: "u-1", Email: "not-an-email"},
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.NotErrorIs(t, err, secretsDomain.ErrInvalidSecretType)
		d.txManager.AssertNotCalled(t, "WithTx", mock.Anything)
	})

	t.Run("Error_EncryptionFailsBeforeTransaction", func(t *testing.T) {
		d := newStoreDeps(t)
		d.configs.On("Get", mock.Anything, "acc-1").Return(nil, assert.AnError).Once()

		_, err := d.store.Put(ctx, usecase.PutInput{
			AccountID: "acc-1",
			OwnerID:   "E1",
			Name:      "db-password",
			Type:      secretsDomain.SecretText,
			Value:     []byte("v"),
		})
		assert.ErrorIs(t, err, assert.AnError)
		d.txManager.AssertNotCalled(t, "WithTx", mock.Anything)
	})
}

func TestSecretUseCase_Resolve(t *testing.T) {
	ctx := context.Background()
	usage := auditUseCase.UsageContext{AppID: "app", WorkflowExecutionID: "wf", EnvID: "env"}

	t.Run("Success_LocalRecordsUsage", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E1")
		d.repo.On("Get", mock.Anything, secret.ID).Return(secret, nil).Twice()
		d.audit.On("RecordUsage", mock.Anything, secret.ID, "acc-1", usage).Return(nil).Twice()

		for range 2 {
			plaintext, err := d.store.Resolve(ctx, "acc-1", secret.ID, usage)
			require.NoError(t, err)
			assert.Equal(t, []byte("s3cr3t"), plaintext)
		}
	})

	t.Run("Success_KmsUsesRecordConfig", func(t *testing.T) {
		d := newStoreDeps(t)
		cfg := &kmsconfigDomain.KmsConfig{ID: uuid.Must(uuid.NewV7()), AccountID: kmsconfigDomain.GlobalAccountID}
		secret := localSecret("acc-1", "E1")
		secret.EncryptionType = cryptoDomain.KMS
		secret.KmsID = &cfg.ID
		secret.Ciphertext = []byte("KMS|token")
		d.repo.On("Get", mock.Anything, secret.ID).Return(secret, nil).Once()
		d.expectKmsConfig("acc-1", cfg)
		d.audit.On("RecordUsage", mock.Anything, secret.ID, "acc-1", usage).Return(nil).Once()

		plaintext, err := d.store.Resolve(ctx, "acc-1", secret.ID, usage)
		require.NoError(t, err)
		assert.Equal(t, []byte("token"), plaintext)
	})

	t.Run("Success_NilCiphertext", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E1")
		secret.Ciphertext = nil
		d.repo.On("Get", mock.Anything, secret.ID).Return(secret, nil).Once()
		d.audit.On("RecordUsage", mock.Anything, secret.ID, "acc-1", usage).Return(nil).Once()

		plaintext, err := d.store.Resolve(ctx, "acc-1", secret.ID, usage)
		require.NoError(t, err)
		assert.Nil(t, plaintext)
	})

	t.Run("Error_UsageLogFailureHidesPlaintext", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E1")
		d.repo.On("Get", mock.Anything, secret.ID).Return(secret, nil).Once()
		d.audit.On("RecordUsage", mock.Anything, secret.ID, "acc-1", usage).Return(assert.AnError).Once()

		plaintext, err := d.store.Resolve(ctx, "acc-1", secret.ID, usage)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, plaintext)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		d := newStoreDeps(t)
		id := uuid.Must(uuid.NewV7())
		d.repo.On("Get", mock.Anything, id).Return(nil, secretsDomain.ErrSecretNotFound).Once()

		_, err := d.store.Resolve(ctx, "acc-1", id, usage)
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})
}

func TestSecretUseCase_Detach(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_KeepsRecordForRemainingOwners", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E1", "E2")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, secret.ID).Return(secret, nil).Once()
		d.repo.On("RemoveParent", mock.Anything, secret.ID, "E1").Return(nil).Once()

		deleted, err := d.store.Detach(ctx, "acc-1", "E1", secret.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
		d.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Success_LastOwnerDeletes", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E2")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, secret.ID).Return(secret, nil).Once()
		d.repo.On("RemoveParent", mock.Anything, secret.ID, "E2").Return(nil).Once()
		d.repo.On("Delete", mock.Anything, secret.ID).Return(nil).Once()

		deleted, err := d.store.Detach(ctx, "acc-1", "E2", secret.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("Success_UnknownOwnerIsNoop", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, secret.ID).Return(secret, nil).Once()

		deleted, err := d.store.Detach(ctx, "acc-1", "E9", secret.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		d := newStoreDeps(t)
		id := uuid.Must(uuid.NewV7())
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, id).Return(nil, secretsDomain.ErrSecretNotFound).Once()

		_, err := d.store.Detach(ctx, "acc-1", "E1", id)
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})
}

func TestSecretUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_NewValueReplacesReference", func(t *testing.T) {
		d := newStoreDeps(t)
		old := localSecret("acc-1", "E1", "E2")
		d.expectLocalActive("acc-1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, old.ID).Return(old, nil).Once()
		d.repo.On("RemoveParent", mock.Anything, old.ID, "E1").Return(nil).Once()
		d.repo.On("Create", mock.Anything, mock.MatchedBy(func(s *secretsDomain.EncryptedSecret) bool {
			return s.ID != old.ID && len(s.ParentIDs) == 1 && s.ParentIDs[0] == "E1"
		})).Return(nil).Once()
		d.audit.On("RecordChange", mock.Anything, mock.Anything, "acc-1", testUser, auditDomain.ChangedPassword).
			Return(nil).Once()

		secret, err := d.store.Update(ctx, usecase.UpdateInput{
			AccountID: "acc-1",
			OwnerID:   "E1",
			CurrentID: &old.ID,
			Name:      "db-password",
			Type:      secretsDomain.SecretText,
			Value:     []byte("n3w"),
			User:      testUser,
		})
		require.NoError(t, err)
		require.NotNil(t, secret)
		assert.NotEqual(t, old.ID, secret.ID)
	})

	t.Run("Success_RenamedRecordsNameAndFile", func(t *testing.T) {
		d := newStoreDeps(t)
		d.expectLocalActive("acc-1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		d.audit.On("RecordChange", mock.Anything, mock.Anything, "acc-1", testUser, auditDomain.ChangedNameAndFile).
			Return(nil).Once()

		_, err := d.store.Update(ctx, usecase.UpdateInput{
			AccountID: "acc-1",
			OwnerID:   "E1",
			Name:      "new-name.yaml",
			Type:      secretsDomain.ConfigFile,
			Value:     []byte("a: b"),
			Renamed:   true,
			User:      testUser,
		})
		require.NoError(t, err)
	})

	t.Run("Success_NilValueOnlyDetaches", func(t *testing.T) {
		d := newStoreDeps(t)
		old := localSecret("acc-1", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, old.ID).Return(old, nil).Once()
		d.repo.On("RemoveParent", mock.Anything, old.ID, "E1").Return(nil).Once()
		d.repo.On("Delete", mock.Anything, old.ID).Return(nil).Once()

		secret, err := d.store.Update(ctx, usecase.UpdateInput{
			AccountID: "acc-1",
			OwnerID:   "E1",
			CurrentID: &old.ID,
		})
		require.NoError(t, err)
		assert.Nil(t, secret)
	})
}

func TestSecretUseCase_UpdateInPlace(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		newName     string
		description auditDomain.Description
	}{
		{name: "Success_SameNameIsFileUploaded", newName: "db-password", description: auditDomain.FileUploaded},
		{name: "Success_RenameIsNameAndFile", newName: "other.pem", description: auditDomain.ChangedNameAndFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newStoreDeps(t)
			secret := localSecret("acc-1", "E1", "E2")
			secret.Type = secretsDomain.ConfigFile
			d.expectLocalActive("acc-1")
			d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
			d.repo.On("GetForUpdate", mock.Anything, secret.ID).Return(secret, nil).Once()
			d.repo.On("UpdateEncryption", mock.Anything, mock.MatchedBy(func(s *secretsDomain.EncryptedSecret) bool {
				return s.ID == secret.ID && s.Name == tt.newName && string(s.Ciphertext) == "LOCAL|file-v2"
			})).Return(nil).Once()
			d.audit.On("RecordChange", mock.Anything, secret.ID, "acc-1", testUser, tt.description).Return(nil).Once()

			updated, err := d.store.UpdateInPlace(ctx, usecase.UpdateInPlaceInput{
				AccountID: "acc-1",
				ID:        secret.ID,
				Name:      tt.newName,
				Value:     []byte("file-v2"),
				User:      testUser,
			})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"E1", "E2"}, updated.ParentIDs)
		})
	}

	t.Run("Error_NotAConfigFile", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E1")
		d.expectLocalActive("acc-1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, secret.ID).Return(secret, nil).Once()

		_, err := d.store.UpdateInPlace(ctx, usecase.UpdateInPlaceInput{
			AccountID: "acc-1",
			ID:        secret.ID,
			Name:      "db-password",
			Value:     []byte("file-v2"),
			User:      testUser,
		})
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
		d.repo.AssertNotCalled(t, "UpdateEncryption", mock.Anything, mock.Anything)
		d.audit.AssertNotCalled(t, "RecordChange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSecretUseCase_Migrate(t *testing.T) {
	ctx := context.Background()
	cfg := &kmsconfigDomain.KmsConfig{ID: uuid.Must(uuid.NewV7()), AccountID: "acc-1"}
	to := secretsDomain.KMSTarget(cfg.ID)

	t.Run("Success_LocalToKms", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, secret.ID).Return(secret, nil).Once()
		d.expectKmsConfig("acc-1", cfg)
		d.repo.On("UpdateEncryption", mock.Anything, mock.MatchedBy(func(s *secretsDomain.EncryptedSecret) bool {
			return s.EncryptionType == cryptoDomain.KMS && *s.KmsID == cfg.ID && string(s.Ciphertext) == "KMS|s3cr3t"
		})).Return(nil).Once()

		migrated, err := d.store.Migrate(ctx, "acc-1", secret.ID, secretsDomain.LocalTarget(), to)
		require.NoError(t, err)
		assert.True(t, migrated)
	})

	t.Run("Success_AlreadyOnDestinationIsSkipped", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E1")
		secret.EncryptionType = cryptoDomain.KMS
		secret.KmsID = &cfg.ID
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, secret.ID).Return(secret, nil).Once()

		migrated, err := d.store.Migrate(ctx, "acc-1", secret.ID, secretsDomain.LocalTarget(), to)
		require.NoError(t, err)
		assert.False(t, migrated)
	})

	t.Run("Success_NoLongerOnSourceIsSkipped", func(t *testing.T) {
		d := newStoreDeps(t)
		other := uuid.Must(uuid.NewV7())
		secret := localSecret("acc-1", "E1")
		secret.EncryptionType = cryptoDomain.KMS
		secret.KmsID = &other
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, secret.ID).Return(secret, nil).Once()

		migrated, err := d.store.Migrate(ctx, "acc-1", secret.ID, secretsDomain.LocalTarget(), to)
		require.NoError(t, err)
		assert.False(t, migrated)
	})

	t.Run("Success_GoneIsSkipped", func(t *testing.T) {
		d := newStoreDeps(t)
		id := uuid.Must(uuid.NewV7())
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, id).Return(nil, secretsDomain.ErrSecretNotFound).Once()

		migrated, err := d.store.Migrate(ctx, "acc-1", id, secretsDomain.LocalTarget(), to)
		require.NoError(t, err)
		assert.False(t, migrated)
	})

	t.Run("Error_DestinationConfigMissing", func(t *testing.T) {
		d := newStoreDeps(t)
		secret := localSecret("acc-1", "E1")
		d.txManager.On("WithTx", mock.Anything).Return(nil).Once()
		d.repo.On("GetForUpdate", mock.Anything, secret.ID).Return(secret, nil).Once()
		d.configs.On("GetByID", mock.Anything, "acc-1", cfg.ID).Return(nil, kmsconfigDomain.ErrKmsConfigNotFound).Once()

		_, err := d.store.Migrate(ctx, "acc-1", secret.ID, secretsDomain.LocalTarget(), to)
		assert.ErrorIs(t, err, kmsconfigDomain.ErrKmsConfigNotFound)
	})
}

func TestSecretUseCase_ListAndGet(t *testing.T) {
	ctx := context.Background()
	d := newStoreDeps(t)
	secret := localSecret("acc-2", "E1")
	d.repo.On("List", mock.Anything, "acc-1", 0, 50).Return([]*secretsDomain.EncryptedSecret{}, nil).Once()
	d.repo.On("Get", mock.Anything, secret.ID).Return(secret, nil).Once()
	d.configs.On("Get", mock.Anything, "acc-1").Return(nil, nil).Once()

	list, err := d.store.List(ctx, "acc-1", -1, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = d.store.Get(ctx, "acc-1", secret.ID)
	assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)

	target, err := d.store.ActiveTarget(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, secretsDomain.LocalTarget(), target)
}
