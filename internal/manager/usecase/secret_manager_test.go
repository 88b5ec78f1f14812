package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
	auditMocks "github.com/allisson/secretstore/internal/audit/usecase/mocks"
	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	apperrors "github.com/allisson/secretstore/internal/errors"
	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
	kmsconfigMocks "github.com/allisson/secretstore/internal/kmsconfig/usecase/mocks"
	managerDomain "github.com/allisson/secretstore/internal/manager/domain"
	managerUseCase "github.com/allisson/secretstore/internal/manager/usecase"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	secretsUseCase "github.com/allisson/secretstore/internal/secrets/usecase"
	secretsMocks "github.com/allisson/secretstore/internal/secrets/usecase/mocks"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
	transitionUseCase "github.com/allisson/secretstore/internal/transition/usecase"
	transitionMocks "github.com/allisson/secretstore/internal/transition/usecase/mocks"
)

const account = "acc-1"

type connector struct {
	id      string
	account string
	fields  []*managerDomain.EncryptableField
}

func (c *connector) EncryptableID() string { return c.id }
func (c *connector) AccountID() string { return c.account }
func (c *connector) EncryptedFields() []*managerDomain.EncryptableField { return c.fields }

type managerDeps struct {
	secrets     *secretsMocks.MockSecretUseCase
	configs     *kmsconfigMocks.MockKmsConfigUseCase
	audit       *auditMocks.MockAuditUseCase
	transitions *transitionMocks.MockTransitionUseCase
	manager     managerUseCase.SecretManager
}

func newManager(t *testing.T) *managerDeps {
	t.Helper()
	d := &managerDeps{
		secrets:     secretsMocks.NewMockSecretUseCase(t),
		configs:     kmsconfigMocks.NewMockKmsConfigUseCase(t),
		audit:       auditMocks.NewMockAuditUseCase(t),
		transitions: transitionMocks.NewMockTransitionUseCase(t),
	}
	d.manager = managerUseCase.NewSecretManager(
		managerUseCase.Config{MaxFileSizeBytes: 16},
		d.secrets,
		d.configs,
		d.audit,
		d.transitions,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return d
}

func execCtx() managerDomain.ExecutionContext {
	return managerDomain.ExecutionContext{
		AccountID:           account,
		AppID:               "app-1",
		WorkflowExecutionID: "wf-1",
		EnvID:               "env-1",
		User:                auditDomain.User{ID: "u-1", Email: "jane@example.com", Name: "Jane"},
	}
}

func usage() auditUseCase.UsageContext {
	return auditUseCase.UsageContext{AppID: "app-1", WorkflowExecutionID: "wf-1", EnvID: "env-1"}
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

func TestSecretManager_EncryptFields(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_NewValueIsStoredAndCleared", func(t *testing.T) {
		d := newManager(t)
		stored := &secretsDomain.EncryptedSecret{ID: newID(), AccountID: account}
		field := &managerDomain.EncryptableField{
			Name:       "password",
			SecretType: secretsDomain.SecretText,
			Value:      []byte("s3cr3t"),
		}
		c := &connector{id: "conn-1", account: account, fields: []*managerDomain.EncryptableField{field}}

		d.secrets.On("Put", ctx, secretsUseCase.PutInput{
			AccountID: account,
			OwnerID:   "conn-1",
			Name:      "password",
			Type:      secretsDomain.SecretText,
			Value:     []byte("s3cr3t"),
			User:      execCtx().User,
		}).Return(stored, nil).Once()

		require.NoError(t, d.manager.EncryptFields(ctx, execCtx(), c))
		assert.Nil(t, field.Value)
		require.NotNil(t, field.SecretRef)
		assert.Equal(t, stored.ID, *field.SecretRef)
	})

	t.Run("Success_ReferenceOnlyAttaches", func(t *testing.T) {
		d := newManager(t)
		ref := newID()
		field := &managerDomain.EncryptableField{Name: "token", SecretType: secretsDomain.APIKey, SecretRef: &ref}
		c := &connector{id: "conn-2", account: account, fields: []*managerDomain.EncryptableField{field}}

		d.secrets.On("Put", ctx, mock.MatchedBy(func(in secretsUseCase.PutInput) bool {
			return in.RefID != nil && *in.RefID == ref && in.Value == nil && in.OwnerID == "conn-2"
		})).Return(&secretsDomain.EncryptedSecret{ID: ref, AccountID: account}, nil).Once()

		require.NoError(t, d.manager.EncryptFields(ctx, execCtx(), c))
		assert.Equal(t, ref, *field.SecretRef)
	})

	t.Run("Success_ValueWithReferenceUpdates", func(t *testing.T) {
		d := newManager(t)
		current := newID()
		replacement := newID()
		field := &managerDomain.EncryptableField{
			Name:       "kubeconfig",
			SecretType: secretsDomain.ConfigFile,
			Value:      []byte("new"),
			SecretRef:  &current,
			Renamed:    true,
		}
		c := &connector{id: "conn-3", account: account, fields: []*managerDomain.EncryptableField{field}}

		d.secrets.On("Update", ctx, mock.MatchedBy(func(in secretsUseCase.UpdateInput) bool {
			return *in.CurrentID == current && in.Renamed && string(in.Value) == "new"
		})).Return(&secretsDomain.EncryptedSecret{ID: replacement, AccountID: account}, nil).Once()

		require.NoError(t, d.manager.EncryptFields(ctx, execCtx(), c))
		assert.Equal(t, replacement, *field.SecretRef)
		assert.False(t, field.Renamed)
	})

	t.Run("Success_EmptyFieldSkipped", func(t *testing.T) {
		d := newManager(t)
		c := &connector{id: "conn-4", account: account, fields: []*managerDomain.EncryptableField{{Name: "unused"}}}

		require.NoError(t, d.manager.EncryptFields(ctx, execCtx(), c))
		d.secrets.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	})

	t.Run("Error_AccountMismatch", func(t *testing.T) {
		d := newManager(t)
		c := &connector{id: "conn-5", account: "other", fields: []*managerDomain.EncryptableField{
			{Name: "password", Value: []byte("x")},
		}}

		err := d.manager.EncryptFields(ctx, execCtx(), c)
		assert.ErrorIs(t, err, managerDomain.ErrAccountMismatch)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("Error_PutFails", func(t *testing.T) {
		d := newManager(t)
		c := &connector{id: "conn-6", account: account, fields: []*managerDomain.EncryptableField{
			{Name: "password", SecretType: secretsDomain.SecretText, Value: []byte("x")},
		}}
		d.secrets.On("Put", ctx, mock.Anything).Return(nil, apperrors.ErrUnavailable).Once()

		err := d.manager.EncryptFields(ctx, execCtx(), c)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.Contains(t, err.Error(), "password")
	})
}

func TestSecretManager_DecryptFields(t *testing.T) {
	ctx := context.Background()
	d := newManager(t)
	ref := newID()
	withRef := &managerDomain.EncryptableField{Name: "password", SecretRef: &ref}
	without := &managerDomain.EncryptableField{Name: "empty"}
	c := &connector{id: "conn-1", account: account, fields: []*managerDomain.EncryptableField{withRef, without}}

	d.secrets.On("Resolve", ctx, account, ref, usage()).Return([]byte("s3cr3t"), nil).Once()

	require.NoError(t, d.manager.DecryptFields(ctx, execCtx(), c))
	assert.Equal(t, []byte("s3cr3t"), withRef.Value)
	assert.Nil(t, without.Value)
}

func TestSecretManager_DetachFields(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_NamedFieldsOnly", func(t *testing.T) {
		d := newManager(t)
		keep, drop := newID(), newID()
		kept := &managerDomain.EncryptableField{Name: "a", SecretRef: &keep}
		dropped := &managerDomain.EncryptableField{Name: "b", SecretRef: &drop}
		c := &connector{id: "conn-1", account: account, fields: []*managerDomain.EncryptableField{kept, dropped}}

		d.secrets.On("Detach", ctx, account, "conn-1", drop).Return(true, nil).Once()

		require.NoError(t, d.manager.DetachFields(ctx, execCtx(), c, "b"))
		assert.Nil(t, dropped.SecretRef)
		assert.Equal(t, keep, *kept.SecretRef)
	})

	t.Run("Success_AllFields", func(t *testing.T) {
		d := newManager(t)
		a, b := newID(), newID()
		c := &connector{id: "conn-2", account: account, fields: []*managerDomain.EncryptableField{
			{Name: "a", SecretRef: &a},
			{Name: "b", SecretRef: &b},
		}}
		d.secrets.On("Detach", ctx, account, "conn-2", a).Return(false, nil).Once()
		d.secrets.On("Detach", ctx, account, "conn-2", b).Return(true, nil).Once()

		require.NoError(t, d.manager.DetachFields(ctx, execCtx(), c))
	})
}

func TestSecretManager_GetEncryptionDetails(t *testing.T) {
	ctx := context.Background()
	d := newManager(t)
	kmsID := newID()
	localRef, kmsRef := newID(), newID()
	localSecret := &secretsDomain.EncryptedSecret{ID: localRef, AccountID: account, EncryptionType: cryptoDomain.Local}
	kmsSecret := &secretsDomain.EncryptedSecret{
		ID:             kmsRef,
		AccountID:      account,
		EncryptionType: cryptoDomain.KMS,
		KmsID:          &kmsID,
	}
	cfg := &kmsconfigDomain.KmsConfig{ID: kmsID, AccountID: account, Name: "prod"}
	creds := &cryptoDomain.Credentials{AccessKey: "AKIA", Region: "us-east-1"}
	c := &connector{id: "conn-1", account: account, fields: []*managerDomain.EncryptableField{
		{Name: "local", SecretRef: &localRef},
		{Name: "kms", SecretRef: &kmsRef},
	}}

	d.secrets.On("Get", ctx, account, localRef).Return(localSecret, nil).Once()
	d.secrets.On("Get", ctx, account, kmsRef).Return(kmsSecret, nil).Once()
	d.configs.On("GetByID", ctx, account, kmsID).Return(cfg, nil).Once()
	d.configs.On("Credentials", ctx, cfg).Return(creds, nil).Once()
	d.audit.On("RecordUsage", ctx, localRef, account, usage()).Return(nil).Once()
	d.audit.On("RecordUsage", ctx, kmsRef, account, usage()).Return(nil).Once()

	details, err := d.manager.GetEncryptionDetails(ctx, execCtx(), c)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "local", details[0].FieldName)
	assert.Nil(t, details[0].Config)
	assert.Same(t, cfg, details[1].Config)
	assert.Same(t, creds, details[1].Credentials)
}

func TestSecretManager_SaveSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		d := newManager(t)
		stored := &secretsDomain.EncryptedSecret{ID: newID(), AccountID: account}
		value := []byte("key")
		d.secrets.On("Put", ctx, secretsUseCase.PutInput{
			AccountID: account,
			OwnerID:   "owner-1",
			Name:      "api",
			Type:      secretsDomain.APIKey,
			Value:     []byte("key"),
			User:      execCtx().User,
		}).Return(stored, nil).Once()

		secret, err := d.manager.SaveSecret(ctx, execCtx(), managerUseCase.SaveSecretInput{
			OwnerID: "owner-1",
			Name:    "api",
			Type:    secretsDomain.APIKey,
			Value:   value,
		})
		require.NoError(t, err)
		assert.Same(t, stored, secret)
		assert.Equal(t, []byte{0, 0, 0}, value)
	})

	t.Run("Error_MissingAccount", func(t *testing.T) {
		d := newManager(t)
		exec := execCtx()
		exec.AccountID = ""

		_, err := d.manager.SaveSecret(ctx, exec, managerUseCase.SaveSecretInput{OwnerID: "o", Name: "n"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestSecretManager_SaveFile(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		d := newManager(t)
		stored := &secretsDomain.EncryptedSecret{ID: newID(), AccountID: account, Type: secretsDomain.ConfigFile}
		d.secrets.On("Put", ctx, mock.MatchedBy(func(in secretsUseCase.PutInput) bool {
			return in.Type == secretsDomain.ConfigFile &&
				in.Description == auditDomain.FileUploaded &&
				string(in.Value) == "apiVersion: v1"
		})).Return(stored, nil).Once()

		secret, err := d.manager.SaveFile(ctx, execCtx(), managerUseCase.SaveFileInput{
			OwnerID: "owner-1",
			Name:    "kubeconfig",
			Content: strings.NewReader("apiVersion: v1"),
		})
		require.NoError(t, err)
		assert.Same(t, stored, secret)
	})

	t.Run("Error_FileTooLarge", func(t *testing.T) {
		d := newManager(t)

		_, err := d.manager.SaveFile(ctx, execCtx(), managerUseCase.SaveFileInput{
			OwnerID: "owner-1",
			Name:    "big",
			Content: strings.NewReader(strings.Repeat("x", 17)),
		})
		assert.ErrorIs(t, err, managerDomain.ErrFileTooLarge)
	})

	t.Run("Error_MissingContent", func(t *testing.T) {
		d := newManager(t)

		_, err := d.manager.SaveFile(ctx, execCtx(), managerUseCase.SaveFileInput{OwnerID: "o", Name: "n"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestSecretManager_UpdateFile(t *testing.T) {
	ctx := context.Background()
	d := newManager(t)
	id := newID()
	stored := &secretsDomain.EncryptedSecret{ID: id, AccountID: account}
	d.secrets.On("UpdateInPlace", ctx, secretsUseCase.UpdateInPlaceInput{
		AccountID: account,
		ID:        id,
		Name:      "kubeconfig",
		Value:     []byte("exactly16bytes!!"),
		User:      execCtx().User,
	}).Return(stored, nil).Once()

	secret, err := d.manager.UpdateFile(ctx, execCtx(), managerUseCase.UpdateFileInput{
		ID:      id,
		Name:    "kubeconfig",
		Content: strings.NewReader("exactly16bytes!!"),
	})
	require.NoError(t, err)
	assert.Same(t, stored, secret)
}

func TestSecretManager_DeleteSecret(t *testing.T) {
	ctx := context.Background()
	d := newManager(t)
	id := newID()
	d.secrets.On("Detach", ctx, account, "owner-1", id).Return(true, nil).Once()

	deleted, err := d.manager.DeleteSecret(ctx, execCtx(), "owner-1", id)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestSecretManager_Transitions(t *testing.T) {
	ctx := context.Background()
	d := newManager(t)
	kmsID := newID()
	transition := &transitionDomain.Transition{ID: newID(), AccountID: account}

	d.transitions.On("Start", ctx, transitionUseCase.StartInput{
		AccountID:   account,
		From:        secretsDomain.LocalTarget(),
		To:          secretsDomain.KMSTarget(kmsID),
		RequestedBy: "u-1",
	}).Return(transition, nil).Once()
	d.transitions.On("Get", ctx, account, transition.ID).Return(transition, nil).Once()

	started, err := d.manager.TransitionSecrets(
		ctx,
		execCtx(),
		secretsDomain.LocalTarget(),
		secretsDomain.KMSTarget(kmsID),
	)
	require.NoError(t, err)
	assert.Same(t, transition, started)

	got, err := d.manager.GetTransition(ctx, execCtx(), transition.ID)
	require.NoError(t, err)
	assert.Same(t, transition, got)
}

func TestSecretManager_ListEncryptedValues(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_KmsNameLookedUpOnce", func(t *testing.T) {
		d := newManager(t)
		kmsID := newID()
		secrets := []*secretsDomain.EncryptedSecret{
			{ID: newID(), Name: "a", EncryptionType: cryptoDomain.KMS, KmsID: &kmsID},
			{ID: newID(), Name: "b", EncryptionType: cryptoDomain.KMS, KmsID: &kmsID},
			{ID: newID(), Name: "c", EncryptionType: cryptoDomain.Local},
		}
		d.secrets.On("List", ctx, account, 0, 10).Return(secrets, nil).Once()
		d.configs.On("GetByID", ctx, account, kmsID).
			Return(&kmsconfigDomain.KmsConfig{ID: kmsID, Name: "prod"}, nil).
			Once()

		values, err := d.manager.ListEncryptedValues(ctx, execCtx(), 0, 10)
		require.NoError(t, err)
		require.Len(t, values, 3)
		assert.Equal(t, "prod", values[0].KmsName)
		assert.Equal(t, "prod", values[1].KmsName)
		assert.Empty(t, values[2].KmsName)
		assert.Equal(t, cryptoDomain.Local, values[2].EncryptionType)
	})

	t.Run("Error_ListFails", func(t *testing.T) {
		d := newManager(t)
		d.secrets.On("List", ctx, account, 0, 10).Return(nil, errors.New("boom")).Once()

		_, err := d.manager.ListEncryptedValues(ctx, execCtx(), 0, 10)
		assert.Error(t, err)
	})
}

func TestSecretManager_Logs(t *testing.T) {
	ctx := context.Background()
	d := newManager(t)
	id := newID()
	changes := []*auditDomain.ChangeLog{{SecretID: id, Description: auditDomain.Created}}
	usages := []*auditDomain.UsageLog{{SecretID: id, AppID: "app-1"}}

	d.audit.On("GetChangeLogs", ctx, account, id).Return(changes, nil).Once()
	d.audit.On("GetUsageLogs", ctx, account, id, 0, 20).Return(usages, nil).Once()

	gotChanges, err := d.manager.GetChangeLogs(ctx, execCtx(), id)
	require.NoError(t, err)
	assert.Equal(t, changes, gotChanges)

	gotUsages, err := d.manager.GetUsageLogs(ctx, execCtx(), id, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, usages, gotUsages)
}
