package usecase

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	apperrors "github.com/allisson/secretstore/internal/errors"
	kmsconfigUseCase "github.com/allisson/secretstore/internal/kmsconfig/usecase"
	managerDomain "github.com/allisson/secretstore/internal/manager/domain"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	secretsUseCase "github.com/allisson/secretstore/internal/secrets/usecase"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
	transitionUseCase "github.com/allisson/secretstore/internal/transition/usecase"
	customValidation "github.com/allisson/secretstore/internal/validation"
)

// Config holds manager settings.
type Config struct {
	MaxFileSizeBytes int64
}

type secretManager struct {
	config      Config
	secrets     secretsUseCase.SecretUseCase
	configs     kmsconfigUseCase.KmsConfigUseCase
	audit       auditUseCase.AuditUseCase
	transitions transitionUseCase.TransitionUseCase
	logger      *slog.Logger
}

func validateExec(exec managerDomain.ExecutionContext) error {
	err := validation.ValidateStruct(&exec,
		validation.Field(&exec.AccountID, validation.Required, customValidation.NotBlank),
	)
	return customValidation.WrapValidationError(err)
}

func (m *secretManager) checkEntity(exec managerDomain.ExecutionContext, e managerDomain.Encryptable) error {
	if err := validateExec(exec); err != nil {
		return err
	}
	if e.AccountID() != exec.AccountID {
		return managerDomain.ErrAccountMismatch
	}
	return nil
}

func usageOf(exec managerDomain.ExecutionContext) auditUseCase.UsageContext {
	return auditUseCase.UsageContext{
		AppID:               exec.AppID,
		WorkflowExecutionID: exec.WorkflowExecutionID,
		EnvID:               exec.EnvID,
	}
}

func (m *secretManager) EncryptFields(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	e managerDomain.Encryptable,
) error {
	if err := m.checkEntity(exec, e); err != nil {
		return err
	}

	for _, field := range e.EncryptedFields() {
		if field.Value == nil && field.SecretRef == nil {
			continue
		}

		var (
			secret *secretsDomain.EncryptedSecret
			err    error
		)
		switch {
		case field.Value != nil && field.SecretRef != nil:
			secret, err = m.secrets.Update(ctx, secretsUseCase.UpdateInput{
				AccountID: exec.AccountID,
				OwnerID:   e.EncryptableID(),
				CurrentID: field.SecretRef,
				Name:      field.Name,
				Type:      field.SecretType,
				Value:     field.Value,
				Renamed:   field.Renamed,
				User:      exec.User,
			})
		default:
			secret, err = m.secrets.Put(ctx, secretsUseCase.PutInput{
				AccountID: exec.AccountID,
				OwnerID:   e.EncryptableID(),
				Name:      field.Name,
				Type:      field.SecretType,
				Value:     field.Value,
				RefID:     field.SecretRef,
				User:      exec.User,
			})
		}
		if err != nil {
			return apperrors.Wrapf(err, "failed to encrypt field %s", field.Name)
		}

		clear(field.Value)
		field.Value = nil
		field.Renamed = false
		if secret == nil {
			field.SecretRef = nil
			continue
		}
		id := secret.ID
		field.SecretRef = &id
	}

	m.logger.Debug("entity fields encrypted",
		slog.String("account_id", exec.AccountID),
		slog.String("entity_id", e.EncryptableID()),
	)
	return nil
}

func (m *secretManager) DecryptFields(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	e managerDomain.Encryptable,
) error {
	if err := m.checkEntity(exec, e); err != nil {
		return err
	}

	for _, field := range e.EncryptedFields() {
		if field.SecretRef == nil {
			continue
		}
		value, err := m.secrets.Resolve(ctx, exec.AccountID, *field.SecretRef, usageOf(exec))
		if err != nil {
			return apperrors.Wrapf(err, "failed to decrypt field %s", field.Name)
		}
		field.Value = value
	}
	return nil
}

func (m *secretManager) DetachFields(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	e managerDomain.Encryptable,
	names ...string,
) error {
	if err := m.checkEntity(exec, e); err != nil {
		return err
	}

	for _, field := range e.EncryptedFields() {
		if field.SecretRef == nil {
			continue
		}
		if len(names) > 0 && !slices.Contains(names, field.Name) {
			continue
		}
		if _, err := m.secrets.Detach(ctx, exec.AccountID, e.EncryptableID(), *field.SecretRef); err != nil {
			return apperrors.Wrapf(err, "failed to detach field %s", field.Name)
		}
		field.SecretRef = nil
	}
	return nil
}

func (m *secretManager) GetEncryptionDetails(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	e managerDomain.Encryptable,
) ([]*managerDomain.EncryptionDetail, error) {
	if err := m.checkEntity(exec, e); err != nil {
		return nil, err
	}

	details := make([]*managerDomain.EncryptionDetail, 0)
	for _, field := range e.EncryptedFields() {
		if field.SecretRef == nil {
			continue
		}
		secret, err := m.secrets.Get(ctx, exec.AccountID, *field.SecretRef)
		if err != nil {
			return nil, err
		}

		detail := &managerDomain.EncryptionDetail{FieldName: field.Name, Secret: secret}
		if secret.EncryptionType == cryptoDomain.KMS && secret.KmsID != nil {
			cfg, err := m.configs.GetByID(ctx, exec.AccountID, *secret.KmsID)
			if err != nil {
				return nil, err
			}
			creds, err := m.configs.Credentials(ctx, cfg)
			if err != nil {
				return nil, err
			}
			detail.Config = cfg
			detail.Credentials = creds
		}

		if err := m.audit.RecordUsage(ctx, secret.ID, exec.AccountID, usageOf(exec)); err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

func (m *secretManager) SaveSecret(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	input SaveSecretInput,
) (*secretsDomain.EncryptedSecret, error) {
	if err := validateExec(exec); err != nil {
		return nil, err
	}
	secret, err := m.secrets.Put(ctx, secretsUseCase.PutInput{
		AccountID: exec.AccountID,
		OwnerID:   input.OwnerID,
		Name:      input.Name,
		Type:      input.Type,
		Value:     input.Value,
		RefID:     input.RefID,
		User:      exec.User,
	})
	clear(input.Value)
	return secret, err
}

// readFile reads content up to the size limit.
func (m *secretManager) readFile(content io.Reader) ([]byte, error) {
	if content == nil {
		return nil, customValidation.WrapValidationError(validation.Errors{
			"content": validation.ErrRequired,
		})
	}
	data, err := io.ReadAll(io.LimitReader(content, m.config.MaxFileSizeBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read file")
	}
	if int64(len(data)) > m.config.MaxFileSizeBytes {
		clear(data)
		return nil, managerDomain.ErrFileTooLarge
	}
	return data, nil
}

func (m *secretManager) SaveFile(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	input SaveFileInput,
) (*secretsDomain.EncryptedSecret, error) {
	if err := validateExec(exec); err != nil {
		return nil, err
	}
	data, err := m.readFile(input.Content)
	if err != nil {
		return nil, err
	}
	defer clear(data)

	return m.secrets.Put(ctx, secretsUseCase.PutInput{
		AccountID:   exec.AccountID,
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		Type:        secretsDomain.ConfigFile,
		Value:       data,
		User:        exec.User,
		Description: auditDomain.FileUploaded,
	})
}

func (m *secretManager) UpdateFile(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	input UpdateFileInput,
) (*secretsDomain.EncryptedSecret, error) {
	if err := validateExec(exec); err != nil {
		return nil, err
	}
	data, err := m.readFile(input.Content)
	if err != nil {
		return nil, err
	}
	defer clear(data)

	return m.secrets.UpdateInPlace(ctx, secretsUseCase.UpdateInPlaceInput{
		AccountID: exec.AccountID,
		ID:        input.ID,
		Name:      input.Name,
		Value:     data,
		User:      exec.User,
	})
}

func (m *secretManager) DeleteSecret(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	ownerID string,
	id uuid.UUID,
) (bool, error) {
	if err := validateExec(exec); err != nil {
		return false, err
	}
	return m.secrets.Detach(ctx, exec.AccountID, ownerID, id)
}

func (m *secretManager) TransitionSecrets(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	from, to secretsDomain.Target,
) (*transitionDomain.Transition, error) {
	if err := validateExec(exec); err != nil {
		return nil, err
	}
	return m.transitions.Start(ctx, transitionUseCase.StartInput{
		AccountID:   exec.AccountID,
		From:        from,
		To:          to,
		RequestedBy: exec.User.ID,
	})
}

func (m *secretManager) GetTransition(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	id uuid.UUID,
) (*transitionDomain.Transition, error) {
	if err := validateExec(exec); err != nil {
		return nil, err
	}
	return m.transitions.Get(ctx, exec.AccountID, id)
}

func (m *secretManager) ListEncryptedValues(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	offset, limit int,
) ([]*managerDomain.EncryptedValue, error) {
	if err := validateExec(exec); err != nil {
		return nil, err
	}
	secrets, err := m.secrets.List(ctx, exec.AccountID, offset, limit)
	if err != nil {
		return nil, err
	}

	kmsNames := make(map[uuid.UUID]string)
	values := make([]*managerDomain.EncryptedValue, 0, len(secrets))
	for _, secret := range secrets {
		value := &managerDomain.EncryptedValue{
			ID:             secret.ID,
			Name:           secret.Name,
			Type:           secret.Type,
			EncryptionType: secret.EncryptionType,
			KmsID:          secret.KmsID,
			CreatedBy:      secret.CreatedBy,
			CreatedAt:      secret.CreatedAt,
			UpdatedAt:      secret.UpdatedAt,
		}
		if secret.KmsID != nil {
			name, ok := kmsNames[*secret.KmsID]
			if !ok {
				cfg, err := m.configs.GetByID(ctx, exec.AccountID, *secret.KmsID)
				if err != nil {
					return nil, err
				}
				name = cfg.Name
				kmsNames[*secret.KmsID] = name
			}
			value.KmsName = name
		}
		values = append(values, value)
	}
	return values, nil
}

func (m *secretManager) GetChangeLogs(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	secretID uuid.UUID,
) ([]*auditDomain.ChangeLog, error) {
	if err := validateExec(exec); err != nil {
		return nil, err
	}
	return m.audit.GetChangeLogs(ctx, exec.AccountID, secretID)
}

func (m *secretManager) GetUsageLogs(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	secretID uuid.UUID,
	offset, limit int,
) ([]*auditDomain.UsageLog, error) {
	if err := validateExec(exec); err != nil {
		return nil, err
	}
	return m.audit.GetUsageLogs(ctx, exec.AccountID, secretID, offset, limit)
}

// NewSecretManager creates the secret manager.
func NewSecretManager(
	config Config,
	secrets secretsUseCase.SecretUseCase,
	configs kmsconfigUseCase.KmsConfigUseCase,
	audit auditUseCase.AuditUseCase,
	transitions transitionUseCase.TransitionUseCase,
	logger *slog.Logger,
) SecretManager {
	return &secretManager{
		config:      config,
		secrets:     secrets,
		configs:     configs,
		audit:       audit,
		transitions: transitions,
		logger:      logger,
	}
}
