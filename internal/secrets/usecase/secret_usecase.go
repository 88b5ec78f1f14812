package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	cryptoService "github.com/allisson/secretstore/internal/crypto/service"
	"github.com/allisson/secretstore/internal/database"
	apperrors "github.com/allisson/secretstore/internal/errors"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	customValidation "github.com/allisson/secretstore/internal/validation"
)

const defaultListLimit = 50

// checkType reports an unknown type as ErrInvalidSecretType. A missing type
// is left to Required.
func checkType(t secretsDomain.SecretType) error {
	if t != "" && !t.Valid() {
		return secretsDomain.ErrInvalidSecretType
	}
	return nil
}

var validActingUser = validation.By(func(value any) error {
	user, _ := value.(auditDomain.User)
	return validation.Validate(user.Email, customValidation.Email)
})

// Validate checks the fields common to every put.
func (i PutInput) Validate() error {
	if err := checkType(i.Type); err != nil {
		return err
	}
	return validation.ValidateStruct(&i,
		validation.Field(&i.AccountID, validation.Required, customValidation.NotBlank),
		validation.Field(&i.OwnerID, validation.Required, customValidation.NotBlank),
		validation.Field(&i.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&i.Type, validation.Required),
		validation.Field(&i.User, validActingUser),
	)
}

// Validate checks an owner-level update.
func (i UpdateInput) Validate() error {
	if i.Value != nil {
		if err := checkType(i.Type); err != nil {
			return err
		}
	}
	return validation.ValidateStruct(&i,
		validation.Field(&i.AccountID, validation.Required, customValidation.NotBlank),
		validation.Field(&i.OwnerID, validation.Required, customValidation.NotBlank),
		validation.Field(&i.Name, validation.When(i.Value != nil, validation.Required, validation.Length(1, 255))),
		validation.Field(&i.Type, validation.When(i.Value != nil, validation.Required)),
		validation.Field(&i.User, validActingUser),
	)
}

// Validate checks an in-place update.
func (i UpdateInPlaceInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.AccountID, validation.Required, customValidation.NotBlank),
		validation.Field(&i.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&i.User, validActingUser),
	)
}

type secretUseCase struct {
	txManager  database.TxManager
	secretRepo SecretRepository
	configs    ConfigResolver
	providers  cryptoService.ProviderSelector
	audit      AuditRecorder
	logger     *slog.Logger
}

// sealed is a value encrypted for a target, ready to be written.
type sealed struct {
	target   secretsDomain.Target
	envelope *cryptoDomain.Envelope
}

func (s *secretUseCase) Put(ctx context.Context, input PutInput) (*secretsDomain.EncryptedSecret, error) {
	if err := input.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	if input.RefID != nil {
		var secret *secretsDomain.EncryptedSecret
		err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
			var err error
			secret, err = s.attach(txCtx, input)
			return err
		})
		if err != nil {
			return nil, err
		}
		return secret, nil
	}

	value, err := s.seal(ctx, input.AccountID, input.Value)
	if err != nil {
		return nil, err
	}

	description := input.Description
	if description == "" {
		description = auditDomain.Created
	}

	var secret *secretsDomain.EncryptedSecret
	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		secret, err = s.create(txCtx, input.AccountID, input.OwnerID, input.Name, input.Type, input.User, value, description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// attach adds the owner to the referenced secret under a row lock.
func (s *secretUseCase) attach(ctx context.Context, input PutInput) (*secretsDomain.EncryptedSecret, error) {
	secret, err := s.getForUpdate(ctx, input.AccountID, *input.RefID)
	if err != nil {
		return nil, err
	}
	if secret.Type != input.Type {
		return nil, secretsDomain.ErrSecretNotFound
	}

	if !secret.HasParent(input.OwnerID) {
		if err := s.secretRepo.AddParent(ctx, secret.ID, input.OwnerID); err != nil {
			return nil, err
		}
		secret.ParentIDs = append(secret.ParentIDs, input.OwnerID)
	}

	description := input.Description
	if secret.Name != input.Name {
		secret.Name = input.Name
		if err := s.secretRepo.UpdateEncryption(ctx, secret); err != nil {
			return nil, err
		}
		if description == "" {
			description = auditDomain.ChangedNameAndFile
		}
	}

	if description != "" {
		err := s.audit.RecordChange(ctx, secret.ID, secret.AccountID, input.User, description)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug("owner attached to secret",
		slog.String("secret_id", secret.ID.String()),
		slog.Int("owners", len(secret.ParentIDs)),
	)
	return secret, nil
}

func (s *secretUseCase) create(
	ctx context.Context,
	accountID, ownerID, name string,
	secretType secretsDomain.SecretType,
	user auditDomain.User,
	value *sealed,
	description auditDomain.Description,
) (*secretsDomain.EncryptedSecret, error) {
	now := time.Now().UTC()
	secret := &secretsDomain.EncryptedSecret{
		ID:             uuid.Must(uuid.NewV7()),
		AccountID:      accountID,
		Name:           name,
		Type:           secretType,
		EncryptionType: value.target.Type,
		KmsID:          value.target.KmsID,
		Ciphertext:     value.envelope.Ciphertext,
		KeyMaterial:    value.envelope.KeyMaterial,
		ParentIDs:      []string{ownerID},
		Enabled:        true,
		CreatedBy:      user,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.secretRepo.Create(ctx, secret); err != nil {
		return nil, err
	}
	if err := s.audit.RecordChange(ctx, secret.ID, accountID, user, description); err != nil {
		return nil, err
	}
	return secret, nil
}

func (s *secretUseCase) Resolve(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
	usage auditUseCase.UsageContext,
) ([]byte, error) {
	secret, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	target := secretsDomain.Target{Type: secret.EncryptionType, KmsID: secret.KmsID}
	provider, creds, err := s.backend(ctx, accountID, target)
	if err != nil {
		return nil, err
	}

	plaintext, err := provider.Decrypt(ctx, accountID, secret.Envelope(), creds)
	if err != nil {
		return nil, err
	}

	if err := s.audit.RecordUsage(ctx, secret.ID, accountID, usage); err != nil {
		cryptoDomain.Zero(plaintext)
		return nil, err
	}
	return plaintext, nil
}

func (s *secretUseCase) Detach(ctx context.Context, accountID, ownerID string, id uuid.UUID) (bool, error) {
	var deleted bool
	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		deleted, err = s.detach(txCtx, accountID, ownerID, id)
		return err
	})
	return deleted, err
}

// detach must run inside a transaction.
func (s *secretUseCase) detach(ctx context.Context, accountID, ownerID string, id uuid.UUID) (bool, error) {
	secret, err := s.getForUpdate(ctx, accountID, id)
	if err != nil {
		return false, err
	}
	if !secret.HasParent(ownerID) {
		return false, nil
	}

	if err := s.secretRepo.RemoveParent(ctx, id, ownerID); err != nil {
		return false, err
	}
	if len(secret.ParentIDs) > 1 {
		return false, nil
	}

	if err := s.secretRepo.Delete(ctx, id); err != nil {
		return false, err
	}
	s.logger.Info("secret deleted after last owner detached",
		slog.String("account_id", accountID),
		slog.String("secret_id", id.String()),
	)
	return true, nil
}

func (s *secretUseCase) Update(ctx context.Context, input UpdateInput) (*secretsDomain.EncryptedSecret, error) {
	if err := input.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	var value *sealed
	if input.Value != nil {
		var err error
		if value, err = s.seal(ctx, input.AccountID, input.Value); err != nil {
			return nil, err
		}
	}

	description := auditDomain.ChangedPassword
	if input.Renamed {
		description = auditDomain.ChangedNameAndFile
	}

	var secret *secretsDomain.EncryptedSecret
	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if input.CurrentID != nil {
			if _, err := s.detach(txCtx, input.AccountID, input.OwnerID, *input.CurrentID); err != nil {
				return err
			}
		}
		if value == nil {
			return nil
		}

		var err error
		secret, err = s.create(
			txCtx,
			input.AccountID,
			input.OwnerID,
			input.Name,
			input.Type,
			input.User,
			value,
			description,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return secret, nil
}

func (s *secretUseCase) UpdateInPlace(
	ctx context.Context,
	input UpdateInPlaceInput,
) (*secretsDomain.EncryptedSecret, error) {
	if err := input.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	value, err := s.seal(ctx, input.AccountID, input.Value)
	if err != nil {
		return nil, err
	}

	var secret *secretsDomain.EncryptedSecret
	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		secret, err = s.getForUpdate(txCtx, input.AccountID, input.ID)
		if err != nil {
			return err
		}
		// Only uploaded files are replaced in place.
		if secret.Type != secretsDomain.ConfigFile {
			return secretsDomain.ErrSecretNotFound
		}

		description := auditDomain.FileUploaded
		if secret.Name != input.Name {
			description = auditDomain.ChangedNameAndFile
		}

		secret.Name = input.Name
		applySealed(secret, value)
		if err := s.secretRepo.UpdateEncryption(txCtx, secret); err != nil {
			return err
		}
		return s.audit.RecordChange(txCtx, secret.ID, secret.AccountID, input.User, description)
	})
	if err != nil {
		return nil, err
	}
	return secret, nil
}

func (s *secretUseCase) Get(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
) (*secretsDomain.EncryptedSecret, error) {
	secret, err := s.secretRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if secret.AccountID != accountID {
		return nil, secretsDomain.ErrSecretNotFound
	}
	return secret, nil
}

func (s *secretUseCase) List(
	ctx context.Context,
	accountID string,
	offset, limit int,
) ([]*secretsDomain.EncryptedSecret, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.secretRepo.List(ctx, accountID, max(offset, 0), limit)
}

func (s *secretUseCase) ActiveTarget(ctx context.Context, accountID string) (secretsDomain.Target, error) {
	cfg, err := s.configs.Get(ctx, accountID)
	if err != nil {
		return secretsDomain.Target{}, err
	}
	if cfg == nil {
		return secretsDomain.LocalTarget(), nil
	}
	return secretsDomain.KMSTarget(cfg.ID), nil
}

func (s *secretUseCase) Migrate(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
	from, to secretsDomain.Target,
) (bool, error) {
	var migrated bool
	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		secret, err := s.getForUpdate(txCtx, accountID, id)
		if err != nil {
			if apperrors.Is(err, secretsDomain.ErrSecretNotFound) {
				return nil
			}
			return err
		}
		if secret.EncryptedWith(to) || !secret.EncryptedWith(from) {
			return nil
		}

		sourceProvider, sourceCreds, err := s.backend(txCtx, accountID, from)
		if err != nil {
			return err
		}
		plaintext, err := sourceProvider.Decrypt(txCtx, accountID, secret.Envelope(), sourceCreds)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(plaintext)

		value, err := s.sealFor(txCtx, accountID, to, plaintext)
		if err != nil {
			return err
		}

		applySealed(secret, value)
		if err := s.secretRepo.UpdateEncryption(txCtx, secret); err != nil {
			return err
		}
		migrated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return migrated, nil
}

func (s *secretUseCase) getForUpdate(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
) (*secretsDomain.EncryptedSecret, error) {
	secret, err := s.secretRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if secret.AccountID != accountID {
		return nil, secretsDomain.ErrSecretNotFound
	}
	return secret, nil
}

// seal encrypts plaintext with the account's active backend.
func (s *secretUseCase) seal(ctx context.Context, accountID string, plaintext []byte) (*sealed, error) {
	target, err := s.ActiveTarget(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.sealFor(ctx, accountID, target, plaintext)
}

func (s *secretUseCase) sealFor(
	ctx context.Context,
	accountID string,
	target secretsDomain.Target,
	plaintext []byte,
) (*sealed, error) {
	provider, creds, err := s.backend(ctx, accountID, target)
	if err != nil {
		return nil, err
	}
	envelope, err := provider.Encrypt(ctx, accountID, plaintext, creds)
	if err != nil {
		return nil, err
	}
	return &sealed{target: target, envelope: envelope}, nil
}

// backend returns the provider and credentials for target.
func (s *secretUseCase) backend(
	ctx context.Context,
	accountID string,
	target secretsDomain.Target,
) (cryptoService.Provider, *cryptoDomain.Credentials, error) {
	provider, err := s.providers.Provider(target.Type)
	if err != nil {
		return nil, nil, err
	}
	if target.Type == cryptoDomain.Local {
		return provider, nil, nil
	}
	if target.KmsID == nil {
		return nil, nil, secretsDomain.ErrInvalidTarget
	}

	cfg, err := s.configs.GetByID(ctx, accountID, *target.KmsID)
	if err != nil {
		return nil, nil, err
	}
	creds, err := s.configs.Credentials(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return provider, creds, nil
}

func applySealed(secret *secretsDomain.EncryptedSecret, value *sealed) {
	secret.EncryptionType = value.target.Type
	secret.KmsID = value.target.KmsID
	secret.Ciphertext = value.envelope.Ciphertext
	secret.KeyMaterial = value.envelope.KeyMaterial
}

// NewSecretUseCase creates the secret store.
func NewSecretUseCase(
	txManager database.TxManager,
	secretRepo SecretRepository,
	configs ConfigResolver,
	providers cryptoService.ProviderSelector,
	audit AuditRecorder,
	logger *slog.Logger,
) SecretUseCase {
	return &secretUseCase{
		txManager:  txManager,
		secretRepo: secretRepo,
		configs:    configs,
		providers:  providers,
		audit:      audit,
		logger:     logger,
	}
}
