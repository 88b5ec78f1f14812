package usecase

import (
	"bytes"
	"cmp"
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	cryptoService "github.com/allisson/secretstore/internal/crypto/service"
	"github.com/allisson/secretstore/internal/database"
	apperrors "github.com/allisson/secretstore/internal/errors"
	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
	customValidation "github.com/allisson/secretstore/internal/validation"
)

// Validate checks field shapes. New configs need every credential; updates may
// leave SecretKey and KmsArn empty or masked.
func (i SaveInput) Validate() error {
	isNew := i.ID == nil
	return validation.ValidateStruct(&i,
		validation.Field(&i.AccountID, validation.Required, customValidation.NotBlank),
		validation.Field(&i.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&i.AccessKey, validation.Required, customValidation.NoWhitespace),
		validation.Field(&i.SecretKey,
			validation.When(isNew, validation.Required, customValidation.NotEqual(kmsconfigDomain.MaskToken)),
		),
		validation.Field(&i.KmsArn,
			validation.When(isNew, validation.Required, customValidation.NotEqual(kmsconfigDomain.MaskToken)),
			validation.When(i.KmsArn != kmsconfigDomain.MaskToken, customValidation.KmsArn),
		),
		validation.Field(&i.Region, customValidation.AWSRegion),
	)
}

type kmsConfigUseCase struct {
	txManager      database.TxManager
	repo           KmsConfigRepository
	usageCounters  []UsageCounter
	sealer         cryptoService.Provider
	prober         cryptoService.Provider
	probeValueSize int
	logger         *slog.Logger
}

// NewKmsConfigUseCase creates the registry. sealer (the local provider) protects
// secret fields at rest; prober (the remote provider) validates credentials.
func NewKmsConfigUseCase(
	txManager database.TxManager,
	repo KmsConfigRepository,
	usageCounters []UsageCounter,
	sealer cryptoService.Provider,
	prober cryptoService.Provider,
	probeValueSize int,
	logger *slog.Logger,
) KmsConfigUseCase {
	return &kmsConfigUseCase{
		txManager:      txManager,
		repo:           repo,
		usageCounters:  usageCounters,
		sealer:         sealer,
		prober:         prober,
		probeValueSize: max(probeValueSize, 1),
		logger:         logger,
	}
}

func (k *kmsConfigUseCase) Save(
	ctx context.Context,
	input SaveInput,
) (*kmsconfigDomain.KmsConfigView, error) {
	if err := input.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	var existing *kmsconfigDomain.KmsConfig
	if input.ID != nil {
		cfg, err := k.repo.Get(ctx, *input.ID)
		if err != nil {
			return nil, err
		}
		if cfg.AccountID != input.AccountID {
			return nil, kmsconfigDomain.ErrKmsConfigNotFound
		}
		existing = cfg
	}

	creds, err := k.resolveCredentials(ctx, input, existing)
	if err != nil {
		return nil, err
	}

	if err := k.probe(ctx, input.AccountID, creds); err != nil {
		k.logger.Warn("kms config rejected by probe",
			slog.String("account_id", input.AccountID),
			slog.String("name", input.Name),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %v", kmsconfigDomain.ErrProviderValidation, err)
	}

	sealedSecret, err := k.sealer.Encrypt(ctx, input.AccountID, []byte(creds.SecretKey), nil)
	if err != nil {
		return nil, err
	}
	sealedArn, err := k.sealer.Encrypt(ctx, input.AccountID, []byte(creds.KeyArn), nil)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cfg := &kmsconfigDomain.KmsConfig{
		ID:        uuid.Must(uuid.NewV7()),
		AccountID: input.AccountID,
		Name:      input.Name,
		AccessKey: input.AccessKey,
		SecretKey: *sealedSecret,
		KmsArn:    *sealedArn,
		Region:    input.Region,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	}

	err = k.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := k.repo.LockAccount(txCtx, cfg.AccountID); err != nil {
			return err
		}

		makeDefault, err := k.shouldBeDefault(txCtx, cfg, input.IsDefault)
		if err != nil {
			return err
		}
		if makeDefault {
			if err := k.repo.ClearDefault(txCtx, cfg.AccountID); err != nil {
				return err
			}
		}
		cfg.IsDefault = makeDefault

		if existing != nil {
			return k.repo.Update(txCtx, cfg)
		}
		return k.repo.Create(txCtx, cfg)
	})
	if err != nil {
		return nil, err
	}

	k.logger.Info("kms config saved",
		slog.String("account_id", cfg.AccountID),
		slog.String("kms_config_id", cfg.ID.String()),
		slog.Bool("is_default", cfg.IsDefault),
	)
	return kmsconfigDomain.NewKmsConfigView(cfg, cfg.IsDefault), nil
}

// shouldBeDefault keeps exactly one default in the account view. A global
// config is always the default of its own scope; an account config must
// become default when nothing else (account default or global) would be.
func (k *kmsConfigUseCase) shouldBeDefault(
	ctx context.Context,
	cfg *kmsconfigDomain.KmsConfig,
	requested bool,
) (bool, error) {
	if requested || cfg.IsGlobal() {
		return true, nil
	}

	configs, err := k.repo.ListByAccount(ctx, cfg.AccountID)
	if err != nil {
		return false, err
	}
	for _, c := range configs {
		if c.ID != cfg.ID && c.IsDefault {
			return false, nil
		}
	}

	_, err = k.repo.GetDefault(ctx, kmsconfigDomain.GlobalAccountID)
	switch {
	case err == nil:
		return false, nil
	case apperrors.Is(err, kmsconfigDomain.ErrKmsConfigNotFound):
		return true, nil
	default:
		return false, err
	}
}

func (k *kmsConfigUseCase) resolveCredentials(
	ctx context.Context,
	input SaveInput,
	existing *kmsconfigDomain.KmsConfig,
) (*cryptoDomain.Credentials, error) {
	creds := &cryptoDomain.Credentials{
		AccessKey: input.AccessKey,
		SecretKey: input.SecretKey,
		KeyArn:    input.KmsArn,
		Region:    input.Region,
	}
	if existing == nil {
		return creds, nil
	}

	stored, err := k.Credentials(ctx, existing)
	if err != nil {
		return nil, err
	}
	if keepStored(creds.SecretKey) {
		creds.SecretKey = stored.SecretKey
	}
	if keepStored(creds.KeyArn) {
		creds.KeyArn = stored.KeyArn
	}
	return creds, nil
}

func keepStored(value string) bool {
	return value == "" || value == kmsconfigDomain.MaskToken
}

// probe encrypts and decrypts a random value with creds.
func (k *kmsConfigUseCase) probe(ctx context.Context, accountID string, creds *cryptoDomain.Credentials) error {
	value := make([]byte, k.probeValueSize)
	if _, err := rand.Read(value); err != nil {
		return err
	}

	envelope, err := k.prober.Encrypt(ctx, accountID, value, creds)
	if err != nil {
		return err
	}

	decrypted, err := k.prober.Decrypt(ctx, accountID, envelope, creds)
	if err != nil {
		return err
	}
	if !bytes.Equal(value, decrypted) {
		return apperrors.New("probe value mismatch")
	}
	return nil
}

func (k *kmsConfigUseCase) Get(ctx context.Context, accountID string) (*kmsconfigDomain.KmsConfig, error) {
	cfg, err := k.repo.GetDefault(ctx, accountID)
	if err == nil {
		return cfg, nil
	}
	if !apperrors.Is(err, kmsconfigDomain.ErrKmsConfigNotFound) {
		return nil, err
	}

	if accountID != kmsconfigDomain.GlobalAccountID {
		cfg, err = k.globalDefault(ctx)
		if err != nil || cfg != nil {
			return cfg, err
		}
	}

	// No stored default anywhere in the view: the newest config stands in.
	configs, err := k.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, nil
	}
	return configs[0], nil
}

// globalDefault returns nil when no global config is the default.
func (k *kmsConfigUseCase) globalDefault(ctx context.Context) (*kmsconfigDomain.KmsConfig, error) {
	cfg, err := k.repo.GetDefault(ctx, kmsconfigDomain.GlobalAccountID)
	if err != nil {
		if apperrors.Is(err, kmsconfigDomain.ErrKmsConfigNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cfg, nil
}

func (k *kmsConfigUseCase) GetByID(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
) (*kmsconfigDomain.KmsConfig, error) {
	cfg, err := k.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cfg.AccountID != accountID && !cfg.IsGlobal() {
		return nil, kmsconfigDomain.ErrKmsConfigNotFound
	}
	return cfg, nil
}

func (k *kmsConfigUseCase) Credentials(
	ctx context.Context,
	cfg *kmsconfigDomain.KmsConfig,
) (*cryptoDomain.Credentials, error) {
	secretKey, err := k.sealer.Decrypt(ctx, cfg.AccountID, &cfg.SecretKey, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unseal kms secret key")
	}
	keyArn, err := k.sealer.Decrypt(ctx, cfg.AccountID, &cfg.KmsArn, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unseal kms arn")
	}

	return &cryptoDomain.Credentials{
		AccessKey: cfg.AccessKey,
		SecretKey: string(secretKey),
		KeyArn:    string(keyArn),
		Region:    cfg.Region,
	}, nil
}

func (k *kmsConfigUseCase) List(
	ctx context.Context,
	accountID string,
	includeGlobal bool,
) ([]*kmsconfigDomain.KmsConfigView, error) {
	configs, err := k.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	accountHasDefault := false
	views := make([]*kmsconfigDomain.KmsConfigView, 0, len(configs)+1)
	for _, c := range configs {
		accountHasDefault = accountHasDefault || c.IsDefault
		views = append(views, kmsconfigDomain.NewKmsConfigView(c, c.IsDefault))
	}

	var global *kmsconfigDomain.KmsConfig
	if accountID != kmsconfigDomain.GlobalAccountID && (includeGlobal || (!accountHasDefault && len(configs) > 0)) {
		global, err = k.globalDefault(ctx)
		if err != nil {
			return nil, err
		}
	}

	// Mirrors Get: without any stored default the newest config is the default.
	if !accountHasDefault && global == nil && len(views) > 0 {
		views[0].IsDefault = true
	}
	if includeGlobal && global != nil {
		views = append(views, kmsconfigDomain.NewKmsConfigView(global, !accountHasDefault))
	}

	// Default first, then newest first.
	slices.SortStableFunc(views, func(a, b *kmsconfigDomain.KmsConfigView) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return views, nil
}

func (k *kmsConfigUseCase) Delete(ctx context.Context, accountID string, id uuid.UUID) error {
	return k.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := k.repo.LockAccount(txCtx, accountID); err != nil {
			return err
		}

		cfg, err := k.repo.Get(txCtx, id)
		if err != nil {
			return err
		}
		if cfg.AccountID != accountID {
			return kmsconfigDomain.ErrKmsConfigNotFound
		}

		for _, counter := range k.usageCounters {
			count, err := counter.CountByKmsID(txCtx, id)
			if err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: %d references", kmsconfigDomain.ErrConfigInUse, count)
			}
		}

		if err := k.repo.Delete(txCtx, id); err != nil {
			return err
		}

		// The newest remaining config of the same scope, global included,
		// takes over the default.
		if cfg.IsDefault {
			remaining, err := k.repo.ListByAccount(txCtx, accountID)
			if err != nil {
				return err
			}
			if len(remaining) > 0 {
				if err := k.repo.SetDefault(txCtx, remaining[0].ID); err != nil {
					return err
				}
			}
		}

		k.logger.Info("kms config deleted",
			slog.String("account_id", accountID),
			slog.String("kms_config_id", id.String()),
		)
		return nil
	})
}
