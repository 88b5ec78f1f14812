package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	"github.com/allisson/secretstore/internal/database"
	apperrors "github.com/allisson/secretstore/internal/errors"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
	customValidation "github.com/allisson/secretstore/internal/validation"
)

// Validate checks the request shape. Config existence is checked by Start.
func (i StartInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.AccountID, validation.Required, customValidation.NotBlank),
		validation.Field(&i.RequestedBy, validation.Required, customValidation.NotBlank),
	)
	if err != nil {
		return customValidation.WrapValidationError(err)
	}
	if !validTarget(i.From) || !validTarget(i.To) {
		return apperrors.Wrap(transitionDomain.ErrInvalidTransition, "malformed target")
	}
	if i.From.Equal(i.To) {
		return apperrors.Wrap(transitionDomain.ErrInvalidTransition, "source and destination are the same")
	}
	return nil
}

func validTarget(t secretsDomain.Target) bool {
	switch t.Type {
	case cryptoDomain.Local:
		return t.KmsID == nil
	case cryptoDomain.KMS:
		return t.KmsID != nil
	}
	return false
}

type transitionUseCase struct {
	txManager database.TxManager
	repo      TransitionRepository
	secrets   SecretLister
	configs   ConfigLookup
	logger    *slog.Logger
}

func (t *transitionUseCase) Start(
	ctx context.Context,
	input StartInput,
) (*transitionDomain.Transition, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.To.KmsID != nil {
		if _, err := t.configs.GetByID(ctx, input.AccountID, *input.To.KmsID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	transition := &transitionDomain.Transition{
		ID:          uuid.Must(uuid.NewV7()),
		AccountID:   input.AccountID,
		From:        input.From,
		To:          input.To,
		Status:      transitionDomain.StatusEnqueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := t.txManager.WithTx(ctx, func(txCtx context.Context) error {
		ids, err := t.secrets.ListIDsByTarget(txCtx, input.AccountID, input.From)
		if err != nil {
			return err
		}

		units := make([]*transitionDomain.MigrationUnit, 0, len(ids))
		for _, id := range ids {
			units = append(units, &transitionDomain.MigrationUnit{
				ID:           uuid.Must(uuid.NewV7()),
				TransitionID: transition.ID,
				SecretID:     id,
				AccountID:    input.AccountID,
				From:         input.From,
				To:           input.To,
				Status:       transitionDomain.UnitPending,
				CreatedAt:    now,
			})
		}

		transition.TotalUnits = len(units)
		transition.Counts = transitionDomain.UnitCounts{Pending: len(units)}
		transition.Status = transition.Counts.Status()

		if err := t.repo.Create(txCtx, transition); err != nil {
			return err
		}
		if len(units) == 0 {
			return nil
		}
		return t.repo.CreateUnits(txCtx, units)
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("transition enqueued",
		slog.String("transition_id", transition.ID.String()),
		slog.String("account_id", transition.AccountID),
		slog.String("from", transition.From.String()),
		slog.String("to", transition.To.String()),
		slog.Int("units", transition.TotalUnits),
	)
	return transition, nil
}

func (t *transitionUseCase) Get(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
) (*transitionDomain.Transition, error) {
	transition, err := t.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if transition.AccountID != accountID {
		return nil, transitionDomain.ErrTransitionNotFound
	}
	return transition, nil
}

// NewTransitionUseCase creates the transition coordinator.
func NewTransitionUseCase(
	txManager database.TxManager,
	repo TransitionRepository,
	secrets SecretLister,
	configs ConfigLookup,
	logger *slog.Logger,
) TransitionUseCase {
	return &transitionUseCase{
		txManager: txManager,
		repo:      repo,
		secrets:   secrets,
		configs:   configs,
		logger:    logger,
	}
}
