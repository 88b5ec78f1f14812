package domain

import (
	"github.com/allisson/secretstore/internal/errors"
)

var (
	// ErrKmsConfigNotFound indicates no config with that ID exists in the account scope.
	ErrKmsConfigNotFound = errors.Wrap(errors.ErrNotFound, "kms config not found")

	// ErrProviderValidation indicates the credentials failed the encrypt/decrypt probe.
	ErrProviderValidation = errors.Wrap(errors.ErrInvalidInput, "kms provider validation failed")

	// ErrConfigInUse indicates secrets or pending migrations still reference the config.
	ErrConfigInUse = errors.Wrap(errors.ErrConflict, "kms config is in use")

	// ErrDuplicateName indicates the account already has a config with that name.
	ErrDuplicateName = errors.Wrap(errors.ErrConflict, "kms config name already exists")

	// ErrDefaultConflict indicates a concurrent save changed the account default.
	ErrDefaultConflict = errors.Wrap(errors.ErrConflict, "kms default config changed concurrently")
)
