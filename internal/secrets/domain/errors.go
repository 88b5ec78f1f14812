package domain

import (
	"github.com/allisson/secretstore/internal/errors"
)

var (
	// ErrSecretNotFound indicates the secret does not exist in the caller's
	// account, or a reference token points at a secret of another type.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrInvalidSecretType indicates an unknown secret type.
	ErrInvalidSecretType = errors.Wrap(errors.ErrInvalidInput, "invalid secret type")

	// ErrInvalidTarget indicates an encryption target that is not LOCAL or KMS
	// with a config ID.
	ErrInvalidTarget = errors.Wrap(errors.ErrInvalidInput, "invalid encryption target")
)
