package domain

import (
	"github.com/allisson/secretstore/internal/errors"
)

var (
	// ErrFileTooLarge indicates an upload above the configured size limit.
	ErrFileTooLarge = errors.Wrap(errors.ErrInvalidInput, "file exceeds the maximum size")

	// ErrAccountMismatch indicates an entity outside the caller's account.
	ErrAccountMismatch = errors.Wrap(errors.ErrForbidden, "entity belongs to another account")
)
