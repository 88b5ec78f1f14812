package domain

import (
	"github.com/allisson/secretstore/internal/errors"
)

var (
	// ErrTransitionNotFound indicates the transition does not exist in the caller's account.
	ErrTransitionNotFound = errors.Wrap(errors.ErrNotFound, "transition not found")

	// ErrInvalidTransition indicates a source and destination that are equal
	// or malformed.
	ErrInvalidTransition = errors.Wrap(errors.ErrInvalidInput, "invalid transition")
)
