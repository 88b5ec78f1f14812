package domain

import (
	"github.com/allisson/secretstore/internal/errors"
)

// ErrInvalidDescription indicates a change log reason outside the closed set.
var ErrInvalidDescription = errors.Wrap(errors.ErrInvalidInput, "invalid change log description")
