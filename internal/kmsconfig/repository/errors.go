// Package repository persists KMS configs in PostgreSQL or MySQL.
package repository

import (
	"github.com/allisson/secretstore/internal/database"
	apperrors "github.com/allisson/secretstore/internal/errors"
	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
)

const (
	accountNameConstraint = "kms_configs_account_name_key"
	oneDefaultConstraint  = "kms_configs_one_default_idx"
)

func mapWriteError(err error, message string) error {
	switch {
	case database.IsUniqueViolationOf(err, accountNameConstraint):
		return kmsconfigDomain.ErrDuplicateName
	case database.IsUniqueViolationOf(err, oneDefaultConstraint):
		return kmsconfigDomain.ErrDefaultConflict
	case database.IsUniqueViolation(err):
		return apperrors.Wrap(apperrors.ErrConflict, message)
	default:
		return apperrors.Wrap(err, message)
	}
}

func mapDeleteError(err error) error {
	if database.IsForeignKeyViolation(err) {
		return kmsconfigDomain.ErrConfigInUse
	}
	return apperrors.Wrap(err, "failed to delete kms config")
}
