// Package validation holds the jellydator/validation rules shared by the
// use case inputs.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/secretstore/internal/errors"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	kmsArnRegex = regexp.MustCompile(`^arn:aws[a-z\-]*:kms:[a-z0-9\-]+:\d{12}:(key|alias)/.+$`)
	regionRegex = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d$`)
)

// WrapValidationError converts a validation error into ErrInvalidInput.
// Errors that already carry ErrInvalidInput are returned unchanged.
func WrapValidationError(err error) error {
	if err == nil || apperrors.Is(err, apperrors.ErrInvalidInput) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email checks the address shape used for acting users.
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NoWhitespace rejects leading or trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank rejects strings made only of whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// KmsArn accepts AWS KMS key and alias ARNs.
var KmsArn = validation.NewStringRuleWithError(
	func(s string) bool {
		return kmsArnRegex.MatchString(s)
	},
	validation.NewError("validation_kms_arn", "must be an AWS KMS key or alias ARN"),
)

// AWSRegion accepts region names such as us-east-1 or ap-southeast-2.
var AWSRegion = validation.NewStringRuleWithError(
	func(s string) bool {
		return regionRegex.MatchString(s)
	},
	validation.NewError("validation_aws_region", "must be a valid AWS region"),
)

// NotEqual rejects one specific value, e.g. the listing mask token.
func NotEqual(forbidden string) validation.Rule {
	return validation.NewStringRuleWithError(
		func(s string) bool {
			return s != forbidden
		},
		validation.NewError("validation_not_equal", "must not be the masked placeholder"),
	)
}
