package domain

import (
	"fmt"

	"github.com/allisson/secretstore/internal/errors"
)

// Cryptographic error definitions.
var (
	// ErrUnsupportedAlgorithm indicates the requested AEAD algorithm is unknown.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key that is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrUnknownEncryptionType indicates no provider is registered for the type.
	ErrUnknownEncryptionType = errors.Wrap(errors.ErrInvalidInput, "unknown encryption type")

	// ErrInvalidKeyMaterial indicates stored key material cannot be parsed.
	ErrInvalidKeyMaterial = errors.Wrap(errors.ErrInvalidInput, "invalid key material")

	// ErrIntegrityCheckFailed indicates an AEAD open failed: wrong key, wrong
	// account binding or tampered ciphertext.
	ErrIntegrityCheckFailed = errors.Wrap(errors.ErrInvalidInput, "integrity check failed")

	// ErrMissingCredentials indicates a KMS operation was attempted without a config.
	ErrMissingCredentials = errors.Wrap(errors.ErrInvalidInput, "kms credentials required")

	// ErrEncryptionFailed indicates a provider could not encrypt after exhausting its attempts.
	ErrEncryptionFailed = errors.Wrap(errors.ErrUnavailable, "encryption failed")

	// ErrDecryptionFailed indicates a provider could not decrypt after exhausting its attempts.
	ErrDecryptionFailed = errors.Wrap(errors.ErrUnavailable, "decryption failed")
)

// Master key chain errors.
var (
	ErrMasterKeysNotSet        = errors.New("MASTER_KEYS is not set")
	ErrActiveMasterKeyIDNotSet = errors.New("ACTIVE_MASTER_KEY_ID is not set")
	ErrInvalidMasterKeysFormat = errors.New("invalid MASTER_KEYS format")
	ErrInvalidMasterKeyBase64  = errors.New("invalid master key base64")
	ErrActiveMasterKeyNotFound = errors.New("active master key not found")
	ErrMasterKeyNotFound       = errors.Wrap(errors.ErrNotFound, "master key not found")
)

// ProviderError reports a provider operation that failed after Attempts calls.
// It matches both its kind (ErrEncryptionFailed or ErrDecryptionFailed) and the
// last underlying error.
type ProviderError struct {
	Op       string
	Attempts int
	Err      error
	kind     error
}

// NewEncryptionFailedError builds a ProviderError of kind ErrEncryptionFailed.
func NewEncryptionFailedError(op string, attempts int, err error) *ProviderError {
	return &ProviderError{Op: op, Attempts: attempts, Err: err, kind: ErrEncryptionFailed}
}

// NewDecryptionFailedError builds a ProviderError of kind ErrDecryptionFailed.
func NewDecryptionFailedError(op string, attempts int, err error) *ProviderError {
	return &ProviderError{Op: op, Attempts: attempts, Err: err, kind: ErrDecryptionFailed}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s failed after %d attempts: %v", e.kind, e.Op, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{e.kind, e.Err}
}
