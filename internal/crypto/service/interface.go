// Package service implements the encryption providers: AEAD ciphers, the
// local master-key envelope provider, the remote AWS KMS provider and the
// gocloud.dev keeper used to unlock master keys.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

// AEAD is an authenticated cipher bound to one key.
type AEAD interface {
	// Encrypt seals plaintext with a fresh random nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt opens ciphertext; it fails when the key, nonce or aad do not match.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager creates AEAD ciphers for a key and algorithm.
type AEADManager interface {
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// Provider encrypts and decrypts secret values. Every provider must satisfy
// Decrypt(Encrypt(p)) == p, with a nil plaintext round-tripping to nil.
// creds is nil for the local provider.
type Provider interface {
	Type() cryptoDomain.EncryptionType

	Encrypt(
		ctx context.Context,
		accountID string,
		plaintext []byte,
		creds *cryptoDomain.Credentials,
	) (*cryptoDomain.Envelope, error)

	Decrypt(
		ctx context.Context,
		accountID string,
		envelope *cryptoDomain.Envelope,
		creds *cryptoDomain.Credentials,
	) ([]byte, error)
}

// ProviderSelector returns the provider registered for an encryption type.
type ProviderSelector interface {
	Provider(encryptionType cryptoDomain.EncryptionType) (Provider, error)
}
