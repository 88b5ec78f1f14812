package domain

// Algorithm names an AEAD cipher used by the local provider.
type Algorithm string

const (
	// AESGCM is AES-256-GCM with a 12-byte nonce.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305 with a 12-byte nonce.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// EncryptionType identifies the provider that produced an envelope.
type EncryptionType string

const (
	// Local envelopes are wrapped by the in-process master key chain.
	Local EncryptionType = "LOCAL"

	// KMS envelopes carry a data key generated and wrapped by a remote KMS.
	KMS EncryptionType = "KMS"
)

// Valid reports whether t is a known encryption type.
func (t EncryptionType) Valid() bool {
	return t == Local || t == KMS
}

// KeySize is the size in bytes of every master key and data key.
const KeySize = 32
