package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

// aeadCipher adapts a cipher.AEAD to the AEAD interface with random nonces.
type aeadCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates an AES-256-GCM cipher. key must be 32 bytes.
func NewAESGCM(key []byte) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, errors.New("key must be exactly 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &aeadCipher{aead: aead}, nil
}

// NewChaCha20Poly1305 creates a ChaCha20-Poly1305 cipher. key must be 32 bytes.
func NewChaCha20Poly1305(key []byte) (AEAD, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &aeadCipher{aead: aead}, nil
}

func (c *aeadCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = c.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

func (c *aeadCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != c.aead.NonceSize() {
		return nil, cryptoDomain.ErrIntegrityCheckFailed
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrIntegrityCheckFailed, err)
	}
	return plaintext, nil
}

// seal encrypts plaintext with key and returns nonce||ciphertext.
func seal(aeadManager AEADManager, key []byte, alg cryptoDomain.Algorithm, plaintext, aad []byte) ([]byte, error) {
	c, err := aeadManager.CreateCipher(key, alg)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := c.Encrypt(plaintext, aad)
	if err != nil {
		return nil, err
	}

	return append(nonce, ciphertext...), nil
}

// open reverses seal. A sealed empty plaintext opens to an empty, non-nil slice
// so it stays distinguishable from an absent value.
func open(aeadManager AEADManager, key []byte, alg cryptoDomain.Algorithm, sealed, aad []byte) ([]byte, error) {
	const nonceSize = 12
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", cryptoDomain.ErrIntegrityCheckFailed)
	}

	c, err := aeadManager.CreateCipher(key, alg)
	if err != nil {
		return nil, err
	}

	plaintext, err := c.Decrypt(sealed[nonceSize:], sealed[:nonceSize], aad)
	if err != nil {
		return nil, err
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
