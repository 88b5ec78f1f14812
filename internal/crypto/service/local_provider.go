package service

import (
	"context"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

// LocalProvider encrypts each value under a fresh data key wrapped by the
// active master key. The account ID is the AAD for both the wrap and the data
// so a record copied to another account fails to open.
type LocalProvider struct {
	chain       *cryptoDomain.MasterKeyChain
	aeadManager AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewLocalProvider creates a LocalProvider.
func NewLocalProvider(
	chain *cryptoDomain.MasterKeyChain,
	aeadManager AEADManager,
	algorithm cryptoDomain.Algorithm,
) *LocalProvider {
	return &LocalProvider{
		chain:       chain,
		aeadManager: aeadManager,
		algorithm:   algorithm,
	}
}

// Type returns cryptoDomain.Local.
func (p *LocalProvider) Type() cryptoDomain.EncryptionType {
	return cryptoDomain.Local
}

// Encrypt generates and wraps a data key even for a nil plaintext; in that case
// the envelope carries the key material and a nil ciphertext.
func (p *LocalProvider) Encrypt(
	_ context.Context,
	accountID string,
	plaintext []byte,
	_ *cryptoDomain.Credentials,
) (*cryptoDomain.Envelope, error) {
	masterKey, err := p.chain.Active()
	if err != nil {
		return nil, err
	}

	dek := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(dek); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}
	defer cryptoDomain.Zero(dek)

	wrapCipher, err := p.aeadManager.CreateCipher(masterKey.Key, p.algorithm)
	if err != nil {
		return nil, err
	}

	wrapped, nonce, err := wrapCipher.Encrypt(dek, []byte(accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to wrap data key: %w", err)
	}

	envelope := &cryptoDomain.Envelope{
		KeyMaterial: cryptoDomain.WrappedKey{
			MasterKeyID: masterKey.ID,
			Algorithm:   p.algorithm,
			Nonce:       nonce,
			Key:         wrapped,
		}.Bytes(),
	}

	if plaintext == nil {
		return envelope, nil
	}

	envelope.Ciphertext, err = seal(p.aeadManager, dek, p.algorithm, plaintext, []byte(accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt value: %w", err)
	}

	return envelope, nil
}

// Decrypt unwraps the data key with the master key named in the key material,
// which need not be the active one.
func (p *LocalProvider) Decrypt(
	_ context.Context,
	accountID string,
	envelope *cryptoDomain.Envelope,
	_ *cryptoDomain.Credentials,
) ([]byte, error) {
	if envelope == nil || envelope.Ciphertext == nil {
		return nil, nil
	}

	wrappedKey, err := cryptoDomain.ParseWrappedKey(envelope.KeyMaterial)
	if err != nil {
		return nil, err
	}

	masterKey, ok := p.chain.Get(wrappedKey.MasterKeyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cryptoDomain.ErrMasterKeyNotFound, wrappedKey.MasterKeyID)
	}

	unwrapCipher, err := p.aeadManager.CreateCipher(masterKey.Key, wrappedKey.Algorithm)
	if err != nil {
		return nil, err
	}

	dek, err := unwrapCipher.Decrypt(wrappedKey.Key, wrappedKey.Nonce, []byte(accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap data key: %w", err)
	}
	defer cryptoDomain.Zero(dek)

	return open(p.aeadManager, dek, wrappedKey.Algorithm, envelope.Ciphertext, []byte(accountID))
}
