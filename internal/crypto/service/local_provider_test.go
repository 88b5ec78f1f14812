package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

func newTestChain(t *testing.T, activeID string, ids ...string) *cryptoDomain.MasterKeyChain {
	t.Helper()
	keys := make([]*cryptoDomain.MasterKey, 0, len(ids))
	for i, id := range ids {
		keys = append(keys, &cryptoDomain.MasterKey{
			ID:  id,
			Key: bytes.Repeat([]byte{byte(i + 1)}, cryptoDomain.KeySize),
		})
	}
	chain, err := cryptoDomain.NewMasterKeyChain(activeID, keys...)
	require.NoError(t, err)
	t.Cleanup(chain.Close)
	return chain
}

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RoundTrip", func(t *testing.T) {
		for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
			provider := NewLocalProvider(newTestChain(t, "k1", "k1"), NewAEADManager(), alg)
			assert.Equal(t, cryptoDomain.Local, provider.Type())

			envelope, err := provider.Encrypt(ctx, "acc-1", []byte("s3cr3t"), nil)
			require.NoError(t, err)
			assert.NotContains(t, string(envelope.Ciphertext), "s3cr3t")

			wrapped, err := cryptoDomain.ParseWrappedKey(envelope.KeyMaterial)
			require.NoError(t, err)
			assert.Equal(t, "k1", wrapped.MasterKeyID)
			assert.Equal(t, alg, wrapped.Algorithm)

			plaintext, err := provider.Decrypt(ctx, "acc-1", envelope, nil)
			require.NoError(t, err)
			assert.Equal(t, []byte("s3cr3t"), plaintext)
		}
	})

	t.Run("Success_NilPlaintextStillGetsKeyMaterial", func(t *testing.T) {
		provider := NewLocalProvider(newTestChain(t, "k1", "k1"), NewAEADManager(), cryptoDomain.AESGCM)

		first, err := provider.Encrypt(ctx, "acc-1", nil, nil)
		require.NoError(t, err)
		assert.Nil(t, first.Ciphertext)
		assert.NotEmpty(t, first.KeyMaterial)

		second, err := provider.Encrypt(ctx, "acc-1", nil, nil)
		require.NoError(t, err)
		assert.NotEqual(t, first.KeyMaterial, second.KeyMaterial)

		plaintext, err := provider.Decrypt(ctx, "acc-1", first, nil)
		require.NoError(t, err)
		assert.Nil(t, plaintext)
	})

	t.Run("Success_EmptyPlaintextIsNotNil", func(t *testing.T) {
		provider := NewLocalProvider(newTestChain(t, "k1", "k1"), NewAEADManager(), cryptoDomain.AESGCM)

		envelope, err := provider.Encrypt(ctx, "acc-1", []byte{}, nil)
		require.NoError(t, err)
		assert.NotNil(t, envelope.Ciphertext)

		plaintext, err := provider.Decrypt(ctx, "acc-1", envelope, nil)
		require.NoError(t, err)
		assert.NotNil(t, plaintext)
		assert.Empty(t, plaintext)
	})

	t.Run("Success_DecryptsWithRotatedOutKey", func(t *testing.T) {
		old := NewLocalProvider(newTestChain(t, "k1", "k1", "k2"), NewAEADManager(), cryptoDomain.AESGCM)
		envelope, err := old.Encrypt(ctx, "acc-1", []byte("value"), nil)
		require.NoError(t, err)

		rotated := NewLocalProvider(newTestChain(t, "k2", "k1", "k2"), NewAEADManager(), cryptoDomain.AESGCM)
		plaintext, err := rotated.Decrypt(ctx, "acc-1", envelope, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), plaintext)
	})

	t.Run("Error_OtherAccountCannotOpen", func(t *testing.T) {
		provider := NewLocalProvider(newTestChain(t, "k1", "k1"), NewAEADManager(), cryptoDomain.AESGCM)
		envelope, err := provider.Encrypt(ctx, "acc-1", []byte("value"), nil)
		require.NoError(t, err)

		_, err = provider.Decrypt(ctx, "acc-2", envelope, nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrIntegrityCheckFailed)
	})

	t.Run("Error_UnknownMasterKey", func(t *testing.T) {
		provider := NewLocalProvider(newTestChain(t, "k1", "k1"), NewAEADManager(), cryptoDomain.AESGCM)
		envelope, err := provider.Encrypt(ctx, "acc-1", []byte("value"), nil)
		require.NoError(t, err)

		other := NewLocalProvider(newTestChain(t, "k9", "k9"), NewAEADManager(), cryptoDomain.AESGCM)
		_, err = other.Decrypt(ctx, "acc-1", envelope, nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyNotFound)
	})

	t.Run("Error_InvalidKeyMaterial", func(t *testing.T) {
		provider := NewLocalProvider(newTestChain(t, "k1", "k1"), NewAEADManager(), cryptoDomain.AESGCM)
		_, err := provider.Decrypt(ctx, "acc-1", &cryptoDomain.Envelope{
			Ciphertext:  []byte("0123456789012345678901234567890"),
			KeyMaterial: []byte("garbage"),
		}, nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeyMaterial)
	})

	t.Run("Error_UnsupportedAlgorithm", func(t *testing.T) {
		provider := NewLocalProvider(newTestChain(t, "k1", "k1"), NewAEADManager(), cryptoDomain.Algorithm("des"))
		_, err := provider.Encrypt(ctx, "acc-1", []byte("value"), nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})
}

func TestProviderRegistry(t *testing.T) {
	local := NewLocalProvider(newTestChain(t, "k1", "k1"), NewAEADManager(), cryptoDomain.AESGCM)
	registry := NewProviderRegistry(local)

	p, err := registry.Provider(cryptoDomain.Local)
	require.NoError(t, err)
	assert.Same(t, local, p)

	_, err = registry.Provider(cryptoDomain.KMS)
	assert.ErrorIs(t, err, cryptoDomain.ErrUnknownEncryptionType)
}
