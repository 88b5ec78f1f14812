package service

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

// fakeKMS wraps data keys by XOR so Decrypt can recover them without AWS.
type fakeKMS struct {
	mu            sync.Mutex
	failures      int
	generateCalls int
	decryptCalls  int
	lastKeyID     string
	lastContext   map[string]string
}

func (f *fakeKMS) GenerateDataKey(
	_ context.Context,
	params *kms.GenerateDataKeyInput,
	_ ...func(*kms.Options),
) (*kms.GenerateDataKeyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generateCalls++
	f.lastKeyID = aws.ToString(params.KeyId)
	f.lastContext = params.EncryptionContext
	if f.failures > 0 {
		f.failures--
		return nil, assert.AnError
	}

	key := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return &kms.GenerateDataKeyOutput{
		Plaintext:      append([]byte(nil), key...),
		CiphertextBlob: xorBytes(key),
		KeyId:          params.KeyId,
	}, nil
}

func (f *fakeKMS) Decrypt(
	_ context.Context,
	params *kms.DecryptInput,
	_ ...func(*kms.Options),
) (*kms.DecryptOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.decryptCalls++
	if f.failures > 0 {
		f.failures--
		return nil, assert.AnError
	}
	return &kms.DecryptOutput{Plaintext: xorBytes(params.CiphertextBlob)}, nil
}

func xorBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ 0xa5
	}
	return out
}

func newTestKMSProvider(client *fakeKMS, maxAttempts int) (*KMSProvider, *cryptoDomain.Credentials) {
	factory := func(_ context.Context, creds cryptoDomain.Credentials) (KMSClient, error) {
		return client, nil
	}
	provider := NewKMSProvider(factory, NewAEADManager(), KMSProviderConfig{
		MaxAttempts:   maxAttempts,
		RetryInterval: time.Millisecond,
		CallTimeout:   time.Second,
		DefaultRegion: "us-east-1",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	creds := &cryptoDomain.Credentials{
		AccessKey: "AKIA",
		SecretKey: "secret",
		KeyArn:    "arn:aws:kms:us-east-1:111122223333:key/test",
	}
	return provider, creds
}

func TestKMSProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RoundTrip", func(t *testing.T) {
		client := &fakeKMS{}
		provider, creds := newTestKMSProvider(client, 3)
		assert.Equal(t, cryptoDomain.KMS, provider.Type())

		envelope, err := provider.Encrypt(ctx, "acc-1", []byte("s3cr3t"), creds)
		require.NoError(t, err)
		assert.Equal(t, creds.KeyArn, client.lastKeyID)
		assert.Equal(t, map[string]string{"accountId": "acc-1"}, client.lastContext)

		plaintext, err := provider.Decrypt(ctx, "acc-1", envelope, creds)
		require.NoError(t, err)
		assert.Equal(t, []byte("s3cr3t"), plaintext)
	})

	t.Run("Success_RetriesTransientFailure", func(t *testing.T) {
		client := &fakeKMS{failures: 2}
		provider, creds := newTestKMSProvider(client, 3)

		envelope, err := provider.Encrypt(ctx, "acc-1", []byte("value"), creds)
		require.NoError(t, err)
		assert.Equal(t, 3, client.generateCalls)
		assert.NotEmpty(t, envelope.KeyMaterial)
	})

	t.Run("Success_NilPlaintextSkipsKMS", func(t *testing.T) {
		client := &fakeKMS{}
		provider, creds := newTestKMSProvider(client, 3)

		envelope, err := provider.Encrypt(ctx, "acc-1", nil, creds)
		require.NoError(t, err)
		assert.Nil(t, envelope.Ciphertext)

		plaintext, err := provider.Decrypt(ctx, "acc-1", envelope, creds)
		require.NoError(t, err)
		assert.Nil(t, plaintext)
		assert.Zero(t, client.generateCalls)
		assert.Zero(t, client.decryptCalls)
	})

	t.Run("Error_EncryptExhaustsAttempts", func(t *testing.T) {
		client := &fakeKMS{failures: 10}
		provider, creds := newTestKMSProvider(client, 3)

		_, err := provider.Encrypt(ctx, "acc-1", []byte("value"), creds)
		require.Error(t, err)
		assert.ErrorIs(t, err, cryptoDomain.ErrEncryptionFailed)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Equal(t, 3, client.generateCalls)

		var providerErr *cryptoDomain.ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, 3, providerErr.Attempts)
	})

	t.Run("Error_DecryptExhaustsAttempts", func(t *testing.T) {
		client := &fakeKMS{}
		provider, creds := newTestKMSProvider(client, 2)
		envelope, err := provider.Encrypt(ctx, "acc-1", []byte("value"), creds)
		require.NoError(t, err)

		client.failures = 5
		_, err = provider.Decrypt(ctx, "acc-1", envelope, creds)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Contains(t, err.Error(), "after 2 attempts")
		assert.Equal(t, 2, client.decryptCalls)
	})

	t.Run("Error_MissingCredentials", func(t *testing.T) {
		provider, _ := newTestKMSProvider(&fakeKMS{}, 3)
		_, err := provider.Encrypt(ctx, "acc-1", []byte("value"), nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrMissingCredentials)
	})

	t.Run("Error_CanceledContextStopsRetrying", func(t *testing.T) {
		client := &fakeKMS{failures: 10}
		provider, creds := newTestKMSProvider(client, 50)

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := provider.Encrypt(canceled, "acc-1", []byte("value"), creds)
		assert.ErrorIs(t, err, cryptoDomain.ErrEncryptionFailed)
		assert.ErrorIs(t, err, context.Canceled)
		assert.LessOrEqual(t, client.generateCalls, 1)
	})

	t.Run("Success_DefaultRegionApplied", func(t *testing.T) {
		var seen cryptoDomain.Credentials
		factory := func(_ context.Context, creds cryptoDomain.Credentials) (KMSClient, error) {
			seen = creds
			return &fakeKMS{}, nil
		}
		provider := NewKMSProvider(factory, NewAEADManager(), KMSProviderConfig{
			MaxAttempts:   1,
			DefaultRegion: "eu-west-1",
		}, slog.New(slog.NewTextHandler(io.Discard, nil)))

		_, err := provider.Encrypt(ctx, "acc-1", []byte("v"), &cryptoDomain.Credentials{KeyArn: "arn"})
		require.NoError(t, err)
		assert.Equal(t, "eu-west-1", seen.Region)
	})
}
