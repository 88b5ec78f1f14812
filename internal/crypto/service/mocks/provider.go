// Package mocks provides test doubles for crypto providers.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	cryptoService "github.com/allisson/secretstore/internal/crypto/service"
)

// MockProvider is a mock cryptoService.Provider.
type MockProvider struct {
	mock.Mock
}

// NewMockProvider creates a MockProvider that asserts its expectations on cleanup.
func NewMockProvider(t *testing.T) *MockProvider {
	m := &MockProvider{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Type mocks Provider.Type.
func (m *MockProvider) Type() cryptoDomain.EncryptionType {
	args := m.Called()
	return args.Get(0).(cryptoDomain.EncryptionType)
}

// Encrypt mocks Provider.Encrypt.
func (m *MockProvider) Encrypt(
	ctx context.Context,
	accountID string,
	plaintext []byte,
	creds *cryptoDomain.Credentials,
) (*cryptoDomain.Envelope, error) {
	args := m.Called(ctx, accountID, plaintext, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Envelope), args.Error(1)
}

// Decrypt mocks Provider.Decrypt.
func (m *MockProvider) Decrypt(
	ctx context.Context,
	accountID string,
	envelope *cryptoDomain.Envelope,
	creds *cryptoDomain.Credentials,
) ([]byte, error) {
	args := m.Called(ctx, accountID, envelope, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// EchoProvider is a reversible in-memory provider for use case tests: the
// ciphertext is the plaintext with a type prefix.
type EchoProvider struct {
	Kind cryptoDomain.EncryptionType
}

// Type returns p.Kind.
func (p *EchoProvider) Type() cryptoDomain.EncryptionType {
	return p.Kind
}

// Encrypt prefixes plaintext with the provider type.
func (p *EchoProvider) Encrypt(
	_ context.Context,
	accountID string,
	plaintext []byte,
	_ *cryptoDomain.Credentials,
) (*cryptoDomain.Envelope, error) {
	envelope := &cryptoDomain.Envelope{KeyMaterial: []byte(string(p.Kind) + ":" + accountID)}
	if plaintext != nil {
		envelope.Ciphertext = append([]byte(string(p.Kind)+"|"), plaintext...)
	}
	return envelope, nil
}

// Decrypt strips the prefix added by Encrypt.
func (p *EchoProvider) Decrypt(
	_ context.Context,
	_ string,
	envelope *cryptoDomain.Envelope,
	_ *cryptoDomain.Credentials,
) ([]byte, error) {
	if envelope == nil || envelope.Ciphertext == nil {
		return nil, nil
	}
	prefix := len(p.Kind) + 1
	if len(envelope.Ciphertext) < prefix || string(envelope.Ciphertext[:prefix-1]) != string(p.Kind) {
		return nil, cryptoDomain.ErrIntegrityCheckFailed
	}
	return append([]byte{}, envelope.Ciphertext[prefix:]...), nil
}

var (
	_ cryptoService.Provider = (*MockProvider)(nil)
	_ cryptoService.Provider = (*EchoProvider)(nil)
)
