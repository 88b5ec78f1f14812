package service

import (
	"fmt"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

// ProviderRegistry maps encryption types to providers.
type ProviderRegistry struct {
	providers map[cryptoDomain.EncryptionType]Provider
}

// NewProviderRegistry registers each provider under its own Type.
func NewProviderRegistry(providers ...Provider) *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[cryptoDomain.EncryptionType]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Type()] = p
	}
	return r
}

// Provider returns the provider for encryptionType.
func (r *ProviderRegistry) Provider(encryptionType cryptoDomain.EncryptionType) (Provider, error) {
	p, ok := r.providers[encryptionType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", cryptoDomain.ErrUnknownEncryptionType, encryptionType)
	}
	return p, nil
}
