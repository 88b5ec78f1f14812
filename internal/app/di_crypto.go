package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	cryptoService "github.com/allisson/secretstore/internal/crypto/service"
)

func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// MasterKeyChain decodes MASTER_KEYS, unwrapping them through KMS_KEY_URI
// when set. It fails fast when the keys are missing or malformed.
func (c *Container) MasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	build := func() (*cryptoDomain.MasterKeyChain, error) {
		chain, err := c.KMSService().LoadMasterKeyChain(
			context.Background(),
			c.config.MasterKeys,
			c.config.ActiveMasterKeyID,
			c.config.KMSKeyURI,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load master key chain: %w", err)
		}
		return chain, nil
	}
	return lazy(c, &c.masterKeyChainInit, "masterKeyChain", &c.masterKeyChain, build)
}

// LocalProvider seals values with the master key chain.
func (c *Container) LocalProvider() (cryptoService.Provider, error) {
	build := func() (cryptoService.Provider, error) {
		chain, err := c.MasterKeyChain()
		if err != nil {
			return nil, err
		}
		return cryptoService.NewLocalProvider(
			chain,
			c.AEADManager(),
			cryptoDomain.Algorithm(c.config.LocalAlgorithm),
		), nil
	}
	return lazy(c, &c.localProviderInit, "localProvider", &c.localProvider, build)
}

// KMSProvider seals values with AWS KMS data keys.
func (c *Container) KMSProvider() cryptoService.Provider {
	c.kmsProviderInit.Do(func() {
		c.kmsProvider = cryptoService.NewKMSProvider(
			c.kmsClientFactory,
			c.AEADManager(),
			cryptoService.KMSProviderConfig{
				MaxAttempts:   c.config.KMSMaxAttempts,
				RetryInterval: c.config.KMSRetryInterval,
				CallTimeout:   c.config.KMSCallTimeout,
				DefaultRegion: c.config.KMSDefaultRegion,
				RateLimit:     c.config.KMSRateLimitPerSec,
				RateBurst:     c.config.KMSRateLimitBurst,
			},
			c.Logger(),
		)
	})
	return c.kmsProvider
}

func (c *Container) ProviderRegistry() (cryptoService.ProviderSelector, error) {
	build := func() (cryptoService.ProviderSelector, error) {
		local, err := c.LocalProvider()
		if err != nil {
			return nil, err
		}
		return cryptoService.NewProviderRegistry(local, c.KMSProvider()), nil
	}
	return lazy(c, &c.providerRegistryInit, "providerRegistry", &c.providerRegistry, build)
}
