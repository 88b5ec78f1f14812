package app

import (
	"fmt"

	kmsconfigRepository "github.com/allisson/secretstore/internal/kmsconfig/repository"
	kmsconfigUseCase "github.com/allisson/secretstore/internal/kmsconfig/usecase"
)

func (c *Container) KmsConfigRepository() (kmsconfigUseCase.KmsConfigRepository, error) {
	build := func() (kmsconfigUseCase.KmsConfigRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for kms config repository: %w", err)
		}
		if c.isMySQL() {
			return kmsconfigRepository.NewMySQLKmsConfigRepository(db), nil
		}
		return kmsconfigRepository.NewPostgreSQLKmsConfigRepository(db), nil
	}
	return lazy(c, &c.kmsConfigRepositoryInit, "kmsConfigRepository", &c.kmsConfigRepository, build)
}

// KmsConfigUseCase returns the registry. A config stays in use while secrets
// are encrypted with it or pending migration units move to or from it.
func (c *Container) KmsConfigUseCase() (kmsconfigUseCase.KmsConfigUseCase, error) {
	build := func() (kmsconfigUseCase.KmsConfigUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		repo, err := c.KmsConfigRepository()
		if err != nil {
			return nil, err
		}
		secretRepo, err := c.SecretRepository()
		if err != nil {
			return nil, err
		}
		transitionRepo, err := c.TransitionRepository()
		if err != nil {
			return nil, err
		}
		local, err := c.LocalProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get local provider for kms config use case: %w", err)
		}

		return kmsconfigUseCase.NewKmsConfigUseCase(
			txManager,
			repo,
			[]kmsconfigUseCase.UsageCounter{secretRepo, transitionRepo},
			local,
			c.KMSProvider(),
			c.config.ProbeValueSizeBytes,
			c.Logger(),
		), nil
	}
	return lazy(c, &c.kmsConfigUseCaseInit, "kmsConfigUseCase", &c.kmsConfigUseCase, build)
}
