package app

import (
	"fmt"

	secretsRepository "github.com/allisson/secretstore/internal/secrets/repository"
	secretsUseCase "github.com/allisson/secretstore/internal/secrets/usecase"
)

func (c *Container) SecretRepository() (secretsUseCase.SecretRepository, error) {
	build := func() (secretsUseCase.SecretRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for secret repository: %w", err)
		}
		if c.isMySQL() {
			return secretsRepository.NewMySQLSecretRepository(db), nil
		}
		return secretsRepository.NewPostgreSQLSecretRepository(db), nil
	}
	return lazy(c, &c.secretRepositoryInit, "secretRepository", &c.secretRepository, build)
}

func (c *Container) SecretUseCase() (secretsUseCase.SecretUseCase, error) {
	build := func() (secretsUseCase.SecretUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		repo, err := c.SecretRepository()
		if err != nil {
			return nil, err
		}
		configs, err := c.KmsConfigUseCase()
		if err != nil {
			return nil, err
		}
		providers, err := c.ProviderRegistry()
		if err != nil {
			return nil, err
		}
		audit, err := c.AuditUseCase()
		if err != nil {
			return nil, err
		}
		return secretsUseCase.NewSecretUseCase(txManager, repo, configs, providers, audit, c.Logger()), nil
	}
	return lazy(c, &c.secretUseCaseInit, "secretUseCase", &c.secretUseCase, build)
}
