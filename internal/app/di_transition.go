package app

import (
	"fmt"

	transitionRepository "github.com/allisson/secretstore/internal/transition/repository"
	transitionUseCase "github.com/allisson/secretstore/internal/transition/usecase"
)

func (c *Container) TransitionRepository() (transitionUseCase.TransitionRepository, error) {
	build := func() (transitionUseCase.TransitionRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for transition repository: %w", err)
		}
		if c.isMySQL() {
			return transitionRepository.NewMySQLTransitionRepository(db), nil
		}
		return transitionRepository.NewPostgreSQLTransitionRepository(db), nil
	}
	return lazy(c, &c.transitionRepositoryInit, "transitionRepository", &c.transitionRepository, build)
}

func (c *Container) TransitionUseCase() (transitionUseCase.TransitionUseCase, error) {
	build := func() (transitionUseCase.TransitionUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		repo, err := c.TransitionRepository()
		if err != nil {
			return nil, err
		}
		secretRepo, err := c.SecretRepository()
		if err != nil {
			return nil, err
		}
		configs, err := c.KmsConfigUseCase()
		if err != nil {
			return nil, err
		}
		return transitionUseCase.NewTransitionUseCase(txManager, repo, secretRepo, configs, c.Logger()), nil
	}
	return lazy(c, &c.transitionUseCaseInit, "transitionUseCase", &c.transitionUseCase, build)
}

// TransitionWorker returns the single consumer of the migration queue.
func (c *Container) TransitionWorker() (transitionUseCase.Worker, error) {
	build := func() (transitionUseCase.Worker, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		repo, err := c.TransitionRepository()
		if err != nil {
			return nil, err
		}
		secrets, err := c.SecretUseCase()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		return transitionUseCase.NewTransitionWorker(
			transitionUseCase.Config{
				Interval:   c.config.TransitionInterval,
				BatchSize:  c.config.TransitionBatchSize,
				MaxRetries: c.config.TransitionMaxRetries,
			},
			txManager,
			repo,
			transitionUseCase.NewMigratorWithMetrics(secrets, businessMetrics),
			c.Logger(),
		), nil
	}
	return lazy(c, &c.transitionWorkerInit, "transitionWorker", &c.transitionWorker, build)
}
