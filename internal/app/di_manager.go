package app

import (
	managerUseCase "github.com/allisson/secretstore/internal/manager/usecase"
)

// SecretManager returns the metrics-decorated manager facade.
func (c *Container) SecretManager() (managerUseCase.SecretManager, error) {
	build := func() (managerUseCase.SecretManager, error) {
		secrets, err := c.SecretUseCase()
		if err != nil {
			return nil, err
		}
		configs, err := c.KmsConfigUseCase()
		if err != nil {
			return nil, err
		}
		audit, err := c.AuditUseCase()
		if err != nil {
			return nil, err
		}
		transitions, err := c.TransitionUseCase()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		manager := managerUseCase.NewSecretManager(
			managerUseCase.Config{MaxFileSizeBytes: c.config.MaxFileSizeBytes},
			secrets,
			configs,
			audit,
			transitions,
			c.Logger(),
		)
		return managerUseCase.NewSecretManagerWithMetrics(manager, businessMetrics), nil
	}
	return lazy(c, &c.secretManagerInit, "secretManager", &c.secretManager, build)
}
