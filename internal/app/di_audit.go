package app

import (
	"fmt"

	auditRepository "github.com/allisson/secretstore/internal/audit/repository"
	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
)

func (c *Container) ChangeLogRepository() (auditUseCase.ChangeLogRepository, error) {
	build := func() (auditUseCase.ChangeLogRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for change log repository: %w", err)
		}
		if c.isMySQL() {
			return auditRepository.NewMySQLChangeLogRepository(db), nil
		}
		return auditRepository.NewPostgreSQLChangeLogRepository(db), nil
	}
	return lazy(c, &c.changeLogRepositoryInit, "changeLogRepository", &c.changeLogRepository, build)
}

func (c *Container) UsageLogRepository() (auditUseCase.UsageLogRepository, error) {
	build := func() (auditUseCase.UsageLogRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for usage log repository: %w", err)
		}
		if c.isMySQL() {
			return auditRepository.NewMySQLUsageLogRepository(db), nil
		}
		return auditRepository.NewPostgreSQLUsageLogRepository(db), nil
	}
	return lazy(c, &c.usageLogRepositoryInit, "usageLogRepository", &c.usageLogRepository, build)
}

func (c *Container) AuditUseCase() (auditUseCase.AuditUseCase, error) {
	build := func() (auditUseCase.AuditUseCase, error) {
		changeLogs, err := c.ChangeLogRepository()
		if err != nil {
			return nil, err
		}
		usageLogs, err := c.UsageLogRepository()
		if err != nil {
			return nil, err
		}
		return auditUseCase.NewAuditUseCase(changeLogs, usageLogs), nil
	}
	return lazy(c, &c.auditUseCaseInit, "auditUseCase", &c.auditUseCase, build)
}
