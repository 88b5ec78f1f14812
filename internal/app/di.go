// Package app assembles secretstore components. The container builds each
// component on first access and caches it, or the error that prevented it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
	"github.com/allisson/secretstore/internal/config"
	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	cryptoService "github.com/allisson/secretstore/internal/crypto/service"
	"github.com/allisson/secretstore/internal/database"
	"github.com/allisson/secretstore/internal/http"
	kmsconfigUseCase "github.com/allisson/secretstore/internal/kmsconfig/usecase"
	managerUseCase "github.com/allisson/secretstore/internal/manager/usecase"
	"github.com/allisson/secretstore/internal/metrics"
	secretsUseCase "github.com/allisson/secretstore/internal/secrets/usecase"
	transitionUseCase "github.com/allisson/secretstore/internal/transition/usecase"
)

// Container holds all application dependencies.
type Container struct {
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto
	kmsClientFactory cryptoService.KMSClientFactory
	aeadManager      cryptoService.AEADManager
	kmsService       cryptoService.KMSService
	masterKeyChain   *cryptoDomain.MasterKeyChain
	localProvider    cryptoService.Provider
	kmsProvider      cryptoService.Provider
	providerRegistry cryptoService.ProviderSelector

	// Repositories
	kmsConfigRepository  kmsconfigUseCase.KmsConfigRepository
	changeLogRepository  auditUseCase.ChangeLogRepository
	usageLogRepository   auditUseCase.UsageLogRepository
	secretRepository     secretsUseCase.SecretRepository
	transitionRepository transitionUseCase.TransitionRepository

	// Use cases
	kmsConfigUseCase  kmsconfigUseCase.KmsConfigUseCase
	auditUseCase      auditUseCase.AuditUseCase
	secretUseCase     secretsUseCase.SecretUseCase
	transitionUseCase transitionUseCase.TransitionUseCase
	secretManager     managerUseCase.SecretManager

	// Servers and workers
	transitionWorker transitionUseCase.Worker
	opsServer        *http.OpsServer

	mu                       sync.Mutex
	loggerInit               sync.Once
	dbInit                   sync.Once
	txManagerInit            sync.Once
	metricsProviderInit      sync.Once
	businessMetricsInit      sync.Once
	aeadManagerInit          sync.Once
	kmsServiceInit           sync.Once
	masterKeyChainInit       sync.Once
	localProviderInit        sync.Once
	kmsProviderInit          sync.Once
	providerRegistryInit     sync.Once
	kmsConfigRepositoryInit  sync.Once
	changeLogRepositoryInit  sync.Once
	usageLogRepositoryInit   sync.Once
	secretRepositoryInit     sync.Once
	transitionRepositoryInit sync.Once
	kmsConfigUseCaseInit     sync.Once
	auditUseCaseInit         sync.Once
	secretUseCaseInit        sync.Once
	transitionUseCaseInit    sync.Once
	secretManagerInit        sync.Once
	transitionWorkerInit     sync.Once
	opsServerInit            sync.Once
	initErrors               map[string]error
}

// Option customizes a Container before first use.
type Option func(*Container)

// WithKMSClientFactory replaces the AWS SDK client used by the KMS provider.
func WithKMSClientFactory(factory cryptoService.KMSClientFactory) Option {
	return func(c *Container) {
		c.kmsClientFactory = factory
	}
}

// NewContainer creates a container for cfg.
func NewContainer(cfg *config.Config, opts ...Option) *Container {
	c := &Container{
		config:           cfg,
		kmsClientFactory: cryptoService.NewAWSKMSClient,
		initErrors:       make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// lazy runs build once and caches its result or error under name.
func lazy[T any](c *Container, once *sync.Once, name string, target *T, build func() (T, error)) (T, error) {
	once.Do(func() {
		value, err := build()
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.initErrors[name] = err
			return
		}
		*target = value
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err, exists := c.initErrors[name]; exists {
		var zero T
		return zero, err
	}
	return *target, nil
}

func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns a JSON logger on stdout at the configured level.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

func (c *Container) DB() (*sql.DB, error) {
	return lazy(c, &c.dbInit, "db", &c.db, c.initDB)
}

func (c *Container) TxManager() (database.TxManager, error) {
	return lazy(c, &c.txManagerInit, "txManager", &c.txManager, func() (database.TxManager, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		return database.NewTxManager(db), nil
	})
}

// MetricsProvider returns nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	build := func() (*metrics.Provider, error) {
		if !c.config.MetricsEnabled {
			return nil, nil
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics provider: %w", err)
		}
		return provider, nil
	}
	return lazy(c, &c.metricsProviderInit, "metricsProvider", &c.metricsProvider, build)
}

// BusinessMetrics returns a no-op recorder when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	build := func() (metrics.BusinessMetrics, error) {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		if provider == nil {
			return metrics.NewNoOpBusinessMetrics(), nil
		}
		return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	}
	return lazy(c, &c.businessMetricsInit, "businessMetrics", &c.businessMetrics, build)
}

// OpsServer returns the health and metrics server.
func (c *Container) OpsServer() (*http.OpsServer, error) {
	return lazy(c, &c.opsServerInit, "opsServer", &c.opsServer, func() (*http.OpsServer, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for ops server: %w", err)
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		return http.NewOpsServer(c.config.MetricsHost, c.config.MetricsPort, db, c.Logger(), provider), nil
	})
}

// Shutdown releases everything the container built.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.opsServer != nil {
		if err := c.opsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("ops server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.masterKeyChain != nil {
		c.masterKeyChain.Close()
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

func (c *Container) isMySQL() bool {
	return c.config.DBDriver == database.DriverMySQL
}

func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
