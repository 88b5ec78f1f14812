// Package commands implements the secretstore CLI actions. Each Run function
// takes its dependencies explicitly so it can be driven by mocks in tests.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	managerDomain "github.com/allisson/secretstore/internal/manager/domain"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// ExecFlags are the identity flags shared by account-scoped commands.
type ExecFlags struct {
	AccountID string
	UserID    string
	UserEmail string
	UserName  string
}

// ExecutionContext attributes CLI actions to the operator.
func (f ExecFlags) ExecutionContext() managerDomain.ExecutionContext {
	return managerDomain.ExecutionContext{
		AccountID: f.AccountID,
		AppID:     "cli",
		User: auditDomain.User{
			ID:    f.UserID,
			Email: f.UserEmail,
			Name:  f.UserName,
		},
	}
}

// ParseTarget reads "LOCAL" or "KMS:<config-id>".
func ParseTarget(raw string) (secretsDomain.Target, error) {
	if strings.EqualFold(raw, "local") {
		return secretsDomain.LocalTarget(), nil
	}

	kind, id, found := strings.Cut(raw, ":")
	if !found || !strings.EqualFold(kind, "kms") {
		return secretsDomain.Target{}, fmt.Errorf("invalid target %q (expected LOCAL or KMS:<config-id>)", raw)
	}
	kmsID, err := uuid.Parse(id)
	if err != nil {
		return secretsDomain.Target{}, fmt.Errorf("invalid kms config id %q: %w", id, err)
	}
	return secretsDomain.KMSTarget(kmsID), nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := m.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}
