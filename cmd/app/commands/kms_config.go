package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
	kmsconfigUseCase "github.com/allisson/secretstore/internal/kmsconfig/usecase"
)

// kmsConfigFile is the YAML form accepted by "kms-config save --file".
type kmsConfigFile struct {
	ID        string `yaml:"id"`
	AccountID string `yaml:"account_id"`
	Name      string `yaml:"name"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	KmsArn    string `yaml:"kms_arn"`
	Region    string `yaml:"region"`
	IsDefault bool   `yaml:"is_default"`
}

// ParseKmsConfigFile decodes a YAML config document. Unknown keys are rejected.
func ParseKmsConfigFile(r io.Reader) (kmsconfigUseCase.SaveInput, error) {
	var file kmsConfigFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return kmsconfigUseCase.SaveInput{}, fmt.Errorf("failed to parse kms config file: %w", err)
	}

	input := kmsconfigUseCase.SaveInput{
		AccountID: file.AccountID,
		Name:      file.Name,
		AccessKey: file.AccessKey,
		SecretKey: file.SecretKey,
		KmsArn:    file.KmsArn,
		Region:    file.Region,
		IsDefault: file.IsDefault,
	}
	if file.ID != "" {
		id, err := uuid.Parse(file.ID)
		if err != nil {
			return kmsconfigUseCase.SaveInput{}, fmt.Errorf("invalid kms config id %q: %w", file.ID, err)
		}
		input.ID = &id
	}
	return input, nil
}

// RunSaveKmsConfig validates and stores a config, printing the masked result.
func RunSaveKmsConfig(
	ctx context.Context,
	configs kmsconfigUseCase.KmsConfigUseCase,
	logger *slog.Logger,
	writer io.Writer,
	input kmsconfigUseCase.SaveInput,
	format string,
) error {
	view, err := configs.Save(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to save kms config: %w", err)
	}

	logger.Info("kms config saved",
		slog.String("id", view.ID.String()),
		slog.String("account_id", view.AccountID),
		slog.Bool("is_default", view.IsDefault),
	)
	return writeKmsConfigs(writer, []*kmsconfigDomain.KmsConfigView{view}, format)
}

// RunListKmsConfigs prints the account's configs, optionally merged with
// the global default.
func RunListKmsConfigs(
	ctx context.Context,
	configs kmsconfigUseCase.KmsConfigUseCase,
	writer io.Writer,
	accountID string,
	includeGlobal bool,
	format string,
) error {
	views, err := configs.List(ctx, accountID, includeGlobal)
	if err != nil {
		return fmt.Errorf("failed to list kms configs: %w", err)
	}
	return writeKmsConfigs(writer, views, format)
}

// RunDeleteKmsConfig removes a config no secret or pending migration uses.
func RunDeleteKmsConfig(
	ctx context.Context,
	configs kmsconfigUseCase.KmsConfigUseCase,
	logger *slog.Logger,
	writer io.Writer,
	accountID string,
	id uuid.UUID,
) error {
	if err := configs.Delete(ctx, accountID, id); err != nil {
		return fmt.Errorf("failed to delete kms config: %w", err)
	}

	logger.Info("kms config deleted", slog.String("id", id.String()), slog.String("account_id", accountID))
	_, _ = fmt.Fprintf(writer, "Deleted kms config %s\n", id)
	return nil
}

func writeKmsConfigs(writer io.Writer, views []*kmsconfigDomain.KmsConfigView, format string) error {
	if format == "json" {
		return writeJSON(writer, views)
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tREGION\tACCESS KEY\tDEFAULT\tGLOBAL")
	for _, v := range views {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\n", v.ID, v.Name, v.Region, v.AccessKey, v.IsDefault, v.IsGlobal)
	}
	return tw.Flush()
}
