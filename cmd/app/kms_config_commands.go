package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/allisson/secretstore/cmd/app/commands"
	"github.com/allisson/secretstore/internal/app"
	kmsconfigUseCase "github.com/allisson/secretstore/internal/kmsconfig/usecase"
)

func saveInputFromCommand(cmd *cli.Command) (kmsconfigUseCase.SaveInput, error) {
	if path := cmd.String("file"); path != "" {
		file, err := os.Open(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return kmsconfigUseCase.SaveInput{}, fmt.Errorf("failed to open kms config file: %w", err)
		}
		defer func() { _ = file.Close() }()

		input, err := commands.ParseKmsConfigFile(file)
		if err != nil {
			return kmsconfigUseCase.SaveInput{}, err
		}
		if input.AccountID == "" {
			input.AccountID = cmd.String("account-id")
		}
		return input, nil
	}

	input := kmsconfigUseCase.SaveInput{
		AccountID: cmd.String("account-id"),
		Name:      cmd.String("name"),
		AccessKey: cmd.String("access-key"),
		SecretKey: cmd.String("secret-key"),
		KmsArn:    cmd.String("kms-arn"),
		Region:    cmd.String("region"),
		IsDefault: cmd.Bool("default"),
	}
	if raw := cmd.String("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return kmsconfigUseCase.SaveInput{}, fmt.Errorf("invalid kms config id %q: %w", raw, err)
		}
		input.ID = &id
	}
	return input, nil
}

func getKmsConfigCommands() *cli.Command {
	return &cli.Command{
		Name:  "kms-config",
		Usage: "Manage AWS KMS configurations",
		Commands: []*cli.Command{
			{
				Name:  "save",
				Usage: "Create or update a config after a live encrypt/decrypt check",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "account-id", Aliases: []string{"a"}, Usage: "Owning account (GLOBAL for the fallback)"},
					&cli.StringFlag{Name: "file", Usage: "YAML file with the config fields"},
					&cli.StringFlag{Name: "id", Usage: "Config ID to update"},
					&cli.StringFlag{Name: "name", Usage: "Config name"},
					&cli.StringFlag{Name: "access-key", Usage: "AWS access key ID"},
					&cli.StringFlag{Name: "secret-key", Usage: "AWS secret access key"},
					&cli.StringFlag{Name: "kms-arn", Usage: "KMS key ARN"},
					&cli.StringFlag{Name: "region", Usage: "AWS region"},
					&cli.BoolFlag{Name: "default", Usage: "Make this the account default"},
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					input, err := saveInputFromCommand(cmd)
					if err != nil {
						return err
					}
					return withContainer(ctx, func(container *app.Container) error {
						configs, err := container.KmsConfigUseCase()
						if err != nil {
							return err
						}
						return commands.RunSaveKmsConfig(
							ctx,
							configs,
							container.Logger(),
							commands.DefaultIO().Writer,
							input,
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "list",
				Usage: "List an account's configs with secrets masked",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "account-id", Aliases: []string{"a"}, Required: true, Usage: "Account to list"},
					&cli.BoolFlag{Name: "include-global", Usage: "Merge in the global default"},
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(container *app.Container) error {
						configs, err := container.KmsConfigUseCase()
						if err != nil {
							return err
						}
						return commands.RunListKmsConfigs(
							ctx,
							configs,
							commands.DefaultIO().Writer,
							cmd.String("account-id"),
							cmd.Bool("include-global"),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a config nothing references",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "account-id", Aliases: []string{"a"}, Required: true, Usage: "Owning account"},
					&cli.StringFlag{Name: "id", Required: true, Usage: "Config ID"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := uuid.Parse(cmd.String("id"))
					if err != nil {
						return fmt.Errorf("invalid kms config id: %w", err)
					}
					return withContainer(ctx, func(container *app.Container) error {
						configs, err := container.KmsConfigUseCase()
						if err != nil {
							return err
						}
						return commands.RunDeleteKmsConfig(
							ctx,
							configs,
							container.Logger(),
							commands.DefaultIO().Writer,
							cmd.String("account-id"),
							id,
						)
					})
				},
			},
		},
	}
}
