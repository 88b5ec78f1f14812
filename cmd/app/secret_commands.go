package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/allisson/secretstore/cmd/app/commands"
	"github.com/allisson/secretstore/internal/app"
)

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "offset", Value: 0, Usage: "Entries to skip"},
		&cli.IntFlag{Name: "limit", Value: 50, Usage: "Maximum entries to show"},
	}
}

func secretIDFlag() cli.Flag {
	return &cli.StringFlag{Name: "secret-id", Aliases: []string{"s"}, Required: true, Usage: "Secret ID"}
}

func getSecretCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "list-secrets",
			Usage: "List an account's encrypted values without plaintext",
			Flags: append(append(accountFlags(), pageFlags()...), formatFlag()),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					manager, err := container.SecretManager()
					if err != nil {
						return err
					}
					return commands.RunListSecrets(
						ctx,
						manager,
						commands.DefaultIO().Writer,
						execFlags(cmd).ExecutionContext(),
						int(cmd.Int("offset")),
						int(cmd.Int("limit")),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "change-logs",
			Usage: "Show who changed a secret and when",
			Flags: append(accountFlags(), secretIDFlag(), formatFlag()),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				secretID, err := uuid.Parse(cmd.String("secret-id"))
				if err != nil {
					return fmt.Errorf("invalid secret id: %w", err)
				}
				return withContainer(ctx, func(container *app.Container) error {
					manager, err := container.SecretManager()
					if err != nil {
						return err
					}
					return commands.RunChangeLogs(
						ctx,
						manager,
						commands.DefaultIO().Writer,
						execFlags(cmd).ExecutionContext(),
						secretID,
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "usage-logs",
			Usage: "Show where a secret was resolved",
			Flags: append(append(accountFlags(), secretIDFlag(), formatFlag()), pageFlags()...),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				secretID, err := uuid.Parse(cmd.String("secret-id"))
				if err != nil {
					return fmt.Errorf("invalid secret id: %w", err)
				}
				return withContainer(ctx, func(container *app.Container) error {
					manager, err := container.SecretManager()
					if err != nil {
						return err
					}
					return commands.RunUsageLogs(
						ctx,
						manager,
						commands.DefaultIO().Writer,
						execFlags(cmd).ExecutionContext(),
						secretID,
						int(cmd.Int("offset")),
						int(cmd.Int("limit")),
						cmd.String("format"),
					)
				})
			},
		},
	}
}
