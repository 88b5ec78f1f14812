package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/allisson/secretstore/cmd/app/commands"
	"github.com/allisson/secretstore/internal/app"
)

func getTransitionCommands() *cli.Command {
	return &cli.Command{
		Name:  "transition",
		Usage: "Move an account's secrets between encryption backends",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Enqueue a transition; the server's worker performs it",
				Flags: append(accountFlags(),
					&cli.StringFlag{Name: "from", Required: true, Usage: "Source: LOCAL or KMS:<config-id>"},
					&cli.StringFlag{Name: "to", Required: true, Usage: "Destination: LOCAL or KMS:<config-id>"},
					formatFlag(),
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(container *app.Container) error {
						manager, err := container.SecretManager()
						if err != nil {
							return err
						}
						return commands.RunStartTransition(
							ctx,
							manager,
							container.Logger(),
							commands.DefaultIO().Writer,
							execFlags(cmd).ExecutionContext(),
							cmd.String("from"),
							cmd.String("to"),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "get",
				Usage: "Show a transition's progress",
				Flags: append(accountFlags(),
					&cli.StringFlag{Name: "id", Required: true, Usage: "Transition ID"},
					formatFlag(),
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := uuid.Parse(cmd.String("id"))
					if err != nil {
						return fmt.Errorf("invalid transition id: %w", err)
					}
					return withContainer(ctx, func(container *app.Container) error {
						manager, err := container.SecretManager()
						if err != nil {
							return err
						}
						return commands.RunGetTransition(
							ctx,
							manager,
							commands.DefaultIO().Writer,
							execFlags(cmd).ExecutionContext(),
							id,
							cmd.String("format"),
						)
					})
				},
			},
		},
	}
}
