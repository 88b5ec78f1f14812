package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/allisson/secretstore/cmd/app/commands"
	"github.com/allisson/secretstore/internal/app"
	"github.com/allisson/secretstore/internal/config"
	cryptoService "github.com/allisson/secretstore/internal/crypto/service"
)

// shutdownTimeout bounds how long the ops server may drain on exit.
const shutdownTimeout = 10 * time.Second

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKmsConfigCommands(), getTransitionCommands())
	cmds = append(cmds, getSecretCommands()...)
	return cmds
}

// withContainer builds a container for one command and shuts it down after.
func withContainer(ctx context.Context, fn func(container *app.Container) error) error {
	container := app.NewContainer(config.Load())
	defer func() { _ = container.Shutdown(ctx) }()
	return fn(container)
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func accountFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "account-id", Aliases: []string{"a"}, Required: true, Usage: "Account the command acts in"},
		&cli.StringFlag{Name: "user-id", Value: "cli", Usage: "Actor recorded in the change log"},
		&cli.StringFlag{Name: "user-email", Usage: "Actor email recorded in the change log"},
		&cli.StringFlag{Name: "user-name", Usage: "Actor name recorded in the change log"},
	}
}

func execFlags(cmd *cli.Command) commands.ExecFlags {
	return commands.ExecFlags{
		AccountID: cmd.String("account-id"),
		UserID:    cmd.String("user-id"),
		UserEmail: cmd.String("user-email"),
		UserName:  cmd.String("user-name"),
	}
}

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Run the transition worker and the ops server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer cancel()

				return withContainer(ctx, func(container *app.Container) error {
					cfg := container.Config()
					gin.SetMode(cfg.GetGinMode())
					container.Logger().Info("starting secretstore", slog.String("version", version))

					worker, err := container.TransitionWorker()
					if err != nil {
						return err
					}

					var ops commands.Server
					if cfg.MetricsEnabled {
						opsServer, err := container.OpsServer()
						if err != nil {
							return err
						}
						ops = opsServer
					}

					return commands.RunServer(ctx, ops, worker, container.Logger(), shutdownTimeout)
				})
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					cfg := container.Config()
					return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
				})
			},
		},
		{
			Name:  "create-master-key",
			Usage: "Generate a master key for the local provider",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Usage:   "Master key ID (defaults to master-key-YYYY-MM-DD)",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Usage: "gocloud.dev keeper URI that encrypts the key (awskms://, gcpkms://, hashivault://, base64key://)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					return commands.RunCreateMasterKey(
						ctx,
						cryptoService.NewKMSService(),
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("id"),
						cmd.String("kms-key-uri"),
					)
				})
			},
		},
		{
			Name:  "clean-usage-logs",
			Usage: "Delete usage logs older than the given number of days",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Delete usage logs older than this many days",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Usage:   "Show how many logs would be deleted without deleting",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					audit, err := container.AuditUseCase()
					if err != nil {
						return err
					}
					return commands.RunCleanUsageLogs(
						ctx,
						audit,
						container.Logger(),
						commands.DefaultIO().Writer,
						int(cmd.Int("days")),
						cmd.Bool("dry-run"),
						cmd.String("format"),
					)
				})
			},
		},
	}
}
