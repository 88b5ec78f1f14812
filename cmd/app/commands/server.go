package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Server is a blocking server stopped through Shutdown.
type Server interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Worker runs until its context is cancelled.
type Worker interface {
	Start(ctx context.Context) error
}

// RunServer runs the transition worker and, when non-nil, the ops server
// until ctx is cancelled or either fails. The ops server gets
// shutdownTimeout to drain.
func RunServer(
	ctx context.Context,
	ops Server,
	worker Worker,
	logger *slog.Logger,
	shutdownTimeout time.Duration,
) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := worker.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("transition worker error: %w", err)
		}
		return nil
	})

	if ops != nil {
		g.Go(func() error {
			if err := ops.Start(gctx); err != nil {
				return fmt.Errorf("ops server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := ops.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("ops server shutdown: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}
