package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/matchengine/internal/app/apiapp"
	"github.com/ivankudzin/tgapp/matchengine/internal/config"
	"github.com/ivankudzin/tgapp/matchengine/internal/infra/logger"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand starts the HTTP API and blocks until the command context is cancelled.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Level, cfg.Env)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			return RunServer(cmd.Context(), cfg, log)
		},
	}
}

// RunServer serves until ctx is done or the listener fails, then shuts the app down.
func RunServer(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	app, err := apiapp.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create api app: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case runErr = <-errCh:
		if errors.Is(runErr, http.ErrServerClosed) {
			runErr = nil
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown api app", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
