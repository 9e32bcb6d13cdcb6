package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	pgrepo "github.com/ivankudzin/tgapp/matchengine/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tgapp/matchengine/internal/repo/redis"
)

func NewPingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check Postgres and Redis connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var failed []error

			pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
			if err == nil {
				err = pgrepo.Ping(ctx, pool)
				pool.Close()
			}
			failed = report(out, "postgres", err, failed)

			client := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			err = redrepo.Ping(ctx, client)
			_ = client.Close()
			failed = report(out, "redis", err, failed)

			return errors.Join(failed...)
		},
	}
}

func report(out io.Writer, name string, err error, failed []error) []error {
	if err != nil {
		_, _ = fmt.Fprintf(out, "%-8s down: %v\n", name, err)
		return append(failed, fmt.Errorf("%s: %w", name, err))
	}
	_, _ = fmt.Fprintf(out, "%-8s up\n", name)
	return failed
}
