package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pgrepo "github.com/ivankudzin/tgapp/matchengine/internal/repo/postgres"
)

// NewMigrateCommand applies the embedded schema. Every statement is idempotent, so reruns are safe.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}

			pool, err := pgrepo.NewPool(cmd.Context(), cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgrepo.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return err
		},
	}
}
