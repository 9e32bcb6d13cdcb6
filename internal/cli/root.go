package cli

import (
	"github.com/spf13/cobra"

	"github.com/ivankudzin/tgapp/matchengine/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

func (o *RootOptions) load() (config.Config, error) {
	return config.Load(o.ConfigPath)
}

// NewRootCommand creates the matchctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "matchctl",
		Short:         "Operate the match engine",
		Long:          "Operational commands for the match engine.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "configs/config.yaml", "path to the YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewPingCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
