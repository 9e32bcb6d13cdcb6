package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	authsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/auth"
)

// NewTokenCommand mints an access token for local testing. Production refuses it.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		userID int64
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a dev access token for a user id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to issue tokens in %s", cfg.Env)
			}
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}

			token, expiresAt, err := authsvc.NewJWTManager(cfg.Auth.JWTSecret, ttl).
				RequireIssuer(cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience).
				IssueAccessToken(userID, role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires_at=%s\n", token, expiresAt.Format(time.RFC3339))
			return err
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id to put in the token subject")
	cmd.Flags().StringVar(&role, "role", "user", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}
