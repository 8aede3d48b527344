// Command admin_token mints a bearer token for operators calling the admin API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tripwallet/internal/config"
	"tripwallet/internal/models"
	"tripwallet/internal/utils"
)

func newRootCmd() *cobra.Command {
	var (
		operatorID string
		role       string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:          "admin_token",
		Short:        "Mint a bearer token for the wallet admin API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if operatorID == "" {
				return fmt.Errorf("--id or ADMIN_ID must be set")
			}
			if role != models.RoleAdmin && role != models.RoleUser {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := utils.GenerateToken(operatorID, role, config.GetEnv("JWT_SECRET", ""), ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&operatorID, "id", config.GetEnv("ADMIN_ID", ""), "operator id recorded as posted_by")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "token role (admin or user)")
	cmd.Flags().DurationVar(&ttl, "ttl", config.GetDurationEnv("ADMIN_TOKEN_TTL", 12*time.Hour), "token lifetime")
	return cmd
}

func main() {
	config.LoadEnv()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
