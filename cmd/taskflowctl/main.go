package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/taskflow-ai/taskflow-api/internal/app"
	"github.com/taskflow-ai/taskflow-api/internal/config"
	"github.com/taskflow-ai/taskflow-api/internal/database"
	"github.com/taskflow-ai/taskflow-api/internal/logger"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskflowctl",
		Short:         "Maintenance commands for the TaskFlow API database",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(purgeOrgCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads config from the environment and opens the migrated database.
func connect() (*config.Config, *slog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stderr, cfg.GinMode)
	slog.SetDefault(log)

	db, err := app.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, _, err := connect(); err != nil {
				return err
			}
			defer database.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Permanently delete soft-deleted items whose recovery window has closed",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			purged, err := app.NewRecoveryService(db, log, nil).SweepExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired items\n", purged)
			return nil
		},
	}
}

func purgeOrgCmd() *cobra.Command {
	var orgID, actorID string

	cmd := &cobra.Command{
		Use:   "purge-org",
		Short: "Permanently delete an organization with its projects, tasks and members",
		Long: `Permanently delete an organization with its projects, tasks, columns and
member roles. The actor must be an owner of the organization. This cannot
be undone.

Example:
  taskflowctl purge-org --org 01HZX... --actor 01HZY...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := app.NewRecoveryService(db, log, nil).PurgeOrganization(orgID, actorID); err != nil {
				return fmt.Errorf("purge failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "organization %s purged\n", orgID)
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&actorID, "actor", "", "id of the owner performing the purge")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}
