package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"CouncilScraper/internal/app"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the database schema.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
			if err := a.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("schema migrated")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Loads the configured councils and scrapers into the database.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
			if err := a.Migrate(ctx); err != nil {
				return err
			}
			result, err := a.Seed(ctx)
			if err != nil {
				return err
			}
			logger.Info("seed finished", "councils", result.Councils, "scrapers", result.Scrapers)
			return nil
		})
	},
}
