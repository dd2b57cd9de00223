package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"CouncilScraper/internal/app"
	"CouncilScraper/internal/usecase"
)

var (
	runCouncil *string
	runSave    *bool
)

func init() {
	runCouncil = runCmd.Flags().String("council", "", "Only run the scrapers of the named council.")
	runSave = runCmd.Flags().Bool("save", false, "Persist valid results instead of a dry run.")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--council <name>] [--save]",
	Short: "Runs scrapers once and prints a digest of the results.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
			reports, err := a.Run(ctx, *runCouncil, *runSave)
			if len(reports) > 0 {
				fmt.Fprint(cmd.OutOrStdout(), usecase.BuildDigest(reports))
			}
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if r.Failed() {
					failed++
				}
			}
			logger.Info("run finished", "scrapers", len(reports), "failed", failed, "saved", *runSave)
			return nil
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs every scraper on the configured interval until interrupted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
			return a.Schedule(ctx)
		})
	},
}
