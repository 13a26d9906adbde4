// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sub2md/internal/schedule"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Fetch a publication repeatedly on a schedule",
	Long: `Watch runs fetch on a cron schedule until interrupted, so new posts are
saved as they appear. The schedule takes five-field cron expressions or
descriptors such as @daily, @hourly and "@every 6h".`,
	Example: `  sub2md watch -u example.substack.com --schedule "0 7 * * *" --timezone Europe/Berlin`,
	PreRunE: func(cmd *cobra.Command, args []string) error { return bindFlags(cmd) },
	RunE:    runWatch,
}

func init() {
	addFetchFlags(watchCmd)
	watchCmd.Flags().String("schedule", schedule.DefaultSpec, "cron schedule")
	watchCmd.Flags().String("timezone", "", "time zone of the schedule (default: local)")
	watchCmd.Flags().Bool("run-now", true, "fetch once at startup before waiting for the schedule")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := scrapeConfig()
	if err != nil {
		return err
	}
	sched, err := schedule.New(viper.GetString("schedule"), viper.GetString("timezone"), logger)
	if err != nil {
		return err
	}

	return sched.Run(cmd.Context(), func(ctx context.Context) error {
		result, err := fetchPublication(ctx, cfg, os.Stdout)
		if err != nil {
			return err
		}
		logger.Info("fetch finished", "converted", result.Converted, "skipped", result.Skipped, "failed", result.Failed)
		return nil
	}, viper.GetBool("run-now"))
}
