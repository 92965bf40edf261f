package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zulandar/caravan/internal/config"
	"github.com/zulandar/caravan/internal/inventory"
	"github.com/zulandar/caravan/internal/notify"
	"github.com/zulandar/caravan/internal/syncd"
)

func newSyncCmd() *cobra.Command {
	var (
		configPath string
		schedule   string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push recorded datasets to their siblings",
		Long: "Pushes every dataset in the local inventory to its configured siblings.\n" +
			"With --once a single pass is made; otherwise passes run on the cron\n" +
			"schedule from the configuration until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if schedule == "" {
				schedule = cfg.Sync.Schedule
			}
			db, err := inventory.Open(cfg.Inventory)
			if err != nil {
				return err
			}

			opts := syncd.Opts{
				DB:        db,
				Schedule:  schedule,
				Siblings:  cfg.Sync.Siblings,
				Notifiers: notify.FromConfig(cfg.Notify),
				Out:       cmd.OutOrStdout(),
			}
			if once {
				sum, err := syncd.RunOnce(cmd.Context(), opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sum.String())
				return nil
			}
			return syncd.Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to Caravan config file")
	cmd.Flags().StringVar(&schedule, "schedule", "", "5-field cron expression (default from config)")
	cmd.Flags().BoolVar(&once, "once", false, "run a single sync pass and exit")
	return cmd
}
