package main

import (
	"github.com/spf13/cobra"

	"github.com/zulandar/caravan/internal/config"
	"github.com/zulandar/caravan/internal/dashboard"
	"github.com/zulandar/caravan/internal/inventory"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only web view of the dataset inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			db, err := inventory.Open(cfg.Inventory)
			if err != nil {
				return err
			}
			return dashboard.Start(cmd.Context(), dashboard.StartOpts{
				DB:   db,
				Port: port,
				Out:  cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to Caravan config file")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	return cmd
}
