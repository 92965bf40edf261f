package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/caravan/internal/config"
	"github.com/zulandar/caravan/internal/inventory"
)

func newListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List datasets recorded in the local inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to Caravan config file")
	return cmd
}

func runList(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := inventory.Open(cfg.Inventory)
	if err != nil {
		return err
	}

	recs, err := inventory.Datasets(db)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No datasets recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UUID\tPATH\tANNEX\tSIBLINGS")
	for _, rec := range recs {
		sibs, err := inventory.Siblings(db, rec.UUID)
		if err != nil {
			return err
		}
		names := ""
		for i, s := range sibs {
			if i > 0 {
				names += ","
			}
			names += s.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", rec.UUID, rec.Path, rec.Annex, names)
	}
	return w.Flush()
}
