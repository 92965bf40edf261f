package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zulandar/caravan/internal/dataset"
	"github.com/zulandar/caravan/internal/plugin"
)

func newExportCmd() *cobra.Command {
	var (
		datasetPath string
		output      string
		pluginHelp  bool
		options     []string
	)

	cmd := &cobra.Command{
		Use:   "export <plugin> [-- raw args...]",
		Short: "Export a dataset to another representation",
		Long: "Dispatches to a named export plugin. Arguments after -- are handed to the\n" +
			"plugin unparsed; alternatively pass structured key=value pairs with\n" +
			"--option. Available plugins: " + strings.Join(plugin.Names(), ", ") + ".",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, datasetPath, output, pluginHelp, options)
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "dataset", "d", "", "dataset to export (default: discover from working directory)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output destination; semantics depend on the plugin")
	cmd.Flags().BoolVarP(&pluginHelp, "plugin-help", "H", false, "show the plugin's own help and exit")
	cmd.Flags().StringArrayVar(&options, "option", nil, "structured key=value option for the plugin (repeatable)")
	return cmd
}

func runExport(cmd *cobra.Command, args []string, datasetPath, output string, pluginHelp bool, options []string) error {
	name := args[0]
	raw := args[1:]

	if pluginHelp {
		text, err := plugin.HelpText(name)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}

	// Resolve the plugin before the dataset, so an unknown name is
	// reported as such even outside any dataset.
	p, err := plugin.Get(name)
	if err != nil {
		return err
	}

	kwargs := map[string]string{}
	for _, opt := range options {
		k, v, ok := strings.Cut(opt, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid --option %q, expected key=value", opt)
		}
		kwargs[k] = v
	}
	if len(raw) > 0 && len(kwargs) > 0 {
		return fmt.Errorf("give either raw arguments or --option values, not both")
	}

	ds, err := dataset.Require(datasetPath, "export")
	if err != nil {
		return err
	}

	result, err := p.Apply(plugin.Request{
		Dataset: ds,
		Output:  output,
		Args:    raw,
		Options: kwargs,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
