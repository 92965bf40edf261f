package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zulandar/caravan/internal/config"
	"github.com/zulandar/caravan/internal/dataset"
	"github.com/zulandar/caravan/internal/inventory"
	"github.com/zulandar/caravan/internal/models"
)

func newCreateCmd() *cobra.Command {
	var (
		configPath    string
		force         bool
		description   string
		addToSuper    string
		name          string
		noAnnex       bool
		noCommit      bool
		annexVersion  int
		annexBackend  string
		metadataTypes []string
	)

	cmd := &cobra.Command{
		Use:   "create [path]",
		Short: "Create a new dataset from scratch",
		Long: "Initializes a new dataset at the given location, or the current directory.\n" +
			"With --add-to-super the dataset is registered in the discovered\n" +
			"superdataset; --add-to-super=auto proceeds unregistered when no\n" +
			"superdataset exists. Plain git repositories (no annex) are created with\n" +
			"--no-annex, but then a description is not supported.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runCreate(cmd, configPath, path, dataset.CreateOpts{
				Force:         force,
				Description:   description,
				AddToSuper:    addToSuper,
				Name:          name,
				NoAnnex:       noAnnex,
				NoCommit:      noCommit,
				AnnexVersion:  annexVersion,
				AnnexBackend:  annexBackend,
				MetadataTypes: metadataTypes,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to Caravan config file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "enforce creation in a non-empty directory")
	cmd.Flags().StringVar(&description, "description", "", "label for this dataset copy, e.g. \"music on black laptop\"")
	cmd.Flags().StringVar(&addToSuper, "add-to-super", "", "register in the superdataset: yes or auto")
	cmd.Flags().Lookup("add-to-super").NoOptDefVal = dataset.SuperYes
	cmd.Flags().StringVar(&name, "name", "", "name within the superdataset (default: relative path)")
	cmd.Flags().BoolVar(&noAnnex, "no-annex", false, "create a plain git repository without annex")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "do not commit the initial state")
	cmd.Flags().IntVar(&annexVersion, "annex-version", 0, "annex repository version (0: git-annex default)")
	cmd.Flags().StringVar(&annexBackend, "annex-backend", "", "default hashing backend (default from config, else MD5E)")
	cmd.Flags().StringArrayVar(&metadataTypes, "metadata-type", nil, "native metadata type label (repeatable)")
	return cmd
}

func runCreate(cmd *cobra.Command, configPath, path string, opts dataset.CreateOpts) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if opts.AnnexBackend == "" && !opts.NoAnnex {
		opts.AnnexBackend = cfg.Annex.Backend
	}

	ds, err := dataset.Create(path, opts)
	if err != nil {
		return err
	}

	// Inventory recording is best-effort; the dataset exists either way.
	if db, err := inventory.Open(cfg.Inventory); err != nil {
		log.Printf("inventory unavailable: %v", err)
	} else {
		recordDataset(db, ds, opts)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created dataset at %s.\n", ds.Path)
	return nil
}

func recordDataset(db *gorm.DB, ds *dataset.Dataset, opts dataset.CreateOpts) {
	id, err := ds.ID()
	if err != nil || id == "" {
		log.Printf("cannot determine dataset id for %s: %v", ds.Path, err)
		return
	}
	err = inventory.RecordDataset(db, models.DatasetRecord{
		UUID:        id,
		Path:        ds.Path,
		Description: opts.Description,
		Annex:       !opts.NoAnnex,
	})
	if err != nil {
		log.Printf("record dataset: %v", err)
	}
}
