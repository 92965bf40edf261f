package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zulandar/caravan/internal/config"
	"github.com/zulandar/caravan/internal/dataset"
	"github.com/zulandar/caravan/internal/forge"
	"github.com/zulandar/caravan/internal/inventory"
	"github.com/zulandar/caravan/internal/models"
)

func newSiblingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sibling",
		Short: "Manage remote copies of a dataset",
	}

	cmd.AddCommand(newSiblingCreateGithubCmd())
	return cmd
}

func newSiblingCreateGithubCmd() *cobra.Command {
	var (
		configPath   string
		datasetPath  string
		siblingName  string
		logins       []string
		organization string
		githubUser   string
		protocol     string
		existing     string
		private      bool
		dryRun       bool
		recursive    bool
	)

	cmd := &cobra.Command{
		Use:   "create-github <reponame>",
		Short: "Create a dataset sibling on GitHub",
		Long: "Creates a repository on GitHub and registers it as a named sibling of the\n" +
			"dataset. Candidate credentials (explicit tokens, configured tokens, the\n" +
			"CARAVAN_GITHUB_TOKEN environment variable, finally an interactive prompt)\n" +
			"are tried in order; an authentication failure moves on to the next one.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSiblingCreateGithub(cmd, configPath, datasetPath, args[0], logins, forge.SiblingOpts{
				Name:      siblingName,
				Recursive: recursive,
				CreateOpts: forge.CreateOpts{
					Organization:   organization,
					AccessProtocol: protocol,
					GithubUser:     githubUser,
					Existing:       existing,
					Private:        private,
					DryRun:         dryRun,
				},
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to Caravan config file")
	cmd.Flags().StringVarP(&datasetPath, "dataset", "d", "", "dataset to publish (default: discover from working directory)")
	cmd.Flags().StringVarP(&siblingName, "name", "s", "github", "sibling name under which the remote is registered")
	cmd.Flags().StringArrayVar(&logins, "github-login", nil, "GitHub token to try first (repeatable)")
	cmd.Flags().StringVar(&organization, "github-organization", "", "create the repository under this organization")
	cmd.Flags().StringVar(&githubUser, "github-user", "", "username substituted into https URLs")
	cmd.Flags().StringVar(&protocol, "access-protocol", "", "sibling URL protocol: https or ssh")
	cmd.Flags().StringVar(&existing, "existing", forge.ExistingError, "handling of existing siblings/repositories: error, skip or reconfigure")
	cmd.Flags().BoolVar(&private, "private", false, "create a private repository")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be done without contacting GitHub")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "also create siblings for installed subdatasets")
	return cmd
}

func runSiblingCreateGithub(cmd *cobra.Command, configPath, datasetPath, reponame string, logins []string, opts forge.SiblingOpts) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if opts.Organization == "" {
		opts.Organization = cfg.Github.Organization
	}
	if opts.GithubUser == "" {
		opts.GithubUser = cfg.Github.User
	}
	if opts.AccessProtocol == "" {
		opts.AccessProtocol = cfg.Github.AccessProtocol
	}

	ds, err := dataset.Require(datasetPath, "sibling creation")
	if err != nil {
		return err
	}

	creds := forge.Candidates(logins, cfg.Github.Tokens)
	results, err := forge.CreateGithubSiblings(cmd.Context(), ds, reponame, creds, opts)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do.")
		return nil
	}

	var db *gorm.DB
	if !opts.DryRun {
		if db, err = inventory.Open(cfg.Inventory); err != nil {
			log.Printf("inventory unavailable: %v", err)
			db = nil
		}
	}

	for _, res := range results {
		state := "created"
		if res.Existed {
			state = "existing"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: sibling %q -> %s (%s)\n", res.Dataset.Path, opts.Name, res.URL, state)
		if db != nil {
			recordSibling(db, res, opts.Name)
		}
	}
	return nil
}

func recordSibling(db *gorm.DB, res forge.Result, name string) {
	id, err := res.Dataset.ID()
	if err != nil || id == "" {
		log.Printf("cannot determine dataset id for %s: %v", res.Dataset.Path, err)
		return
	}
	err = inventory.RecordSibling(db, models.SiblingRecord{
		DatasetUUID: id,
		Name:        name,
		URL:         res.URL,
	})
	if err != nil {
		log.Printf("record sibling: %v", err)
	}
}
