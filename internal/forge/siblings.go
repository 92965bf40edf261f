package forge

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/zulandar/caravan/internal/dataset"
	"github.com/zulandar/caravan/internal/gitrepo"
)

// makeReposFn is swapped out in tests.
var makeReposFn = MakeRepos

// SiblingOpts controls sibling creation for a dataset hierarchy.
type SiblingOpts struct {
	Name      string // remote name, defaults to "github"
	Recursive bool   // include installed subdatasets
	CreateOpts
}

// CreateGithubSiblings creates GitHub repositories for the dataset (and,
// recursively, its subdatasets), then registers each created repository as a
// named remote. Local preconditions are checked for the whole batch before
// any network call, so an already-configured sibling fails fast and leaves
// no partial state behind.
func CreateGithubSiblings(ctx context.Context, ds *dataset.Dataset, reponame string, creds []Credential, opts SiblingOpts) ([]Result, error) {
	if reponame == "" {
		return nil, fmt.Errorf("forge: repository name is required")
	}
	if !ds.IsInstalled() {
		return nil, fmt.Errorf("forge: no installed dataset at %s", ds.Path)
	}
	if opts.Name == "" {
		opts.Name = "github"
	}
	switch opts.Existing {
	case "", ExistingError, ExistingSkip, ExistingReconfigure:
	default:
		return nil, fmt.Errorf("forge: unknown existing mode %q", opts.Existing)
	}

	specs := []RepoSpec{{Dataset: ds, RepoName: reponame}}
	if opts.Recursive {
		subs, err := ds.Subdatasets()
		if err != nil {
			return nil, err
		}
		for _, rel := range subs {
			sub := &dataset.Dataset{Path: filepath.Join(ds.Path, rel)}
			if !sub.IsInstalled() {
				log.Printf("skipping %s: subdataset not installed", sub.Path)
				continue
			}
			name := reponame + "-" + strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
			specs = append(specs, RepoSpec{Dataset: sub, RepoName: name})
		}
	}

	// Check local sibling state for the whole batch up front.
	var todo []RepoSpec
	for _, spec := range specs {
		has, err := gitrepo.HasRemote(spec.Dataset.Path, opts.Name)
		if err != nil {
			return nil, err
		}
		if has {
			switch opts.Existing {
			case ExistingSkip:
				log.Printf("skipping %s: sibling %q already configured", spec.Dataset.Path, opts.Name)
				continue
			case ExistingReconfigure:
				// Keep it in the batch; the remote URL is rewritten below.
			default:
				return nil, fmt.Errorf("forge: dataset %s already has a configured sibling %q; use reconfigure to update it",
					spec.Dataset.Path, opts.Name)
			}
		}
		todo = append(todo, spec)
	}
	if len(todo) == 0 {
		return nil, nil
	}

	batch, err := makeReposFn(ctx, todo, creds, opts.CreateOpts)
	if err != nil {
		return batch, err
	}

	// Repositories skipped on the forge get no local sibling either.
	var results []Result
	for _, res := range batch {
		if !res.Skipped {
			results = append(results, res)
		}
	}

	if opts.DryRun {
		return results, nil
	}
	for _, res := range results {
		has, err := gitrepo.HasRemote(res.Dataset.Path, opts.Name)
		if err != nil {
			return results, err
		}
		if has {
			err = gitrepo.SetRemoteURL(res.Dataset.Path, opts.Name, res.URL)
		} else {
			err = gitrepo.AddRemote(res.Dataset.Path, opts.Name, res.URL)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
