package dataset

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zulandar/caravan/internal/gitrepo"
)

// Registration modes for CreateOpts.AddToSuper.
const (
	SuperOff  = ""     // do not register in a superdataset
	SuperYes  = "yes"  // register, fail when no superdataset exists
	SuperAuto = "auto" // register when a superdataset exists, proceed otherwise
)

// DefaultAnnexBackend is optimized for cross-platform dataset portability.
const DefaultAnnexBackend = "MD5E"

// CreateOpts holds parameters for dataset creation.
type CreateOpts struct {
	Force         bool   // allow creation in a non-empty directory
	Description   string // label for this repository copy (annex only)
	AddToSuper    string // SuperOff, SuperYes or SuperAuto
	Name          string // submodule name within the superdataset
	NoAnnex       bool   // plain git repository, no annex
	NoCommit      bool   // skip the initial commit
	AnnexVersion  int    // annex repository version, 0 for default
	AnnexBackend  string // hashing backend, defaults to DefaultAnnexBackend
	MetadataTypes []string
	GitOpts       []string // extra options for git init
	AnnexInitOpts []string // extra options for git annex init
}

// validate rejects incompatible option combinations before any side effect.
func (o CreateOpts) validate() error {
	switch o.AddToSuper {
	case SuperOff, SuperYes, SuperAuto:
	default:
		return fmt.Errorf("dataset: unknown superdataset registration mode %q", o.AddToSuper)
	}
	if !o.NoAnnex {
		return nil
	}
	if o.Description != "" {
		return fmt.Errorf("dataset: cannot specify a description for a dataset without annex")
	}
	if o.AnnexVersion != 0 || len(o.AnnexInitOpts) > 0 {
		return fmt.Errorf("dataset: cannot specify annex options for a dataset without annex")
	}
	return nil
}

// Create initializes a new dataset at path (the working directory when path
// is empty). With AddToSuper set, the new dataset is registered as a
// subdataset of the discovered superdataset.
func Create(path string, opts CreateOpts) (*Dataset, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	ds, err := New(path)
	if err != nil {
		return nil, err
	}

	// Refuse a non-empty target unless forced.
	if entries, err := os.ReadDir(ds.Path); err == nil && len(entries) > 0 && !opts.Force {
		return nil, fmt.Errorf("dataset: cannot create dataset in non-empty directory %s (use force)", ds.Path)
	}

	if opts.AddToSuper != SuperOff {
		sds := ds.Superdataset()
		if sds != nil {
			return sds.CreateSubdataset(ds.Path, opts)
		}
		if opts.AddToSuper != SuperAuto {
			return nil, fmt.Errorf("dataset: no superdataset found for %s", ds.Path)
		}
		// Auto mode: no superdataset is fine, create unregistered.
	}

	if opts.NoAnnex {
		log.Printf("creating a new git repo at %s", ds.Path)
		if err := gitrepo.Init(ds.Path, opts.GitOpts...); err != nil {
			return nil, err
		}
	} else {
		log.Printf("creating a new annex repo at %s", ds.Path)
		if err := gitrepo.Init(ds.Path, opts.GitOpts...); err != nil {
			return nil, err
		}
		if err := gitrepo.AnnexInit(ds.Path, opts.Description, opts.AnnexVersion, opts.AnnexInitOpts...); err != nil {
			return nil, err
		}
		backend := opts.AnnexBackend
		if backend == "" {
			backend = DefaultAnnexBackend
		}
		if err := gitrepo.SetAnnexBackend(ds.Path, backend); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Join(ds.Path, ConfigDir), 0755); err != nil {
		return nil, fmt.Errorf("dataset: create %s: %w", ConfigDir, err)
	}
	for _, mt := range opts.MetadataTypes {
		if err := gitrepo.ConfigAdd(ds.Path, ConfigFile, MetadataTypeKey, mt); err != nil {
			return nil, err
		}
	}

	// Mint the dataset ID, wiping any previous value so a re-created
	// dataset never reuses an identifier.
	if err := gitrepo.ConfigUnset(ds.Path, ConfigFile, IDKey); err != nil {
		return nil, err
	}
	if err := gitrepo.ConfigSet(ds.Path, ConfigFile, IDKey, uuid.New().String()); err != nil {
		return nil, err
	}

	stage := []string{ConfigDir}
	if !opts.NoAnnex {
		if _, err := os.Stat(filepath.Join(ds.Path, ".gitattributes")); err == nil {
			stage = append(stage, ".gitattributes")
		}
	}
	if err := gitrepo.Add(ds.Path, stage...); err != nil {
		return nil, err
	}

	if !opts.NoCommit {
		if err := gitrepo.Commit(ds.Path, "Initial commit", true); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// CreateSubdataset creates a dataset at childPath inside this dataset and
// registers it as a submodule. The submodule name defaults to the child's
// path relative to the superdataset.
func (d *Dataset) CreateSubdataset(childPath string, opts CreateOpts) (*Dataset, error) {
	rel, err := filepath.Rel(d.Path, childPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("dataset: %s is not inside superdataset %s", childPath, d.Path)
	}

	childOpts := opts
	childOpts.AddToSuper = SuperOff
	childOpts.Name = ""
	// git submodule add requires a commit checked out in the child, so the
	// child is committed even when the superdataset commit is skipped.
	childOpts.NoCommit = false
	child, err := Create(childPath, childOpts)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = rel
	}
	if err := gitrepo.SubmoduleAdd(d.Path, name, rel); err != nil {
		return nil, err
	}
	if !opts.NoCommit {
		if err := gitrepo.Commit(d.Path, fmt.Sprintf("Added subdataset %s", name), false); err != nil {
			return nil, err
		}
	}
	return child, nil
}
