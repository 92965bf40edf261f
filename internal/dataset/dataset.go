// Package dataset implements creation and discovery of caravan datasets.
//
// A dataset is a git working tree carrying a committed .caravan/config file
// that holds the dataset identifier and related settings. Datasets can nest:
// a superdataset registers a contained dataset as a git submodule.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zulandar/caravan/internal/gitrepo"
)

const (
	// ConfigDir is the dataset metadata directory, committed to history.
	ConfigDir = ".caravan"
	// ConfigFile is the dataset-level config file inside ConfigDir.
	ConfigFile = ".caravan/config"

	// IDKey holds the dataset identifier.
	IDKey = "caravan.dataset.id"
	// MetadataTypeKey is the multi-valued native metadata type label.
	MetadataTypeKey = "caravan.metadata.nativetype"
)

// Dataset is a handle on a dataset location. The path is always absolute.
type Dataset struct {
	Path string
}

// New returns a handle for the given path, resolving it to an absolute path.
// The dataset does not need to exist yet.
func New(path string) (*Dataset, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("dataset: resolve working directory: %w", err)
		}
		path = wd
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: resolve %s: %w", path, err)
	}
	return &Dataset{Path: abs}, nil
}

// IsInstalled reports whether the dataset location holds an initialized
// dataset (a git repository with a caravan config file).
func (d *Dataset) IsInstalled() bool {
	if _, err := os.Stat(filepath.Join(d.Path, ConfigFile)); err != nil {
		return false
	}
	return gitrepo.IsRepo(d.Path)
}

// ID returns the dataset identifier, or an empty string when none is
// recorded.
func (d *Dataset) ID() (string, error) {
	return gitrepo.ConfigGet(d.Path, ConfigFile, IDKey)
}

// MetadataTypes returns the configured native metadata type labels.
func (d *Dataset) MetadataTypes() ([]string, error) {
	return gitrepo.ConfigGetAll(d.Path, ConfigFile, MetadataTypeKey)
}

// Superdataset returns the closest dataset containing this one, or nil when
// there is none.
func (d *Dataset) Superdataset() *Dataset {
	dir := filepath.Dir(d.Path)
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return &Dataset{Path: dir}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// Subdatasets returns the paths of registered subdatasets, relative to the
// dataset root.
func (d *Dataset) Subdatasets() ([]string, error) {
	return gitrepo.SubmodulePaths(d.Path)
}

// Require resolves a dataset context from path (or the working directory
// when path is empty) by walking upward until a dataset root is found. The
// purpose string names the caller in the error message.
func Require(path, purpose string) (*Dataset, error) {
	d, err := New(path)
	if err != nil {
		return nil, err
	}
	dir := d.Path
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return &Dataset{Path: dir}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("dataset: no dataset found at or above %s (required for %s)", d.Path, purpose)
		}
		dir = parent
	}
}
