package plugin

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

func init() {
	Register("manifest", manifestPlugin{})
}

// manifestPlugin writes a JSON listing of the dataset working tree.
type manifestPlugin struct{}

// ManifestEntry describes one file in a dataset manifest.
type ManifestEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
	Mode string `json:"mode"`
}

func (manifestPlugin) Help() (string, [][2]string) {
	return "Write a JSON manifest of all files in the dataset.\n\n" +
		"The manifest lists path, size and mode per file. OUTPUT defaults\n" +
		"to manifest.json inside the dataset.\n", nil
}

func (manifestPlugin) Apply(req Request) (string, error) {
	if req.Dataset == nil {
		return "", fmt.Errorf("plugin: manifest: dataset is required")
	}
	out := req.Output
	if out == "" {
		out = filepath.Join(req.Dataset.Path, "manifest.json")
	}

	var entries []ManifestEntry
	root := req.Dataset.Path
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		entries = append(entries, ManifestEntry{
			Path: filepath.ToSlash(rel),
			Size: info.Size(),
			Mode: info.Mode().String(),
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("plugin: manifest: walk %s: %w", root, err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("plugin: manifest: encode: %w", err)
	}
	if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("plugin: manifest: write %s: %w", out, err)
	}
	return fmt.Sprintf("wrote manifest of %d files to %s", len(entries), out), nil
}
