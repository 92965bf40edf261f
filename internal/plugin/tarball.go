package plugin

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func init() {
	Register("tarball", tarballPlugin{})
}

// tarballPlugin exports the dataset working tree as a gzipped tarball. The
// .git directory is excluded; everything else, including the caravan config,
// is archived with paths relative to the dataset root.
type tarballPlugin struct{}

func (tarballPlugin) Help() (string, [][2]string) {
	text := strings.TrimLeft(`
Export a dataset as a compressed tarball.

Options:
  OUTPUT        archive file to write (default: <dataset>.tar.gz)
  compression   "gz" (default) or "none"
`, "\n")
	return text, [][2]string{{"OUTPUT     ", "-o PATH"}}
}

// resolveAnnexPointer reports whether the symlink at path is an annex
// pointer whose content is present, returning the object path when it is.
func resolveAnnexPointer(root, path, link string) (string, bool) {
	target := link
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), link)
	}
	objects := filepath.Join(root, ".git", "annex", "objects") + string(os.PathSeparator)
	if !strings.HasPrefix(filepath.Clean(target), objects) {
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return target, true
}

func (tarballPlugin) Apply(req Request) (string, error) {
	if req.Dataset == nil {
		return "", fmt.Errorf("plugin: tarball: dataset is required")
	}
	compress := true
	if req.Options["compression"] == "none" {
		compress = false
	}

	out := req.Output
	if out == "" {
		out = filepath.Base(req.Dataset.Path) + ".tar"
		if compress {
			out += ".gz"
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("plugin: tarball: create %s: %w", out, err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}
	tw := tar.NewWriter(w)
	defer tw.Close()

	count := 0
	root := req.Dataset.Path
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		link := ""
		content := path
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
			// Annexed files are symlinks into the annex object store.
			// When the content is present locally, archive the content
			// instead of the pointer; a dangling link stays a link.
			if target, resolved := resolveAnnexPointer(root, path, link); resolved {
				info, err = os.Stat(target)
				if err != nil {
					return err
				}
				link = ""
				content = target
			}
		}
		hdr, hdrErr := tar.FileInfoHeader(info, link)
		if hdrErr != nil {
			return hdrErr
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			src, openErr := os.Open(content)
			if openErr != nil {
				return openErr
			}
			_, copyErr := io.Copy(tw, src)
			src.Close()
			if copyErr != nil {
				return copyErr
			}
		}
		count++
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("plugin: tarball: archive %s: %w", root, err)
	}

	// Flush before reporting success so a short write surfaces as an error.
	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("plugin: tarball: finalize %s: %w", out, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return "", fmt.Errorf("plugin: tarball: finalize %s: %w", out, err)
		}
	}
	return fmt.Sprintf("exported %d files to %s", count, out), nil
}
