// Package gitrepo wraps the git and git-annex command line tools.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// run executes git with the given arguments in dir and returns trimmed
// combined output.
func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Init initializes a git repository at dir, creating the directory as
// necessary. Extra options are passed to git init verbatim.
func Init(dir string, extraOpts ...string) error {
	if dir == "" {
		return fmt.Errorf("gitrepo: directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("gitrepo: create %s: %w", dir, err)
	}
	args := append([]string{"init"}, extraOpts...)
	if out, err := run(dir, args...); err != nil {
		return fmt.Errorf("gitrepo: init %s: %s", dir, out)
	}
	return nil
}

// IsRepo reports whether dir is inside a git working tree.
func IsRepo(dir string) bool {
	out, err := run(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// TopLevel returns the root of the working tree containing dir.
func TopLevel(dir string) (string, error) {
	out, err := run(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("gitrepo: toplevel of %s: %s", dir, out)
	}
	return out, nil
}

// Add stages the given paths in the repository at dir.
func Add(dir string, paths ...string) error {
	if len(paths) == 0 {
		return fmt.Errorf("gitrepo: at least one path is required")
	}
	args := append([]string{"add", "--"}, paths...)
	if out, err := run(dir, args...); err != nil {
		return fmt.Errorf("gitrepo: add in %s: %s", dir, out)
	}
	return nil
}

// Commit records staged changes with the given message. With allowEmpty a
// commit is created even when nothing is staged.
func Commit(dir, msg string, allowEmpty bool) error {
	if msg == "" {
		return fmt.Errorf("gitrepo: commit message is required")
	}
	args := []string{"commit", "-m", msg}
	if allowEmpty {
		args = append(args, "--allow-empty")
	}
	if out, err := run(dir, args...); err != nil {
		return fmt.Errorf("gitrepo: commit in %s: %s", dir, out)
	}
	return nil
}

// Push pushes the current branch to the named remote.
func Push(ctx context.Context, dir, remote string) error {
	if remote == "" {
		return fmt.Errorf("gitrepo: remote name is required")
	}
	cmd := exec.CommandContext(ctx, "git", "push", remote)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("gitrepo: push to %q: %s", remote, strings.TrimSpace(string(out)))
	}
	return nil
}

// Remotes returns the names of all configured remotes.
func Remotes(dir string) ([]string, error) {
	out, err := run(dir, "remote")
	if err != nil {
		return nil, fmt.Errorf("gitrepo: list remotes in %s: %s", dir, out)
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// HasRemote reports whether a remote with the given name is configured.
func HasRemote(dir, name string) (bool, error) {
	remotes, err := Remotes(dir)
	if err != nil {
		return false, err
	}
	for _, r := range remotes {
		if r == name {
			return true, nil
		}
	}
	return false, nil
}

// AddRemote configures a new remote.
func AddRemote(dir, name, url string) error {
	if name == "" || url == "" {
		return fmt.Errorf("gitrepo: remote name and url are required")
	}
	if out, err := run(dir, "remote", "add", name, url); err != nil {
		return fmt.Errorf("gitrepo: add remote %q: %s", name, out)
	}
	return nil
}

// RemoteURL returns the fetch URL of the named remote.
func RemoteURL(dir, name string) (string, error) {
	out, err := run(dir, "remote", "get-url", name)
	if err != nil {
		return "", fmt.Errorf("gitrepo: get url of remote %q: %s", name, out)
	}
	return out, nil
}

// SetRemoteURL rewrites the URL of an existing remote.
func SetRemoteURL(dir, name, url string) error {
	if name == "" || url == "" {
		return fmt.Errorf("gitrepo: remote name and url are required")
	}
	if out, err := run(dir, "remote", "set-url", name, url); err != nil {
		return fmt.Errorf("gitrepo: set url of remote %q: %s", name, out)
	}
	return nil
}

// RemoveRemote deletes a remote from the repository configuration.
func RemoveRemote(dir, name string) error {
	if name == "" {
		return fmt.Errorf("gitrepo: remote name is required")
	}
	if out, err := run(dir, "remote", "remove", name); err != nil {
		return fmt.Errorf("gitrepo: remove remote %q: %s", name, out)
	}
	return nil
}

// SubmoduleAdd registers the repository at path as a submodule of the
// repository at dir. The path must be relative to dir.
func SubmoduleAdd(dir, name, path string) error {
	if path == "" {
		return fmt.Errorf("gitrepo: submodule path is required")
	}
	args := []string{"submodule", "add"}
	if name != "" {
		args = append(args, "--name", name)
	}
	args = append(args, "./"+path, path)
	if out, err := run(dir, args...); err != nil {
		return fmt.Errorf("gitrepo: submodule add %q: %s", path, out)
	}
	return nil
}

// SubmodulePaths returns the paths of all registered submodules, read from
// .gitmodules. A repository without submodules yields an empty slice.
func SubmodulePaths(dir string) ([]string, error) {
	out, err := run(dir, "config", "--file", ".gitmodules", "--get-regexp", `submodule\..*\.path`)
	if err != nil {
		// Exit status 1 with empty output means no .gitmodules or no matches.
		if out == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("gitrepo: read submodules in %s: %s", dir, out)
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if _, p, ok := strings.Cut(line, " "); ok {
			paths = append(paths, p)
		}
	}
	return paths, nil
}
