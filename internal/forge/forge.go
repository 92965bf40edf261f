// Package forge creates sibling repositories for datasets on hosted code
// forges (currently GitHub).
package forge

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/zulandar/caravan/internal/dataset"
)

// EnvToken names the environment variable consulted for a GitHub token.
const EnvToken = "CARAVAN_GITHUB_TOKEN"

// Credential is one candidate for authenticating against the forge. An
// Interactive credential has no token yet; it is prompted for on first use.
type Credential struct {
	Name        string // label used in log messages, never the secret itself
	Token       string
	Interactive bool
}

// RepoSpec pairs a dataset with the desired repository name on the forge.
type RepoSpec struct {
	Dataset  *dataset.Dataset
	RepoName string
}

// Result reports the outcome for one repository of a batch.
type Result struct {
	Dataset *dataset.Dataset
	URL     string
	Existed bool // the repository already existed on the forge
	Skipped bool // an existing repository was left untouched (skip mode)
}

// Handling of a sibling or repository that already exists.
const (
	ExistingError       = "error"
	ExistingSkip        = "skip"
	ExistingReconfigure = "reconfigure"
)

// Access protocols for sibling URLs.
const (
	ProtoHTTPS = "https"
	ProtoSSH   = "ssh"
)

// Candidates assembles the ordered credential list: explicit tokens first,
// then configured tokens, then the environment, then an interactive prompt
// when stdin is a terminal.
func Candidates(explicit []string, configured []string) []Credential {
	var creds []Credential
	for i, t := range explicit {
		creds = append(creds, Credential{Name: fmt.Sprintf("token #%d", i+1), Token: t})
	}
	for i, t := range configured {
		creds = append(creds, Credential{Name: fmt.Sprintf("config token #%d", i+1), Token: t})
	}
	if t := os.Getenv(EnvToken); t != "" {
		creds = append(creds, Credential{Name: EnvToken, Token: t})
	}
	if term.IsTerminal(int(syscall.Stdin)) {
		creds = append(creds, Credential{Name: "interactive", Interactive: true})
	}
	return creds
}

// token returns the credential's token, prompting the user once for
// interactive credentials.
func (c *Credential) token() (string, error) {
	if !c.Interactive || c.Token != "" {
		return c.Token, nil
	}
	fmt.Fprint(os.Stderr, "GitHub token: ")
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("forge: read token: %w", err)
	}
	c.Token = string(b)
	return c.Token, nil
}
