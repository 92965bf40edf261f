package forge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// CreateOpts controls repository creation on GitHub.
type CreateOpts struct {
	Organization   string // create under this organization instead of the user
	AccessProtocol string // ProtoHTTPS or ProtoSSH
	GithubUser     string // username substituted into https URLs
	Existing       string // ExistingError, ExistingSkip or ExistingReconfigure
	Private        bool
	DryRun         bool
}

// repoMaker attempts creation of a single repository with one credential.
// Swapped out in tests.
type repoMaker func(ctx context.Context, cred *Credential, opts CreateOpts, spec RepoSpec) (Result, error)

// MakeRepos creates the batch of repositories, walking the candidate
// credentials per the retry policy: repositories are processed in input
// order; an authentication failure advances to the next credential and
// retries the same repository; a repository fails only once every candidate
// is exhausted; if nothing at all could be created the whole batch fails
// with an error naming the number of credentials tried.
func MakeRepos(ctx context.Context, specs []RepoSpec, creds []Credential, opts CreateOpts) ([]Result, error) {
	return makeRepos(ctx, specs, creds, opts, makeGithubRepo)
}

func makeRepos(ctx context.Context, specs []RepoSpec, creds []Credential, opts CreateOpts, mk repoMaker) ([]Result, error) {
	if len(creds) == 0 {
		return nil, fmt.Errorf("forge: no GitHub credentials available")
	}

	var results []Result
	ci := 0
	for _, spec := range specs {
		for ci < len(creds) {
			res, err := mk(ctx, &creds[ci], opts, spec)
			if err == nil {
				results = append(results, res)
				break
			}
			if !IsAuthFailure(err) {
				return results, fmt.Errorf("forge: create %s: %w", spec.RepoName, err)
			}
			log.Printf("authentication failed using %s: %v", creds[ci].Name, err)
			ci++
		}
		if ci >= len(creds) {
			log.Printf("no working credential for repository %s", spec.RepoName)
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("forge: tried %d credential(s), could not create any repository", len(creds))
	}
	return results, nil
}

// IsAuthFailure reports whether err is an authentication rejection from the
// GitHub API.
func IsAuthFailure(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusUnauthorized
	}
	return false
}

// newClient builds an authenticated GitHub API client for the credential.
func newClient(ctx context.Context, cred *Credential) (*github.Client, error) {
	token, err := cred.token()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("forge: credential %s has no token", cred.Name)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts)), nil
}

// makeGithubRepo creates (or finds) one repository using one credential.
func makeGithubRepo(ctx context.Context, cred *Credential, opts CreateOpts, spec RepoSpec) (Result, error) {
	if opts.DryRun {
		owner := opts.Organization
		if owner == "" {
			owner = opts.GithubUser
		}
		if owner == "" {
			owner = "<user>"
		}
		log.Printf("dry-run: would create repository %s/%s", owner, spec.RepoName)
		return Result{
			Dataset: spec.Dataset,
			URL:     fmt.Sprintf("https://github.com/%s/%s.git", owner, spec.RepoName),
		}, nil
	}

	client, err := newClient(ctx, cred)
	if err != nil {
		return Result{}, err
	}

	owner := opts.Organization
	if owner == "" {
		// Resolve the authenticated user; also validates the credential.
		u, _, err := client.Users.Get(ctx, "")
		if err != nil {
			return Result{}, err
		}
		owner = u.GetLogin()
	}

	if existing, resp, err := client.Repositories.Get(ctx, owner, spec.RepoName); err == nil {
		switch opts.Existing {
		case ExistingReconfigure:
			return Result{
				Dataset: spec.Dataset,
				URL:     RepoURL(existing, opts.AccessProtocol, opts.GithubUser),
				Existed: true,
			}, nil
		case ExistingSkip:
			log.Printf("skipping %s: repository already exists on github.com/%s", spec.RepoName, owner)
			return Result{Dataset: spec.Dataset, Existed: true, Skipped: true}, nil
		default:
			return Result{}, fmt.Errorf("repository %q already exists on github.com/%s", spec.RepoName, owner)
		}
	} else if resp == nil || resp.StatusCode != http.StatusNotFound {
		return Result{}, err
	}

	repo := &github.Repository{
		Name:    github.Ptr(spec.RepoName),
		Private: github.Ptr(opts.Private),
	}
	created, _, err := client.Repositories.Create(ctx, opts.Organization, repo)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Dataset: spec.Dataset,
		URL:     RepoURL(created, opts.AccessProtocol, opts.GithubUser),
	}, nil
}

// RepoURL selects the clone URL for the requested protocol. For https a
// username is substituted into the URL when given; ssh URLs are never
// rewritten.
func RepoURL(repo *github.Repository, protocol, username string) string {
	if protocol == ProtoSSH {
		return repo.GetSSHURL()
	}
	url := repo.GetCloneURL()
	if username != "" {
		url = strings.Replace(url, "https://", "https://"+username+"@", 1)
	}
	return url
}
