// Package gitfetch implements the git-fetch collaborator (spec §6) that
// backs !include's mapping form when a url is present: clone a remote
// repository into a local cache directory, keyed by domain and URL, and
// refresh it only after the caller-supplied duration has elapsed.
//
// github.com/go-git/go-git/v5 is adopted from
// JanakaSandaruwan-choreov3/go.mod, the only pack repo that carries a git
// library; it is the only dependency in the pack capable of filling this
// contract.
package gitfetch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"yamlconfig-tool/internal/logging"
)

// Request describes one !include {url: ...} fetch, mirroring the
// collaborator contract in spec §6.
type Request struct {
	URL      string
	Ref      string
	Refresh  time.Duration
	Domain   string
	Username string
	Password string
}

// Fetcher resolves a Request to a local directory holding a checkout of
// the requested ref.
type Fetcher interface {
	Fetch(req Request) (string, error)
}

// GitFetcher is the default Fetcher, backed by go-git and a cache
// directory on disk.
type GitFetcher struct {
	// CacheDir is the root under which repositories are cloned, one
	// subdirectory per (domain, url) pair. Defaults to
	// "<os.UserCacheDir()>/yamlconfig-tool/git" when empty.
	CacheDir string
}

// NewGitFetcher returns a GitFetcher using the default cache directory.
func NewGitFetcher() *GitFetcher {
	return &GitFetcher{}
}

func (f *GitFetcher) cacheDir() (string, error) {
	if f.CacheDir != "" {
		return f.CacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("gitfetch: resolve cache dir: %w", err)
	}
	return filepath.Join(base, "yamlconfig-tool", "git"), nil
}

// Fetch clones req.URL into the cache directory if absent, or re-fetches
// it if the existing clone is older than req.Refresh, then checks out
// req.Ref (a branch, tag, or commit; empty means the remote's default
// branch). It returns the local working-tree directory.
func (f *GitFetcher) Fetch(req Request) (string, error) {
	root, err := f.cacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, req.Domain, slug(req.URL))

	auth := authMethod(req)

	repoDir, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Logf(logging.Info, "gitfetch: cloning %s into %s", req.URL, dir)
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return "", fmt.Errorf("gitfetch: create cache dir: %w", err)
		}
		_, cloneErr := git.PlainClone(dir, false, &git.CloneOptions{
			URL:  req.URL,
			Auth: auth,
		})
		if cloneErr != nil {
			return "", fmt.Errorf("gitfetch: clone %s: %w", req.URL, cloneErr)
		}
	case err != nil:
		return "", fmt.Errorf("gitfetch: stat cache dir: %w", err)
	default:
		if !repoDir.IsDir() {
			return "", fmt.Errorf("gitfetch: cache path %s is not a directory", dir)
		}
		if f.stale(dir, req.Refresh) {
			logging.Logf(logging.Info, "gitfetch: refreshing %s", req.URL)
			if err := f.refresh(dir, auth); err != nil {
				return "", err
			}
		}
	}

	if req.Ref != "" {
		if err := f.checkout(dir, req.Ref); err != nil {
			return "", err
		}
	}

	return dir, nil
}

func (f *GitFetcher) stale(dir string, refresh time.Duration) bool {
	if refresh <= 0 {
		return true
	}
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > refresh
}

func (f *GitFetcher) refresh(dir string, auth *http.BasicAuth) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("gitfetch: open %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitfetch: worktree %s: %w", dir, err)
	}
	err = wt.Pull(&git.PullOptions{Auth: auth})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("gitfetch: pull %s: %w", dir, err)
	}
	return nil
}

func (f *GitFetcher) checkout(dir, ref string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("gitfetch: open %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitfetch: worktree %s: %w", dir, err)
	}
	opts := &git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(ref)}
	if err := wt.Checkout(opts); err != nil {
		// Fall back to treating ref as a tag or raw commit hash.
		hash, resolveErr := repo.ResolveRevision(plumbing.Revision(ref))
		if resolveErr != nil {
			return fmt.Errorf("gitfetch: resolve %s@%s: %w", dir, ref, resolveErr)
		}
		opts = &git.CheckoutOptions{Hash: *hash}
		if err := wt.Checkout(opts); err != nil {
			return fmt.Errorf("gitfetch: checkout %s@%s: %w", dir, ref, err)
		}
	}
	return nil
}

func authMethod(req Request) *http.BasicAuth {
	if req.Username == "" && req.Password == "" {
		return nil
	}
	return &http.BasicAuth{Username: req.Username, Password: req.Password}
}

func slug(url string) string {
	out := make([]rune, 0, len(url))
	for _, r := range url {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
