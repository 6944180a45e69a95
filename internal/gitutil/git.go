package gitutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/wgpctl/wgpctl/internal/runner"
)

// ErrRemoteMissing indicates the repository has no remote with the requested name.
var ErrRemoteMissing = errors.New("remote not configured")

// Command builds a git CLI invocation rooted at dir. The CLI is used for
// anything the user watches (clone, fetch, pull, status) so credential
// helpers and progress output behave as they would in a shell.
func Command(dir string, args ...string) runner.Command {
	return runner.Command{Name: "git", Args: append([]string{"-C", dir}, args...)}
}

// Clone builds a git clone of url into dest.
func Clone(url, dest string) runner.Command {
	return runner.Cmd("git", "clone", url, dest)
}

// Remote is a configured remote and its URLs.
type Remote struct {
	Name string
	URLs []string
}

// CurrentBranch reports the checked-out branch name, or HEAD when detached.
func CurrentBranch(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD in %s: %w", dir, err)
	}
	if !head.Name().IsBranch() {
		return "HEAD", nil
	}
	return head.Name().Short(), nil
}

// Remotes lists the configured remotes sorted by name.
func Remotes(dir string) ([]Remote, error) {
	repo, err := open(dir)
	if err != nil {
		return nil, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, err
	}
	out := make([]Remote, 0, len(remotes))
	for _, r := range remotes {
		cfg := r.Config()
		out = append(out, Remote{Name: cfg.Name, URLs: append([]string(nil), cfg.URLs...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// HasRemote reports whether name is configured.
func HasRemote(dir, name string) (bool, error) {
	repo, err := open(dir)
	if err != nil {
		return false, err
	}
	if _, err := repo.Remote(name); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AddRemote configures a new remote.
func AddRemote(dir, name, url string) error {
	repo, err := open(dir)
	if err != nil {
		return err
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{url}})
	if err != nil {
		return fmt.Errorf("add remote %s: %w", name, err)
	}
	return nil
}

// RemoteURL returns the first URL of the named remote.
func RemoteURL(dir, name string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(name)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", fmt.Errorf("%s: %w", name, ErrRemoteMissing)
		}
		return "", err
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%s has no URL: %w", name, ErrRemoteMissing)
	}
	return urls[0], nil
}

// HeadTimestamp returns the committer time of HEAD.
func HeadTimestamp(dir string) (time.Time, error) {
	repo, err := open(dir)
	if err != nil {
		return time.Time{}, err
	}
	head, err := repo.Head()
	if err != nil {
		return time.Time{}, err
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return time.Time{}, err
	}
	return commit.Committer.When, nil
}

// HeadHash returns the commit HEAD points at.
func HeadHash(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}

// RemoteBranchHead reports the current commit for remote/branch if it exists.
func RemoteBranchHead(dir, remote, branch string) (string, bool, error) {
	if remote == "" || branch == "" {
		return "", false, nil
	}
	repo, err := open(dir)
	if err != nil {
		return "", false, err
	}
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(remote, branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return ref.Hash().String(), true, nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := open(dir)
	return err == nil
}

// CloneInto clones url into dest in-process, writing progress to progress.
func CloneInto(ctx context.Context, url, dest string, progress io.Writer) error {
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:      url,
		Progress: progress,
	})
	if err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}
	return nil
}

// Fetch updates remote-tracking refs for remote. An up-to-date remote is not
// an error.
func Fetch(ctx context.Context, dir, remote string, progress io.Writer) error {
	repo, err := open(dir)
	if err != nil {
		return err
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{RemoteName: remote, Progress: progress})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch %s: %w", remote, err)
	}
	return nil
}

func open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("open git repository %s: %w", dir, err)
	}
	return repo, nil
}
