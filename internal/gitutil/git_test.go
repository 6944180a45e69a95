package gitutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var commitTime = time.Date(2024, time.March, 14, 15, 9, 26, 0, time.UTC)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "wgp.py"), []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("wgp.py"); err != nil {
		t.Fatal(err)
	}
	sig := &object.Signature{Name: "wgp", Email: "wgp@example.com", When: commitTime}
	if _, err := wt.Commit("initial", &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return dir
}

func TestCurrentBranchAndHead(t *testing.T) {
	dir := initRepo(t)

	branch, err := CurrentBranch(dir)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "master" {
		t.Fatalf("branch = %q, want master", branch)
	}

	ts, err := HeadTimestamp(dir)
	if err != nil {
		t.Fatalf("HeadTimestamp: %v", err)
	}
	if !ts.Equal(commitTime) {
		t.Fatalf("timestamp = %v, want %v", ts, commitTime)
	}

	hash, err := HeadHash(dir)
	if err != nil || len(hash) != 40 {
		t.Fatalf("HeadHash = %q, %v", hash, err)
	}
}

func TestAddRemoteAndList(t *testing.T) {
	dir := initRepo(t)

	ok, err := HasRemote(dir, "upstream")
	if err != nil || ok {
		t.Fatalf("HasRemote before add = %v, %v", ok, err)
	}
	if err := AddRemote(dir, "upstream", "https://github.com/deepbeepmeep/Wan2GP.git"); err != nil {
		t.Fatalf("AddRemote: %v", err)
	}
	if err := AddRemote(dir, "origin", "https://example.com/fork.git"); err != nil {
		t.Fatalf("AddRemote: %v", err)
	}

	remotes, err := Remotes(dir)
	if err != nil {
		t.Fatalf("Remotes: %v", err)
	}
	if len(remotes) != 2 || remotes[0].Name != "origin" || remotes[1].Name != "upstream" {
		t.Fatalf("unexpected remotes %+v", remotes)
	}

	url, err := RemoteURL(dir, "upstream")
	if err != nil || url != "https://github.com/deepbeepmeep/Wan2GP.git" {
		t.Fatalf("RemoteURL = %q, %v", url, err)
	}
	if _, err := RemoteURL(dir, "nope"); !errors.Is(err, ErrRemoteMissing) {
		t.Fatalf("expected ErrRemoteMissing, got %v", err)
	}
}

func TestRemoteBranchHeadMissing(t *testing.T) {
	dir := initRepo(t)
	_, ok, err := RemoteBranchHead(dir, "origin", "main")
	if err != nil || ok {
		t.Fatalf("RemoteBranchHead = %v, %v; want not found", ok, err)
	}
}

func TestIsRepo(t *testing.T) {
	if IsRepo(t.TempDir()) {
		t.Fatal("empty dir reported as repo")
	}
	if !IsRepo(initRepo(t)) {
		t.Fatal("initialized repo not detected")
	}
}

func TestCommandPrefixesDir(t *testing.T) {
	got := Command("/opt/wgp", "pull", "origin", "main").String()
	if got != "git -C /opt/wgp pull origin main" {
		t.Fatalf("got %q", got)
	}
}
