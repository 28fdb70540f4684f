package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

func writeBundleFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestPublishInitializesRepoOnBranch(t *testing.T) {
	dir := t.TempDir()
	writeBundleFile(t, dir, "index.html", "<html></html>")

	res, err := Publish(context.Background(), Options{
		Directory: dir,
		Branch:    "gh-pages",
		Message:   "Deploy site",
	})
	require.NoError(t, err)
	require.False(t, res.Clean)
	require.NotEmpty(t, res.Commit)
	require.False(t, res.Pushed)

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	require.Equal(t, plumbing.NewBranchReferenceName("gh-pages"), head.Name())

	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	require.Equal(t, "Deploy site", commit.Message)
	require.Equal(t, defaultAuthor, commit.Author.Name)
}

func TestPublishUnchangedBundleIsClean(t *testing.T) {
	dir := t.TempDir()
	writeBundleFile(t, dir, "index.html", "<html></html>")

	opts := Options{Directory: dir, Branch: "gh-pages"}
	first, err := Publish(context.Background(), opts)
	require.NoError(t, err)
	require.False(t, first.Clean)

	second, err := Publish(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, second.Clean)
	require.Empty(t, second.Commit)
}

func TestPublishCommitsSubsequentChanges(t *testing.T) {
	dir := t.TempDir()
	writeBundleFile(t, dir, "index.html", "v1")

	opts := Options{Directory: dir, Branch: "gh-pages"}
	first, err := Publish(context.Background(), opts)
	require.NoError(t, err)

	writeBundleFile(t, dir, "index.html", "v2")
	writeBundleFile(t, dir, "blog/index.html", "posts")
	second, err := Publish(context.Background(), opts)
	require.NoError(t, err)
	require.False(t, second.Clean)
	require.NotEqual(t, first.Commit, second.Commit)
}

func TestPublishValidatesOptions(t *testing.T) {
	_, err := Publish(context.Background(), Options{Branch: "gh-pages"})
	require.Error(t, err)

	_, err = Publish(context.Background(), Options{Directory: t.TempDir()})
	require.Error(t, err)
}
