// Package publish commits an exported bundle to a Git branch and optionally
// pushes it to a remote, the usual deployment path for static site hosts.
package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
)

// Options control one publish run. Directory is the exported bundle; it is
// treated as a Git worktree, initialized on first publish.
type Options struct {
	Directory string
	Branch    string
	Remote    string // remote URL; empty skips the push
	Message   string

	AuthorName  string
	AuthorEmail string
}

// Result reports what a publish run did.
type Result struct {
	Commit string
	Clean  bool // true when there was nothing to commit
	Pushed bool
}

const defaultAuthor = "pagesmith"

// Publish stages everything in the bundle directory, commits it on the
// configured branch, and pushes when a remote is set. A bundle identical to
// the previous commit produces no new commit and no push.
func Publish(ctx context.Context, opts Options) (*Result, error) {
	if opts.Directory == "" {
		return nil, errors.ValidationError("publish directory is required")
	}
	if opts.Branch == "" {
		return nil, errors.ValidationError("publish branch is required")
	}

	repo, err := openOrInit(opts.Directory, opts.Branch)
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "failed to open worktree")
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "failed to stage bundle")
	}

	status, err := wt.Status()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "failed to read worktree status")
	}
	if status.IsClean() {
		observability.InfoContext(ctx, "bundle unchanged, nothing to publish",
			slog.String("branch", opts.Branch))
		return &Result{Clean: true}, nil
	}

	message := opts.Message
	if message == "" {
		message = "Update site"
	}
	author := &object.Signature{
		Name:  orDefault(opts.AuthorName, defaultAuthor),
		Email: orDefault(opts.AuthorEmail, defaultAuthor+"@localhost"),
		When:  time.Now(),
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: author})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "failed to commit bundle")
	}

	result := &Result{Commit: hash.String()}
	observability.InfoContext(ctx, "committed bundle",
		slog.String("branch", opts.Branch), slog.String("commit", hash.String()[:8]))

	if opts.Remote != "" {
		if err := push(ctx, repo, opts); err != nil {
			return nil, err
		}
		result.Pushed = true
	}
	return result, nil
}

// openOrInit opens the bundle directory as a repository, initializing a
// fresh one on the publish branch when none exists.
func openOrInit(dir, branch string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err == nil {
		return repo, checkoutBranch(repo, branch)
	}
	if err != git.ErrRepositoryNotExists {
		return nil, errors.WrapError(err, errors.CategoryPublish, "failed to open bundle repository").
			WithContext("directory", dir)
	}

	repo, err = git.PlainInit(dir, false)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "failed to initialize bundle repository").
			WithContext("directory", dir)
	}
	// Point HEAD at the publish branch so the first commit lands there.
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "failed to set publish branch")
	}
	return repo, nil
}

func checkoutBranch(repo *git.Repository, branch string) error {
	head, err := repo.Head()
	if err == plumbing.ErrReferenceNotFound {
		// Empty repository: retarget HEAD, same as the fresh-init path.
		ref := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
		return repo.Storer.SetReference(ref)
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryPublish, "failed to read HEAD")
	}
	if head.Name() == plumbing.NewBranchReferenceName(branch) {
		return nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.WrapError(err, errors.CategoryPublish, "failed to open worktree")
	}
	branchRef := plumbing.NewBranchReferenceName(branch)
	checkout := &git.CheckoutOptions{Branch: branchRef}
	if _, err := repo.Reference(branchRef, true); err != nil {
		checkout.Create = true
	}
	if err := wt.Checkout(checkout); err != nil {
		return errors.WrapError(err, errors.CategoryPublish, "failed to checkout publish branch").
			WithContext("branch", branch)
	}
	return nil
}

func push(ctx context.Context, repo *git.Repository, opts Options) error {
	const remoteName = "origin"
	if _, err := repo.Remote(remoteName); err == git.ErrRemoteNotFound {
		_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
			Name: remoteName,
			URLs: []string{opts.Remote},
		})
		if err != nil {
			return errors.WrapError(err, errors.CategoryPublish, "failed to configure remote").
				WithContext("remote", opts.Remote)
		}
	} else if err != nil {
		return errors.WrapError(err, errors.CategoryPublish, "failed to read remote config")
	}

	refspec := gitconfig.RefSpec("refs/heads/" + opts.Branch + ":refs/heads/" + opts.Branch)
	err := repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{refspec},
	})
	if err == git.NoErrAlreadyUpToDate {
		return nil
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryPublish, "failed to push bundle").
			WithContext("remote", opts.Remote).
			WithContext("branch", opts.Branch)
	}
	observability.InfoContext(ctx, "pushed bundle",
		slog.String("remote", opts.Remote), slog.String("branch", opts.Branch))
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
