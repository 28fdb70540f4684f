// Package store is the persistence boundary for site models. The core
// pipeline never talks to a store; the CLI and the preview server wire one
// in and hand loaded models to the resolver and renderer.
package store

import (
	"context"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/site"
)

// ErrSiteNotLoaded is returned by GetSiteByID before LoadSite ran for the id.
var ErrSiteNotLoaded = errors.New(errors.CategoryStorage, errors.SeverityWarning, "site is not loaded")

// ErrSiteNotFound is returned when no site exists under the requested id.
var ErrSiteNotFound = errors.New(errors.CategoryStorage, errors.SeverityWarning, "site does not exist")

// SiteStore persists site models. Mutation calls replace the stored
// structure tree wholesale; a model obtained earlier never observes a
// partial update.
type SiteStore interface {
	// LoadSite brings a persisted site into memory.
	LoadSite(ctx context.Context, id string) error

	// GetSiteByID returns a loaded site model.
	GetSiteByID(ctx context.Context, id string) (*site.Model, error)

	// SaveSite persists a model (insert or replace).
	SaveSite(ctx context.Context, m *site.Model) error

	// RepositionNode applies a drag-and-drop move. Invalid moves are
	// absorbed as no-ops, matching the editor's revert semantics.
	RepositionNode(ctx context.Context, siteID, activePath, newParentPath string, index int) error

	// UpdateManifest replaces the site manifest.
	UpdateManifest(ctx context.Context, siteID string, manifest site.Manifest) error

	// AddOrUpdateContentFile upserts a content file and ensures a structure
	// node exists for it.
	AddOrUpdateContentFile(ctx context.Context, siteID string, file *site.ContentFile, parentPath string) error

	// DeleteContentFile removes a content file, its structure node, and —
	// cascade policy — the node's entire descendant subtree together with
	// the subtree's backing files. No orphans remain.
	DeleteContentFile(ctx context.Context, siteID, path string) error
}
