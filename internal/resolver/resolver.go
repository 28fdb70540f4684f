// Package resolver maps a requested slash-delimited path onto a content file,
// its effective layout, and — for collection pages — the paginated listing.
package resolver

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/pagesmith/internal/collection"
	"git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
	"git.home.luguber.info/inful/pagesmith/internal/urls"
)

// DefaultLayout is the system fallback when neither the content frontmatter
// nor the structure node configures one.
const DefaultLayout = "default"

// Status classifies a resolution result.
type Status int

const (
	StatusPage Status = iota
	StatusNotFound
)

// NotFoundReason explains a StatusNotFound result.
type NotFoundReason string

const (
	ReasonNoContent      NotFoundReason = "no_content_file"
	ReasonNoHomepage     NotFoundReason = "no_homepage"
	ReasonPageOutOfRange NotFoundReason = "page_out_of_range"
)

// Result is the outcome of a resolution. NotFound is a value, not an error;
// the render pipeline turns it into a minimal fallback page.
type Result struct {
	Status  Status
	Reason  NotFoundReason
	Path    string // normalized request path ("" = homepage)
	Segment string // URL segment of the resolved page
	Page    int    // requested pagination page (1-based)

	Content *site.ContentFile
	Node    structure.Node
	Layout  string
	Listing *collection.Listing // non-nil only for collection pages
}

// Options control pagination URL construction for collection pages.
type Options struct {
	Mode         urls.Mode
	SiteRootPath string
}

// Resolve maps a request path onto a page. A trailing /page/<n> segment
// selects a pagination page of a collection; it is stripped before content
// lookup. The empty path resolves to the designated homepage.
func Resolve(path string, m *site.Model, opts Options) Result {
	cleaned, page, paged := splitPageSuffix(strings.Trim(path, "/"))

	if cleaned == "" {
		return resolveHomepage(m, page, paged, opts)
	}

	contentPath := site.ContentPath(cleaned)
	cf, ok := m.File(contentPath)
	if !ok {
		return Result{Status: StatusNotFound, Reason: ReasonNoContent, Path: cleaned, Page: page}
	}
	return resolveContent(m, cf, cleaned, page, paged, opts)
}

func resolveHomepage(m *site.Model, page int, paged bool, opts Options) Result {
	cf, ok := m.Homepage()
	if !ok {
		return Result{Status: StatusNotFound, Reason: ReasonNoHomepage, Page: page}
	}
	return resolveContentWithSegment(m, cf, "", "", page, paged, opts)
}

func resolveContent(m *site.Model, cf *site.ContentFile, requestPath string, page int, paged bool, opts Options) Result {
	segment := site.Segment(cf.Path)
	if home, ok := m.Tree.Homepage(); ok && home.Path == cf.Path {
		segment = ""
	}
	return resolveContentWithSegment(m, cf, requestPath, segment, page, paged, opts)
}

func resolveContentWithSegment(m *site.Model, cf *site.ContentFile, requestPath, segment string, page int, paged bool, opts Options) Result {
	node, _ := m.Tree.Find(cf.Path)

	res := Result{
		Status:  StatusPage,
		Path:    requestPath,
		Segment: segment,
		Page:    page,
		Content: cf,
		Node:    node,
		Layout:  effectiveLayout(m, cf, node),
	}

	cfg, isCollection := cf.Doc.Collection()
	if !isCollection {
		// A non-collection page has no pagination variants at all; even an
		// explicit page/1 is outside its URL space (page 1 lives at the
		// bare segment).
		if paged {
			return Result{Status: StatusNotFound, Reason: ReasonPageOutOfRange, Path: requestPath, Page: page}
		}
		return res
	}

	items := collection.Candidates(m, node)
	buildURL := func(seg string) string {
		return urls.For(opts.Mode, opts.SiteRootPath, urls.PageVariant(segment, page), seg)
	}
	listing, err := collection.Build(cfg, items, page, segment, buildURL)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryResolve) {
			return Result{Status: StatusNotFound, Reason: ReasonPageOutOfRange, Path: requestPath, Page: page}
		}
		return Result{Status: StatusNotFound, Reason: ReasonNoContent, Path: requestPath, Page: page}
	}
	res.Listing = listing
	return res
}

// effectiveLayout picks the layout: explicit frontmatter, then the structure
// node's configured one, then — for items inside a collection — the parent
// collection's item_page_layout, then the system default.
func effectiveLayout(m *site.Model, cf *site.ContentFile, node structure.Node) string {
	if l := cf.Doc.Layout(); l != "" {
		return l
	}
	if node.Layout != "" {
		return node.Layout
	}
	if l := parentItemPageLayout(m, cf.Path); l != "" {
		return l
	}
	return DefaultLayout
}

// parentItemPageLayout returns the item_page_layout declared by the page's
// parent collection, or "" when the page is not a collection item.
func parentItemPageLayout(m *site.Model, path string) string {
	parent := m.Tree.Parent(path)
	if parent == "" {
		return ""
	}
	pcf, ok := m.File(parent)
	if !ok {
		return ""
	}
	cfg, isCollection := pcf.Doc.Collection()
	if !isCollection {
		return ""
	}
	return cfg.ItemPageLayout
}

// splitPageSuffix strips a trailing page/<n> pagination selector. The bool
// reports whether the request carried an explicit selector, which matters
// even for n=1: the canonical first page is the bare segment.
func splitPageSuffix(path string) (string, int, bool) {
	parts := strings.Split(path, "/")
	n := len(parts)
	if n >= 2 && parts[n-2] == "page" {
		if page, err := strconv.Atoi(parts[n-1]); err == nil && page >= 1 {
			return strings.Join(parts[:n-2], "/"), page, true
		}
	}
	return path, 1, false
}
