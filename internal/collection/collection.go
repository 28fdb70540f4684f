// Package collection filters, sorts, and paginates the child items of a
// collection page.
package collection

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
	"git.home.luguber.info/inful/pagesmith/internal/urls"
)

// ErrPageOutOfRange signals that the requested pagination page exceeds the
// listing. The resolver maps it onto a NotFound result.
var ErrPageOutOfRange = errors.New(errors.CategoryResolve, errors.SeverityWarning, "pagination page out of range")

// Item is a single listable entry of a collection.
type Item struct {
	Path   string
	Slug   string
	Title  string
	Date   time.Time
	URL    string
	Fields map[string]any
}

// PaginationData is derived fresh per render; it is never persisted.
type PaginationData struct {
	CurrentPage int
	TotalPages  int
	HasPrevPage bool
	HasNextPage bool
	PrevURL     string
	NextURL     string
}

// Listing is the paginated, sorted subset handed to the render pipeline.
type Listing struct {
	Config     frontmatter.CollectionConfig
	Items      []Item
	TotalItems int
	Pagination PaginationData
}

// URLBuilder turns a page segment into a mode-consistent link target.
type URLBuilder func(segment string) string

// Candidates gathers the collection page's candidate items: all structure
// tree descendants of the node that are not themselves collection pages,
// in structure-tree order.
func Candidates(m *site.Model, node structure.Node) []Item {
	var items []Item
	// Walk the flattened tree so items keep the original structure order;
	// ties in the stable sort depend on it.
	desc := m.Tree.DescendantPaths(node.Path)
	for _, fn := range m.Tree.Flatten() {
		if _, ok := desc[fn.Path]; !ok {
			continue
		}
		cf, ok := m.File(fn.Path)
		if !ok {
			continue
		}
		if _, isCollection := cf.Doc.Collection(); isCollection {
			continue
		}
		items = append(items, Item{
			Path:   fn.Path,
			Slug:   cf.Slug,
			Title:  itemTitle(fn, cf),
			Date:   cf.Doc.Date(),
			Fields: cf.Doc.Fields,
		})
	}
	return items
}

func itemTitle(fn structure.FlatNode, cf *site.ContentFile) string {
	if t := cf.Doc.Title(); t != "" {
		return t
	}
	return fn.Title
}

// Build sorts and paginates candidate items for the requested page (1-based).
// An items_per_page of zero yields a single unpaginated page. A page beyond
// the range returns ErrPageOutOfRange.
func Build(cfg frontmatter.CollectionConfig, items []Item, page int, segment string, buildURL URLBuilder) (*Listing, error) {
	if page < 1 {
		page = 1
	}

	sorted := append([]Item(nil), items...)
	sortItems(sorted, cfg)
	for i := range sorted {
		sorted[i].URL = buildURL(site.Segment(sorted[i].Path))
	}

	total := len(sorted)
	if cfg.ItemsPerPage <= 0 {
		if page > 1 {
			return nil, ErrPageOutOfRange
		}
		return &Listing{
			Config:     cfg,
			Items:      sorted,
			TotalItems: total,
			Pagination: PaginationData{CurrentPage: 1, TotalPages: 1},
		}, nil
	}

	totalPages := (total + cfg.ItemsPerPage - 1) / cfg.ItemsPerPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		return nil, ErrPageOutOfRange
	}

	start := (page - 1) * cfg.ItemsPerPage
	end := start + cfg.ItemsPerPage
	if end > total {
		end = total
	}

	pd := PaginationData{
		CurrentPage: page,
		TotalPages:  totalPages,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
	}
	if pd.HasPrevPage {
		pd.PrevURL = buildURL(urls.PageVariant(segment, page-1))
	}
	if pd.HasNextPage {
		pd.NextURL = buildURL(urls.PageVariant(segment, page+1))
	}

	return &Listing{
		Config:     cfg,
		Items:      sorted[start:end],
		TotalItems: total,
		Pagination: pd,
	}, nil
}

// sortItems sorts in place. The sort is stable: equal keys retain the
// structure-tree order of the input.
func sortItems(items []Item, cfg frontmatter.CollectionConfig) {
	desc := cfg.SortOrder == frontmatter.SortDesc

	var less func(a, b Item) bool
	switch cfg.SortBy {
	case frontmatter.SortByTitle:
		coll := collate.New(language.Und, collate.IgnoreCase)
		less = func(a, b Item) bool { return coll.CompareString(a.Title, b.Title) < 0 }
	default:
		less = func(a, b Item) bool { return a.Date.Before(b.Date) }
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
