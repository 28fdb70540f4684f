// Package nav turns the structure tree into renderable navigation links.
//
// Only page nodes with a navOrder participate; children of collection pages
// are excluded because their items are reached through the parent's listing.
package nav

import (
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
	"git.home.luguber.info/inful/pagesmith/internal/urls"
)

// Link is one navigation entry.
type Link struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	Path     string `json:"path"`
	Active   bool   `json:"active"`
	Children []Link `json:"children,omitempty"`
}

// Options select link targets and mark the active entry.
type Options struct {
	Mode         urls.Mode
	SiteRootPath string
	// CurrentPath is the content path of the page being rendered; export
	// mode computes link targets relative to it.
	CurrentPath string
	// CurrentSegment overrides the URL segment derived from CurrentPath.
	// Pagination pages set it so export links resolve from page/<n>.
	CurrentSegment string
}

// Build generates the navigation for a site model.
func Build(m *site.Model, opts Options) []Link {
	fromSegment := opts.CurrentSegment
	if fromSegment == "" {
		fromSegment = segmentOf(m, opts.CurrentPath)
	}
	return buildLevel(m, m.Tree.Roots(), fromSegment, opts)
}

func buildLevel(m *site.Model, nodes []structure.Node, fromSegment string, opts Options) []Link {
	var out []Link
	for _, n := range nodes {
		if !n.InNav() {
			continue
		}

		link := Link{
			Label:  n.Label(),
			Path:   n.Path,
			URL:    urls.For(opts.Mode, opts.SiteRootPath, fromSegment, segmentOf(m, n.Path)),
			Active: n.Path == opts.CurrentPath,
		}
		if !isCollectionPage(m, n) {
			link.Children = buildLevel(m, m.Tree.Children(n.Path), fromSegment, opts)
		}
		out = append(out, link)
	}
	return out
}

// isCollectionPage consults the content file's frontmatter; the node type is
// advisory, the collection block is authoritative.
func isCollectionPage(m *site.Model, n structure.Node) bool {
	if cf, ok := m.File(n.Path); ok {
		_, isCollection := cf.Doc.Collection()
		return isCollection
	}
	return n.Type == structure.TypeCollection
}

func segmentOf(m *site.Model, contentPath string) string {
	if contentPath == "" {
		return ""
	}
	if home, ok := m.Tree.Homepage(); ok && home.Path == contentPath {
		return ""
	}
	return site.Segment(contentPath)
}
