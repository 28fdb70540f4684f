package collection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
	"git.home.luguber.info/inful/pagesmith/internal/urls"
)

func liveURL(segment string) string { return urls.Live("", segment) }

func itemsN(n int) []Item {
	out := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Item{
			Path:  fmt.Sprintf("content/blog/post-%02d.md", i),
			Title: fmt.Sprintf("Post %02d", i),
			Date:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		})
	}
	return out
}

func TestBuild_PaginationSlicing(t *testing.T) {
	cfg := frontmatter.CollectionConfig{SortBy: frontmatter.SortByDate, SortOrder: frontmatter.SortAsc, ItemsPerPage: 10}

	listing, err := Build(cfg, itemsN(23), 1, "blog", liveURL)
	require.NoError(t, err)
	require.Equal(t, 3, listing.Pagination.TotalPages)
	require.Len(t, listing.Items, 10)
	require.Equal(t, 23, listing.TotalItems)
	require.False(t, listing.Pagination.HasPrevPage)
	require.True(t, listing.Pagination.HasNextPage)
	require.Equal(t, "/blog/page/2", listing.Pagination.NextURL)

	last, err := Build(cfg, itemsN(23), 3, "blog", liveURL)
	require.NoError(t, err)
	require.Len(t, last.Items, 3)
	require.True(t, last.Pagination.HasPrevPage)
	require.False(t, last.Pagination.HasNextPage)
	require.Equal(t, "/blog/page/2", last.Pagination.PrevURL)
}

func TestBuild_PageOutOfRange(t *testing.T) {
	cfg := frontmatter.CollectionConfig{SortBy: frontmatter.SortByDate, ItemsPerPage: 10}

	_, err := Build(cfg, itemsN(23), 4, "blog", liveURL)
	require.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestBuild_Unpaginated_SinglePage(t *testing.T) {
	cfg := frontmatter.CollectionConfig{SortBy: frontmatter.SortByDate, SortOrder: frontmatter.SortAsc}

	listing, err := Build(cfg, itemsN(23), 1, "blog", liveURL)
	require.NoError(t, err)
	require.Len(t, listing.Items, 23)
	require.Equal(t, 1, listing.Pagination.TotalPages)
	require.False(t, listing.Pagination.HasNextPage)

	_, err = Build(cfg, itemsN(23), 2, "blog", liveURL)
	require.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestBuild_TitleSortCaseInsensitive(t *testing.T) {
	cfg := frontmatter.CollectionConfig{SortBy: frontmatter.SortByTitle, SortOrder: frontmatter.SortAsc}
	items := []Item{
		{Path: "content/c/banana.md", Title: "Banana"},
		{Path: "content/c/apple.md", Title: "apple"},
		{Path: "content/c/cherry.md", Title: "Cherry"},
	}

	listing, err := Build(cfg, items, 1, "c", liveURL)
	require.NoError(t, err)

	titles := []string{listing.Items[0].Title, listing.Items[1].Title, listing.Items[2].Title}
	require.Equal(t, []string{"apple", "Banana", "Cherry"}, titles)
}

func TestBuild_DateDescDefault(t *testing.T) {
	cfg := frontmatter.CollectionConfig{SortBy: frontmatter.SortByDate, SortOrder: frontmatter.SortDesc}

	listing, err := Build(cfg, itemsN(3), 1, "blog", liveURL)
	require.NoError(t, err)
	require.Equal(t, "Post 02", listing.Items[0].Title)
	require.Equal(t, "Post 00", listing.Items[2].Title)
}

func TestBuild_StableSortKeepsInputOrderOnTies(t *testing.T) {
	cfg := frontmatter.CollectionConfig{SortBy: frontmatter.SortByDate, SortOrder: frontmatter.SortAsc}
	same := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	items := []Item{
		{Path: "content/c/first.md", Title: "First", Date: same},
		{Path: "content/c/second.md", Title: "Second", Date: same},
		{Path: "content/c/third.md", Title: "Third", Date: same},
	}

	listing, err := Build(cfg, items, 1, "c", liveURL)
	require.NoError(t, err)
	require.Equal(t, "First", listing.Items[0].Title)
	require.Equal(t, "Second", listing.Items[1].Title)
	require.Equal(t, "Third", listing.Items[2].Title)
}

func TestBuild_ItemURLs(t *testing.T) {
	cfg := frontmatter.CollectionConfig{SortBy: frontmatter.SortByDate, SortOrder: frontmatter.SortAsc, ItemsPerPage: 2}

	listing, err := Build(cfg, itemsN(2), 1, "blog", liveURL)
	require.NoError(t, err)
	require.Equal(t, "/blog/post-00", listing.Items[0].URL)
}

func intp(v int) *int { return &v }

func TestCandidates_ExcludesNestedCollectionPages(t *testing.T) {
	tree, err := structure.FromNested([]structure.NestedNode{
		{
			Node: structure.Node{Type: structure.TypeCollection, Path: "content/blog.md", NavOrder: intp(0)},
			Children: []structure.NestedNode{
				{Node: structure.Node{Type: structure.TypePage, Path: "content/blog/post-1.md", NavOrder: intp(0)}},
				{Node: structure.Node{Type: structure.TypeCollection, Path: "content/blog/series.md", NavOrder: intp(1)},
					Children: []structure.NestedNode{
						{Node: structure.Node{Type: structure.TypePage, Path: "content/blog/series/ep-1.md", NavOrder: intp(0)}},
					}},
			},
		},
	})
	require.NoError(t, err)

	m := &site.Model{ID: "s", Tree: tree, Files: map[string]*site.ContentFile{}}
	addFile := func(p, raw string) {
		cf, err := site.NewContentFile(p, []byte(raw))
		require.NoError(t, err)
		m.Files[p] = cf
	}
	addFile("content/blog.md", "---\ncollection:\n  items_per_page: 5\n---\n")
	addFile("content/blog/post-1.md", "---\ntitle: Post 1\n---\n")
	addFile("content/blog/series.md", "---\ncollection: {}\n---\n")
	addFile("content/blog/series/ep-1.md", "---\ntitle: Episode 1\n---\n")

	node, ok := tree.Find("content/blog.md")
	require.True(t, ok)

	items := Candidates(m, node)
	paths := make([]string, 0, len(items))
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	// the nested collection page is excluded; its own items are still
	// descendants of the outer collection
	require.Equal(t, []string{"content/blog/post-1.md", "content/blog/series/ep-1.md"}, paths)
}
