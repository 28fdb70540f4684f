package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

func mustFile(t *testing.T, path, raw string) *site.ContentFile {
	t.Helper()
	cf, err := site.NewContentFile(path, []byte(raw))
	require.NoError(t, err)
	return cf
}

func testModel(t *testing.T) *site.Model {
	t.Helper()
	nav := func(n int) *int { return &n }
	tree, err := structure.FromNested([]structure.NestedNode{
		{Node: structure.Node{Type: structure.TypePage, Path: "content/home.md", Title: "Home", NavOrder: nav(0)}},
		{
			Node: structure.Node{Type: structure.TypePage, Path: "content/docs.md", Title: "Docs", NavOrder: nav(1)},
			Children: []structure.NestedNode{
				{Node: structure.Node{Type: structure.TypePage, Path: "content/docs/install.md", Title: "Install", NavOrder: nav(0)}},
			},
		},
	})
	require.NoError(t, err)

	m := &site.Model{
		ID:       "site-1",
		Manifest: site.Manifest{Title: "Test Site", Theme: "plain"},
		Tree:     tree,
		Files: map[string]*site.ContentFile{
			"content/home.md":         mustFile(t, "content/home.md", "---\ntitle: Home\nhomepage: true\n---\nWelcome."),
			"content/docs.md":         mustFile(t, "content/docs.md", "---\ntitle: Docs\n---\nDocs."),
			"content/docs/install.md": mustFile(t, "content/docs/install.md", "---\ntitle: Install\n---\nInstall."),
		},
	}
	require.NoError(t, m.Normalize())
	return m
}

// both runs a subtest against each store implementation.
func both(t *testing.T, fn func(t *testing.T, s SiteStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStore(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s)
	})
}

func TestSaveAndGet(t *testing.T) {
	both(t, func(t *testing.T, s SiteStore) {
		ctx := context.Background()
		m := testModel(t)

		_, err := s.GetSiteByID(ctx, m.ID)
		require.ErrorIs(t, err, ErrSiteNotLoaded)

		require.NoError(t, s.SaveSite(ctx, m))
		got, err := s.GetSiteByID(ctx, m.ID)
		require.NoError(t, err)
		require.Equal(t, "Test Site", got.Manifest.Title)
		require.Equal(t, 3, got.Tree.Len())
	})
}

func TestSQLiteLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir() + "/sites.db"

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	m := testModel(t)
	require.NoError(t, s.SaveSite(ctx, m))
	require.NoError(t, s.Close())

	// A fresh handle sees nothing until LoadSite runs.
	s2, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	_, err = s2.GetSiteByID(ctx, m.ID)
	require.ErrorIs(t, err, ErrSiteNotLoaded)

	require.Error(t, s2.LoadSite(ctx, "no-such-site"))
	require.NoError(t, s2.LoadSite(ctx, m.ID))

	got, err := s2.GetSiteByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, m.Manifest, got.Manifest)
	require.Equal(t, 3, got.Tree.Len())
	require.Len(t, got.Files, 3)

	hp, ok := got.Tree.Homepage()
	require.True(t, ok)
	require.Equal(t, "content/home.md", hp.Path)

	install, ok := got.Tree.Find("content/docs/install.md")
	require.True(t, ok)
	require.Equal(t, "content/docs.md", got.Tree.Parent(install.Path))
}

func TestImportSiteAssignsID(t *testing.T) {
	ctx := context.Background()
	m := testModel(t)
	m.ID = ""

	s := NewMemoryStore()
	id, err := s.ImportSite(ctx, m)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetSiteByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Test Site", got.Manifest.Title)
}

func TestRepositionNode(t *testing.T) {
	both(t, func(t *testing.T, s SiteStore) {
		ctx := context.Background()
		m := testModel(t)
		require.NoError(t, s.SaveSite(ctx, m))

		require.NoError(t, s.RepositionNode(ctx, m.ID, "content/docs/install.md", "", 1))
		got, err := s.GetSiteByID(ctx, m.ID)
		require.NoError(t, err)
		require.Equal(t, "", got.Tree.Parent("content/docs/install.md"))
		require.Empty(t, got.Tree.Children("content/docs.md"))

		// A move that would create a cycle is absorbed as a no-op.
		require.NoError(t, s.RepositionNode(ctx, m.ID, "content/docs.md", "content/docs.md", 0))
		after, err := s.GetSiteByID(ctx, m.ID)
		require.NoError(t, err)
		require.Equal(t, "", after.Tree.Parent("content/docs.md"))
	})
}

func TestAddOrUpdateContentFile(t *testing.T) {
	both(t, func(t *testing.T, s SiteStore) {
		ctx := context.Background()
		m := testModel(t)
		require.NoError(t, s.SaveSite(ctx, m))

		blog := mustFile(t, "content/blog.md", "---\ntitle: Blog\ncollection:\n  sort_by: date\n---\nPosts.")
		require.NoError(t, s.AddOrUpdateContentFile(ctx, m.ID, blog, ""))

		got, err := s.GetSiteByID(ctx, m.ID)
		require.NoError(t, err)
		node, ok := got.Tree.Find("content/blog.md")
		require.True(t, ok)
		require.Equal(t, structure.TypeCollection, node.Type)
		_, ok = got.File("content/blog.md")
		require.True(t, ok)

		// Updating an existing file keeps its node in place.
		updated := mustFile(t, "content/blog.md", "---\ntitle: Blog Updated\ncollection:\n  sort_by: date\n---\nPosts.")
		require.NoError(t, s.AddOrUpdateContentFile(ctx, m.ID, updated, ""))
		after, err := s.GetSiteByID(ctx, m.ID)
		require.NoError(t, err)
		require.Equal(t, got.Tree.Len(), after.Tree.Len())
		cf, _ := after.File("content/blog.md")
		require.Equal(t, "Blog Updated", cf.Doc.Title())
	})
}

func TestDeleteContentFileCascades(t *testing.T) {
	both(t, func(t *testing.T, s SiteStore) {
		ctx := context.Background()
		m := testModel(t)
		require.NoError(t, s.SaveSite(ctx, m))

		require.NoError(t, s.DeleteContentFile(ctx, m.ID, "content/docs.md"))

		got, err := s.GetSiteByID(ctx, m.ID)
		require.NoError(t, err)
		_, ok := got.Tree.Find("content/docs.md")
		require.False(t, ok)
		_, ok = got.Tree.Find("content/docs/install.md")
		require.False(t, ok)
		_, ok = got.File("content/docs.md")
		require.False(t, ok)
		_, ok = got.File("content/docs/install.md")
		require.False(t, ok)
		require.Equal(t, 1, got.Tree.Len())
	})
}
