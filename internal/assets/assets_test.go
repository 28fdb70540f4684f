package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func testStore(t *testing.T) *FSStore {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "layouts/column/layout.json", `{
		"name": "column",
		"schema": {"properties": {"hero_image": {"type": "string"}}},
		"display_options": {
			"grid": {"label": "Grid", "template": "templates/grid.hbs"},
			"list": {"template": "templates/list.hbs"}
		},
		"default_template": "templates/page.hbs"
	}`)
	writeFile(t, root, "layouts/column/templates/page.hbs", "<article>{{{content}}}</article>")
	writeFile(t, root, "themes/plain/theme.json", `{
		"schema": {"properties": {
			"accent_color": {"type": "string", "default": "#336699"},
			"show_footer": {"type": "boolean", "default": true}
		}}
	}`)
	writeFile(t, root, "themes/plain/base.hbs", "<html><body>{{{body}}}</body></html>")
	writeFile(t, root, "themes/plain/partials/footer.hbs", "<footer>{{site.title}}</footer>")
	return NewFSStore(root)
}

func TestStaticDir_ThroughStoreInterface(t *testing.T) {
	s := testStore(t)
	writeFile(t, s.root, "themes/plain/static/css/site.css", "body{}")

	// The exporter and preview server hold the store as the interface.
	var store Store = s
	require.NotEmpty(t, store.StaticDir(KindTheme, "plain"))
	require.Empty(t, store.StaticDir(KindLayout, "column"))
}

func TestLayoutManifest_Found(t *testing.T) {
	s := testStore(t)

	lm, err := s.LayoutManifest("column")
	require.NoError(t, err)
	require.NotNil(t, lm)
	require.Equal(t, "column", lm.Name)

	tpl, ok := lm.Template("grid")
	require.True(t, ok)
	require.Equal(t, "templates/grid.hbs", tpl)

	// unknown variant falls back to the default template
	tpl, ok = lm.Template("unknown-style")
	require.True(t, ok)
	require.Equal(t, "templates/page.hbs", tpl)
}

func TestLayoutManifest_Unknown_ReturnsNilNoError(t *testing.T) {
	s := testStore(t)

	lm, err := s.LayoutManifest("ghost")
	require.NoError(t, err)
	require.Nil(t, lm)
}

func TestAssetContent(t *testing.T) {
	s := testStore(t)

	content, err := s.AssetContent(KindTheme, "plain", "base.hbs")
	require.NoError(t, err)
	require.Contains(t, content, "{{{body}}}")

	_, err = s.AssetContent(KindTheme, "plain", "missing.hbs")
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryAsset))
}

func TestPartials(t *testing.T) {
	s := testStore(t)

	partials, err := s.Partials(KindTheme, "plain")
	require.NoError(t, err)
	require.Len(t, partials, 1)
	require.Contains(t, partials["footer"], "<footer>")

	// bundle without a partials dir is fine
	empty, err := s.Partials(KindLayout, "column")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestThemeSchema_AndMergedConfig(t *testing.T) {
	s := testStore(t)

	schema, err := s.ThemeSchema("plain")
	require.NoError(t, err)

	merged := MergedThemeConfig(schema, map[string]any{"accent_color": "#ff0000"})
	require.Equal(t, "#ff0000", merged["accent_color"]) // user value wins
	require.Equal(t, true, merged["show_footer"])       // default filled in
}

func TestMergedThemeConfig_EmptySchema(t *testing.T) {
	merged := MergedThemeConfig(map[string]any{}, map[string]any{"x": 1})
	require.Equal(t, 1, merged["x"])
}
