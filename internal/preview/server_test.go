package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/assets"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/store"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

func intp(v int) *int { return &v }

func writeAssetFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func testAssets(t *testing.T) *assets.FSStore {
	t.Helper()
	root := t.TempDir()
	writeAssetFile(t, root, "themes/plain/theme.json", `{"schema": {"properties": {}}}`)
	writeAssetFile(t, root, "themes/plain/base.hbs",
		`<html><head><title>{{page.title}}</title></head><body>{{{body}}}</body></html>`)
	writeAssetFile(t, root, "themes/plain/static/css/site.css", "body{margin:0}")
	writeAssetFile(t, root, "layouts/column/layout.json", `{"default_template": "templates/page.hbs"}`)
	writeAssetFile(t, root, "layouts/column/templates/page.hbs", `<article>{{{content}}}</article>`)
	return assets.NewFSStore(root)
}

func testModel(t *testing.T, rootPath string) *site.Model {
	t.Helper()
	tree, err := structure.FromNested([]structure.NestedNode{
		{Node: structure.Node{Type: structure.TypePage, Path: "content/home.md", Title: "Home", NavOrder: intp(0), Layout: "column"}},
		{Node: structure.Node{Type: structure.TypePage, Path: "content/about.md", Title: "About", NavOrder: intp(1), Layout: "column"}},
	})
	require.NoError(t, err)

	m := &site.Model{
		ID:       "demo",
		Manifest: site.Manifest{Title: "Demo", Theme: "plain", RootPath: rootPath},
		Tree:     tree,
		Files:    map[string]*site.ContentFile{},
	}
	for p, raw := range map[string]string{
		"content/home.md":  "---\ntitle: Home\n---\nWelcome home.\n",
		"content/about.md": "---\ntitle: About\n---\nAbout us.\n",
	} {
		cf, err := site.NewContentFile(p, []byte(raw))
		require.NoError(t, err)
		m.Files[p] = cf
	}
	require.NoError(t, m.Normalize())
	return m
}

func testServer(t *testing.T, rootPath string, opts Options) (*Server, *site.Model) {
	t.Helper()
	st := store.NewMemoryStore()
	m := testModel(t, rootPath)
	require.NoError(t, st.SaveSite(context.Background(), m))
	opts.SiteID = m.ID
	return New(st, testAssets(t), nil, opts), m
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServeHomepage(t *testing.T) {
	s, _ := testServer(t, "", Options{})
	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Welcome home.")
}

func TestServeNestedPage(t *testing.T) {
	s, _ := testServer(t, "", Options{})
	rec := get(t, s.Handler(), "/about")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "About us.")
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	s, _ := testServer(t, "", Options{})
	rec := get(t, s.Handler(), "/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "404")
}

func TestRootPathPrefix(t *testing.T) {
	s, _ := testServer(t, "/preview/demo", Options{})
	h := s.Handler()

	rec := get(t, h, "/preview/demo/about")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "About us.")

	// Requests outside the root redirect to it.
	rec = get(t, h, "/somewhere-else")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/preview/demo/", rec.Header().Get("Location"))
}

func TestServeThemeStatic(t *testing.T) {
	s, _ := testServer(t, "", Options{})
	rec := get(t, s.Handler(), "/assets/css/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "margin:0")
}

func TestLiveReloadScriptInjection(t *testing.T) {
	s, _ := testServer(t, "", Options{LiveReload: true})
	rec := get(t, s.Handler(), "/")
	require.Contains(t, rec.Body.String(), "/ws/reload")

	plain, _ := testServer(t, "", Options{})
	rec = get(t, plain.Handler(), "/")
	require.NotContains(t, rec.Body.String(), "/ws/reload")
}

func TestMetricsEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	m := testModel(t, "")
	require.NoError(t, st.SaveSite(context.Background(), m))

	rec := metrics.NewPrometheusRecorder(nil)
	s := New(st, testAssets(t), rec, Options{SiteID: m.ID})

	// Render once so a counter exists.
	res := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, res.Code)

	mrec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, mrec.Code)
	require.Contains(t, mrec.Body.String(), "pagesmith_render")
}

func TestInjectReloadScript(t *testing.T) {
	withBody := injectReloadScript("<html><body><p>x</p></body></html>")
	require.Contains(t, withBody, reloadScript+"</body>")

	bare := injectReloadScript("<p>fragment</p>")
	require.Equal(t, fmt.Sprintf("<p>fragment</p>%s", reloadScript), bare)
}
