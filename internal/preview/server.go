// Package preview serves a site over HTTP for local authoring: pages are
// rendered live on every request, content changes trigger a browser reload,
// and the site can be re-exported on a schedule.
package preview

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gorilla/mux"

	"git.home.luguber.info/inful/pagesmith/internal/assets"
	"git.home.luguber.info/inful/pagesmith/internal/export"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
	"git.home.luguber.info/inful/pagesmith/internal/render"
	"git.home.luguber.info/inful/pagesmith/internal/resolver"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/store"
	"git.home.luguber.info/inful/pagesmith/internal/urls"
)

// Options configure the preview server.
type Options struct {
	Addr       string
	SiteID     string
	SiteDir    string // watched for changes; empty disables the watcher
	LiveReload bool

	// AutoExport re-exports the site on this interval when positive.
	AutoExport    time.Duration
	ExportOptions export.Options
}

// Server is the local preview server.
type Server struct {
	opts     Options
	store    store.SiteStore
	assets   assets.Store
	pipeline *render.Pipeline
	exporter *export.Exporter
	metrics  metrics.Recorder
	reload   *reloadHub

	httpSrv   *http.Server
	scheduler gocron.Scheduler
	watcher   *watcher
}

// New assembles a preview server. The recorder may be a PrometheusRecorder,
// in which case its metrics are exposed at /metrics.
func New(st store.SiteStore, as assets.Store, rec metrics.Recorder, opts Options) *Server {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	s := &Server{
		opts:     opts,
		store:    st,
		assets:   as,
		pipeline: render.New(as, rec),
		exporter: export.New(as, rec),
		metrics:  rec,
		reload:   newReloadHub(),
	}
	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the preview route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	if pr, ok := s.metrics.(*metrics.PrometheusRecorder); ok {
		r.Handle("/metrics", pr.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/ws/reload", s.reload.handleWS).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(s.handlePage).Methods(http.MethodGet)
	return r
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.opts.SiteDir != "" {
		w, err := newWatcher(s.opts.SiteDir, s.onContentChange)
		if err != nil {
			return err
		}
		s.watcher = w
		go s.watcher.run(ctx)
	}

	if s.opts.AutoExport > 0 {
		if err := s.startAutoExport(ctx); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		observability.InfoContext(ctx, "preview server listening", slog.String("addr", s.opts.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.scheduler != nil {
		_ = s.scheduler.Shutdown()
	}
	s.reload.closeAll()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) startAutoExport(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.opts.AutoExport),
		gocron.NewTask(func() {
			m, err := s.store.GetSiteByID(ctx, s.opts.SiteID)
			if err != nil {
				observability.ErrorContext(ctx, "auto-export skipped", slog.String("error", err.Error()))
				return
			}
			if _, err := s.exporter.Export(ctx, m, s.opts.ExportOptions); err != nil {
				observability.ErrorContext(ctx, "auto-export failed", slog.String("error", err.Error()))
			}
		}),
	)
	if err != nil {
		return err
	}
	s.scheduler = scheduler
	scheduler.Start()
	return nil
}

// onContentChange reloads the site from disk and tells browsers to refresh.
func (s *Server) onContentChange(ctx context.Context) {
	if s.opts.SiteDir != "" {
		m, err := site.LoadFromDir(s.opts.SiteDir)
		if err != nil {
			observability.ErrorContext(ctx, "site reload failed", slog.String("error", err.Error()))
			return
		}
		m.ID = s.opts.SiteID
		if err := s.store.SaveSite(ctx, m); err != nil {
			observability.ErrorContext(ctx, "site save failed", slog.String("error", err.Error()))
			return
		}
	}
	if s.opts.LiveReload {
		s.reload.broadcast()
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := observability.WithMode(r.Context(), string(urls.ModeLive))

	m, err := s.store.GetSiteByID(ctx, s.opts.SiteID)
	if err != nil {
		http.Error(w, "site not loaded", http.StatusServiceUnavailable)
		return
	}

	p, ok := s.sitePath(m, r.URL.Path)
	if !ok {
		root := strings.Trim(m.Manifest.RootPath, "/")
		http.Redirect(w, r, "/"+root+"/", http.StatusFound)
		return
	}

	if strings.HasPrefix(p, "assets/") {
		s.serveAsset(w, r, m, strings.TrimPrefix(p, "assets/"))
		return
	}

	opts := resolver.Options{Mode: urls.ModeLive, SiteRootPath: m.Manifest.RootPath}
	res := resolver.Resolve(p, m, opts)
	html, err := s.pipeline.Render(ctx, m, res, render.Options{Mode: urls.ModeLive, SiteRootPath: m.Manifest.RootPath})
	if err != nil {
		observability.ErrorContext(observability.WithPath(ctx, p), "render failed",
			slog.String("error", err.Error()))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	if s.opts.LiveReload {
		html = injectReloadScript(html)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.Status == resolver.StatusNotFound {
		w.WriteHeader(http.StatusNotFound)
	}
	_, _ = w.Write([]byte(html))
}

// sitePath maps a request path onto a site path, honoring the manifest's
// root path prefix. The second return is false when the request falls
// outside the site root and should redirect to it.
func (s *Server) sitePath(m *site.Model, requestPath string) (string, bool) {
	p := strings.Trim(requestPath, "/")
	root := strings.Trim(m.Manifest.RootPath, "/")
	if root == "" {
		return p, true
	}
	if p == root {
		return "", true
	}
	if strings.HasPrefix(p, root+"/") {
		return strings.TrimPrefix(p, root+"/"), true
	}
	return "", false
}

// serveAsset serves theme static files under the site's assets prefix.
func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, m *site.Model, rel string) {
	dir := s.assets.StaticDir(assets.KindTheme, m.Manifest.Theme)
	if dir == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, dir+"/"+rel)
}
