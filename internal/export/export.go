// Package export writes a site out as a static bundle: one directory per
// page with an index.html inside, pagination pages under page/<n>, and the
// theme's static files under assets/.
package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/assets"
	"git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
	"git.home.luguber.info/inful/pagesmith/internal/render"
	"git.home.luguber.info/inful/pagesmith/internal/resolver"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/urls"
)

// Options control one export run.
type Options struct {
	Directory   string
	Clean       bool
	VerifyLinks bool
}

// Summary reports what an export run produced.
type Summary struct {
	Pages       int
	StaticFiles int
	Duration    time.Duration
	BrokenLinks []BrokenLink
}

// Exporter renders every page of a site in export mode and writes the
// resulting bundle to disk.
type Exporter struct {
	assets   assets.Store
	pipeline *render.Pipeline
	metrics  metrics.Recorder
}

// New creates an exporter. A nil recorder disables metrics.
func New(store assets.Store, rec metrics.Recorder) *Exporter {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Exporter{
		assets:   store,
		pipeline: render.New(store, rec),
		metrics:  rec,
	}
}

// Export writes the full static bundle for the model into opts.Directory.
func (e *Exporter) Export(ctx context.Context, m *site.Model, opts Options) (*Summary, error) {
	start := time.Now()
	ctx = observability.WithMode(ctx, string(urls.ModeExport))

	summary, err := e.export(ctx, m, opts)
	elapsed := time.Since(start)
	e.metrics.ObserveExportDuration(elapsed)
	if err != nil {
		e.metrics.IncExportOutcome(string(metrics.ResultError))
		return nil, err
	}
	summary.Duration = elapsed
	e.metrics.IncExportOutcome(string(metrics.ResultSuccess))
	e.metrics.SetExportedPages(summary.Pages)
	observability.InfoContext(ctx, "export complete",
		slog.Int("pages", summary.Pages),
		slog.Int("static_files", summary.StaticFiles),
		slog.Int("broken_links", len(summary.BrokenLinks)),
		slog.Duration("duration", elapsed))
	return summary, nil
}

func (e *Exporter) export(ctx context.Context, m *site.Model, opts Options) (*Summary, error) {
	if opts.Directory == "" {
		return nil, errors.ValidationError("export directory is required")
	}
	if opts.Clean {
		if err := os.RemoveAll(opts.Directory); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to clean export directory").
				WithContext("directory", opts.Directory)
		}
	}
	if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create export directory").
			WithContext("directory", opts.Directory)
	}

	summary := &Summary{}
	for _, segment := range e.pageSegments(m) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CategoryRuntime, errors.SeverityWarning, "export canceled")
		}
		if err := e.exportPage(ctx, m, segment, opts.Directory, summary); err != nil {
			return nil, err
		}
	}

	staticCount, err := e.copyStatic(ctx, m, opts.Directory)
	if err != nil {
		return nil, err
	}
	summary.StaticFiles = staticCount

	if opts.VerifyLinks {
		broken, err := VerifyBundle(opts.Directory)
		if err != nil {
			return nil, err
		}
		summary.BrokenLinks = broken
		for _, bl := range broken {
			observability.WarnContext(ctx, "broken internal link",
				slog.String("source", bl.Source), slog.String("target", bl.Target))
		}
	}
	return summary, nil
}

// pageSegments enumerates export targets: the homepage at the bundle root,
// then every other structure node at its own segment.
func (e *Exporter) pageSegments(m *site.Model) []string {
	segments := []string{""}
	hp, hasHome := m.Tree.Homepage()
	for _, fn := range m.Tree.Flatten() {
		if hasHome && fn.Path == hp.Path {
			continue
		}
		segments = append(segments, site.Segment(fn.Path))
	}
	return segments
}

// exportPage renders one segment, plus its pagination pages when the
// segment is a collection page with more than one page of items.
func (e *Exporter) exportPage(ctx context.Context, m *site.Model, segment, dir string, summary *Summary) error {
	res := resolver.Resolve(segment, m, resolver.Options{Mode: urls.ModeExport})
	if res.Status == resolver.StatusNotFound {
		observability.WarnContext(observability.WithPath(ctx, segment), "skipping unresolvable page",
			slog.String("reason", string(res.Reason)))
		return nil
	}

	if err := e.writePage(ctx, m, res, segment, dir, summary); err != nil {
		return err
	}

	if res.Listing == nil {
		return nil
	}
	for page := 2; page <= res.Listing.Pagination.TotalPages; page++ {
		variant := urls.PageVariant(segment, page)
		pageRes := resolver.Resolve(variant, m, resolver.Options{Mode: urls.ModeExport})
		if pageRes.Status == resolver.StatusNotFound {
			continue
		}
		if err := e.writePage(ctx, m, pageRes, variant, dir, summary); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writePage(ctx context.Context, m *site.Model, res resolver.Result, segment, dir string, summary *Summary) error {
	html, err := e.pipeline.Render(ctx, m, res, render.Options{Mode: urls.ModeExport})
	if err != nil {
		return err
	}

	rel := urls.ExportFile(segment)
	target := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to create page directory").
			WithContext("path", target)
	}
	if err := os.WriteFile(target, []byte(html), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to write page").
			WithContext("path", target)
	}
	summary.Pages++
	observability.DebugContext(observability.WithPath(ctx, segment), "exported page", slog.String("file", rel))
	return nil
}

// copyStatic copies the theme's static files, and the static files of every
// layout the site uses, into <dir>/assets.
func (e *Exporter) copyStatic(ctx context.Context, m *site.Model, dir string) (int, error) {
	assetsDir := filepath.Join(dir, "assets")

	count, err := copyDir(e.assets.StaticDir(assets.KindTheme, m.Manifest.Theme), assetsDir)
	if err != nil {
		return 0, err
	}

	seen := map[string]struct{}{}
	for _, fn := range m.Tree.Flatten() {
		layout := fn.Layout
		if layout == "" {
			layout = resolver.DefaultLayout
		}
		if _, done := seen[layout]; done {
			continue
		}
		seen[layout] = struct{}{}
		n, err := copyDir(e.assets.StaticDir(assets.KindLayout, layout), assetsDir)
		if err != nil {
			return 0, err
		}
		count += n
	}

	observability.DebugContext(ctx, "copied static assets", slog.Int("count", count))
	return count, nil
}

// copyDir copies src into dst recursively. A missing src is not an error;
// themes and layouts without static files are common.
func copyDir(src, dst string) (int, error) {
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return 0, nil
	}

	count := 0
	walkErr := filepath.Walk(src, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		count++
		return nil
	})
	if walkErr != nil {
		return 0, errors.WrapError(walkErr, errors.CategoryExport, "failed to copy static files").
			WithContext("source", src)
	}
	return count, nil
}
