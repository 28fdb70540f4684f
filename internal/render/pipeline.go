// Package render composes content, layout, and theme into final HTML.
//
// A render is a fixed sequence of stages with no retries; the first fatal
// stage error aborts the call. A NotFound resolution short-circuits to a
// minimal fallback page without running any stage.
package render

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/assets"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
	"git.home.luguber.info/inful/pagesmith/internal/resolver"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/urls"
)

// Stage is a discrete unit of work in a page render.
type Stage func(ctx context.Context, rs *renderState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Render must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the failing stage and cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Options control a single render call.
type Options struct {
	Mode         urls.Mode
	SiteRootPath string // defaults to the manifest's root_path
}

// Pipeline renders pages against an asset store. It holds no per-render
// state; one pipeline serves any number of sequential renders.
type Pipeline struct {
	assets  assets.Store
	metrics metrics.Recorder
}

// New creates a render pipeline. A nil recorder disables metrics.
func New(store assets.Store, rec metrics.Recorder) *Pipeline {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Pipeline{assets: store, metrics: rec}
}

// renderState carries mutable state across stages of one render call.
type renderState struct {
	model *site.Model
	res   resolver.Result
	opts  Options
	store assets.Store

	themeConfig    map[string]any
	partials       map[string]string
	layoutManifest *assets.LayoutManifest
	images         imageService

	pageCtx map[string]any
	baseCtx map[string]any

	bodyHTML string
	html     string
}

var stageSequence = []struct {
	name string
	fn   Stage
}{
	{"sync_theme_config", stageSyncThemeConfig},
	{"prepare_environment", stagePrepareEnvironment},
	{"resolve_services", stageResolveServices},
	{"assemble_page_context", stageAssemblePageContext},
	{"assemble_base_context", stageAssembleBaseContext},
	{"render_body", stageRenderBody},
	{"render_shell", stageRenderShell},
}

// Render produces the final HTML for a resolved page. A NotFound resolution
// yields the minimal fallback page and no error; asset and template
// failures return a fatal error for this render call.
func (p *Pipeline) Render(ctx context.Context, m *site.Model, res resolver.Result, opts Options) (string, error) {
	start := time.Now()
	ctx = observability.WithSiteID(ctx, m.ID)
	ctx = observability.WithPath(ctx, res.Path)
	ctx = observability.WithMode(ctx, string(opts.Mode))

	if res.Status == resolver.StatusNotFound {
		observability.DebugContext(ctx, "rendering not-found fallback")
		p.metrics.IncRenderResult(string(opts.Mode), metrics.ResultNotFound)
		return notFoundHTML(res), nil
	}

	if opts.SiteRootPath == "" {
		opts.SiteRootPath = m.Manifest.RootPath
	}

	rs := &renderState{model: m, res: res, opts: opts, store: p.assets}
	for _, st := range stageSequence {
		select {
		case <-ctx.Done():
			p.metrics.IncRenderResult(string(opts.Mode), metrics.ResultError)
			return "", &StageError{Kind: StageErrorCanceled, Stage: st.name, Err: ctx.Err()}
		default:
		}

		stageCtx := observability.WithStage(ctx, st.name)
		t0 := time.Now()
		err := st.fn(stageCtx, rs)
		p.metrics.ObserveStageDuration(st.name, time.Since(t0))
		if err != nil {
			observability.ErrorContext(stageCtx, "render stage failed")
			p.metrics.IncRenderResult(string(opts.Mode), metrics.ResultError)
			return "", &StageError{Kind: StageErrorFatal, Stage: st.name, Err: err}
		}
	}

	p.metrics.ObserveRenderDuration(string(opts.Mode), time.Since(start))
	p.metrics.IncRenderResult(string(opts.Mode), metrics.ResultSuccess)
	observability.DebugContext(ctx, "page rendered")
	return rs.html, nil
}
