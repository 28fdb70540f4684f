package main

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/pagesmith/internal/assets"
	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/export"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/preview"
	"git.home.luguber.info/inful/pagesmith/internal/publish"
	"git.home.luguber.info/inful/pagesmith/internal/render"
	"git.home.luguber.info/inful/pagesmith/internal/resolver"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/store"
	"git.home.luguber.info/inful/pagesmith/internal/urls"
)

// loadModel reads the site from its source directory.
func loadModel(cfg *config.Config) (*site.Model, error) {
	m, err := site.LoadFromDir(cfg.Site.Dir)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Store.Path)
}

// runImport loads the site directory into the store, minting an id on first
// import.
func runImport(ctx context.Context, cfg *config.Config) error {
	m, err := loadModel(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.ImportSite(ctx, m)
	if err != nil {
		return err
	}
	slog.Info("Site imported", "site_id", id, "pages", len(m.Files))
	fmt.Println(id)
	return nil
}

// runRender renders a single page to stdout.
func runRender(ctx context.Context, cfg *config.Config, path string, exportMode bool) error {
	m, err := loadModel(cfg)
	if err != nil {
		return err
	}

	mode := urls.ModeLive
	if exportMode {
		mode = urls.ModeExport
	}

	as := assets.NewFSStore(cfg.Assets.Dir)
	res := resolver.Resolve(path, m, resolver.Options{Mode: mode, SiteRootPath: m.Manifest.RootPath})
	html, err := render.New(as, nil).Render(ctx, m, res, render.Options{Mode: mode, SiteRootPath: m.Manifest.RootPath})
	if err != nil {
		return err
	}
	if res.Status == resolver.StatusNotFound {
		slog.Warn("Path did not resolve to a page", "path", path, "reason", string(res.Reason))
	}
	fmt.Println(html)
	return nil
}

func exportOptions(cfg *config.Config, outputOverride string) export.Options {
	opts := export.Options{
		Directory:   cfg.Export.Directory,
		Clean:       cfg.Export.Clean,
		VerifyLinks: cfg.Export.VerifyLinks,
	}
	if outputOverride != "" {
		opts.Directory = outputOverride
	}
	return opts
}

// runExport writes the static bundle.
func runExport(ctx context.Context, cfg *config.Config, output string) error {
	m, err := loadModel(cfg)
	if err != nil {
		return err
	}

	as := assets.NewFSStore(cfg.Assets.Dir)
	summary, err := export.New(as, nil).Export(ctx, m, exportOptions(cfg, output))
	if err != nil {
		return err
	}
	for _, bl := range summary.BrokenLinks {
		slog.Warn("Broken link in export", "source", bl.Source, "target", bl.Target)
	}
	slog.Info("Export finished",
		"pages", summary.Pages,
		"static_files", summary.StaticFiles,
		"duration", summary.Duration)
	return nil
}

// runPublish exports the bundle and commits it to the publish branch.
func runPublish(ctx context.Context, cfg *config.Config, message string) error {
	if err := runExport(ctx, cfg, ""); err != nil {
		return err
	}

	if message == "" {
		message = cfg.Publish.Message
	}
	res, err := publish.Publish(ctx, publish.Options{
		Directory: cfg.Export.Directory,
		Branch:    cfg.Publish.Branch,
		Remote:    cfg.Publish.Remote,
		Message:   message,
	})
	if err != nil {
		return err
	}
	if res.Clean {
		slog.Info("Nothing to publish, bundle unchanged")
		return nil
	}
	slog.Info("Published", "commit", res.Commit, "pushed", res.Pushed)
	return nil
}

// runPreview serves the site until interrupted.
func runPreview(ctx context.Context, cfg *config.Config, addr string) error {
	m, err := loadModel(cfg)
	if err != nil {
		return err
	}

	st := store.NewMemoryStore()
	id, err := st.ImportSite(ctx, m)
	if err != nil {
		return err
	}

	if addr == "" {
		addr = cfg.Preview.Addr
	}
	srv := preview.New(st, assets.NewFSStore(cfg.Assets.Dir), metrics.NewPrometheusRecorder(nil), preview.Options{
		Addr:          addr,
		SiteID:        id,
		SiteDir:       cfg.Site.Dir,
		LiveReload:    cfg.Preview.LiveReload,
		AutoExport:    cfg.Preview.AutoExport.Std(),
		ExportOptions: exportOptions(cfg, ""),
	})
	return srv.Start(ctx)
}

// runMove repositions a structure node and writes the updated structure back
// to the site manifest.
func runMove(ctx context.Context, cfg *config.Config, path, parent string, index int) error {
	m, err := loadModel(cfg)
	if err != nil {
		return err
	}

	st := store.NewMemoryStore()
	id, err := st.ImportSite(ctx, m)
	if err != nil {
		return err
	}
	if err := st.RepositionNode(ctx, id, path, parent, index); err != nil {
		return err
	}
	updated, err := st.GetSiteByID(ctx, id)
	if err != nil {
		return err
	}
	if updated.Tree.Parent(path) != parent {
		slog.Warn("Move rejected, structure unchanged", "path", path, "parent", parent)
		return nil
	}

	if err := site.SaveStructure(cfg.Site.Dir, updated); err != nil {
		return err
	}
	slog.Info("Node moved", "path", path, "parent", parent, "index", index)
	return nil
}
