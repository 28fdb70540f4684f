package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagesmith/internal/config"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"pagesmith.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`

	Import struct{} `cmd:"" help:"Load the site directory into the store"`

	Render struct {
		Path   string `arg:"" optional:"" help:"Site path to render (empty for the homepage)"`
		Export bool   `help:"Render with export-mode relative URLs"`
	} `cmd:"" help:"Render a single page to stdout"`

	Export struct {
		Output string `short:"o" help:"Output directory (overrides config)"`
	} `cmd:"" help:"Export the site as a static bundle"`

	Publish struct {
		Message string `short:"m" help:"Commit message (overrides config)"`
	} `cmd:"" help:"Export the site and commit the bundle to the publish branch"`

	Preview struct {
		Addr string `help:"Listen address (overrides config)"`
	} `cmd:"" help:"Serve the site locally with live rendering"`

	Move struct {
		Path   string `arg:"" help:"Content path of the node to move"`
		Parent string `help:"Content path of the new parent (empty for top level)"`
		Index  int    `default:"-1" help:"Position among siblings (-1 appends)"`
	} `cmd:"" help:"Reposition a structure node"`
}

func main() {
	ctx := kong.Parse(&CLI)

	if ctx.Command() == "init" {
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Configuration written", "path", CLI.Config)
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch ctx.Command() {
	case "import":
		err = runImport(runCtx, cfg)
	case "render", "render <path>":
		err = runRender(runCtx, cfg, CLI.Render.Path, CLI.Render.Export)
	case "export":
		err = runExport(runCtx, cfg, CLI.Export.Output)
	case "publish":
		err = runPublish(runCtx, cfg, CLI.Publish.Message)
	case "preview":
		err = runPreview(runCtx, cfg, CLI.Preview.Addr)
	case "move <path>":
		err = runMove(runCtx, cfg, CLI.Move.Path, CLI.Move.Parent, CLI.Move.Index)
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	level := config.NormalizeLogLevel(cfg.Logging.Level).SlogLevel()
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if config.NormalizeLogFormat(cfg.Logging.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
