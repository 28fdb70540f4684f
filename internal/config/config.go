// Package config loads the application configuration: where the site lives,
// where assets and the store are, and how export, preview, and publish behave.
// Site content itself (manifest, structure, pages) is not configuration; it
// belongs to the site package.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Assets  AssetsConfig  `yaml:"assets"`
	Store   StoreConfig   `yaml:"store"`
	Export  ExportConfig  `yaml:"export"`
	Preview PreviewConfig `yaml:"preview"`
	Publish PublishConfig `yaml:"publish"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig locates the site source: the directory holding site.yaml and
// the content/ tree.
type SiteConfig struct {
	Dir string `yaml:"dir"`
}

// AssetsConfig locates themes and layouts.
type AssetsConfig struct {
	Dir string `yaml:"dir"`
}

// StoreConfig configures site persistence.
type StoreConfig struct {
	// Path is the SQLite database file, or ":memory:" for an ephemeral store.
	Path string `yaml:"path"`
}

// ExportConfig configures static bundle generation.
type ExportConfig struct {
	Directory   string `yaml:"directory"`
	Clean       bool   `yaml:"clean"`
	VerifyLinks bool   `yaml:"verify_links"`
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	Addr       string `yaml:"addr"`
	LiveReload bool   `yaml:"live_reload"`
	// AutoExport re-exports the site on this interval when set (e.g. "5m").
	AutoExport Duration `yaml:"auto_export,omitempty"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// PublishConfig configures publishing the exported bundle to a Git branch.
type PublishConfig struct {
	Remote  string `yaml:"remote,omitempty"`
	Branch  string `yaml:"branch"`
	Message string `yaml:"message,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfigFile is the conventional config filename looked up by the CLI.
const DefaultConfigFile = "pagesmith.yaml"

// Load reads configuration from the given file. A .env or .env.local file in
// the working directory is loaded first (without overriding the process
// environment), and ${VAR} references in the YAML are expanded.
func Load(configPath string) (*Config, error) {
	loadDotenv()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no file read.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Site.Dir == "" {
		c.Site.Dir = "."
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = "assets"
	}
	if c.Store.Path == "" {
		c.Store.Path = "pagesmith.db"
	}
	if c.Export.Directory == "" {
		c.Export.Directory = "public"
	}
	if c.Preview.Addr == "" {
		c.Preview.Addr = "127.0.0.1:8080"
	}
	if c.Publish.Branch == "" {
		c.Publish.Branch = "gh-pages"
	}
	if c.Publish.Message == "" {
		c.Publish.Message = "Update site"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = string(LogLevelInfo)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = string(LogFormatText)
	}
}

// Init writes a starter configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := `# pagesmith configuration
site:
  dir: .            # directory holding site.yaml and content/
assets:
  dir: assets       # themes/<name>/ and layouts/<name>/
store:
  path: pagesmith.db
export:
  directory: public
  clean: true
  verify_links: true
preview:
  addr: 127.0.0.1:8080
  live_reload: true
  # auto_export: 5m
publish:
  branch: gh-pages
  # remote: git@example.com:user/site.git
logging:
  level: info
  format: text
`
	if err := os.WriteFile(configPath, []byte(example), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func loadDotenv() {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err == nil {
			// godotenv never overrides variables already set in the process.
			_ = godotenv.Load(p)
			return
		}
	}
}
