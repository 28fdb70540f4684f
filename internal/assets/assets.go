// Package assets is the theme/layout asset store boundary. The core render
// pipeline consumes the Store interface; the filesystem implementation reads
// bundle directories (themes/<name>, layouts/<name>).
package assets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
)

// Kind distinguishes the two bundle families.
type Kind string

const (
	KindTheme  Kind = "theme"
	KindLayout Kind = "layout"
)

// DisplayOption names a template file variant of a layout.
type DisplayOption struct {
	Label    string `json:"label,omitempty"`
	Template string `json:"template"`
}

// LayoutManifest is the static descriptor of a layout bundle: schemas for
// the editor's forms plus the display-option variants the render pipeline
// selects body templates from.
type LayoutManifest struct {
	Name            string                   `json:"name"`
	Schema          map[string]any           `json:"schema,omitempty"`
	ItemSchema      map[string]any           `json:"item_schema,omitempty"`
	DisplayOptions  map[string]DisplayOption `json:"display_options,omitempty"`
	DefaultTemplate string                   `json:"default_template,omitempty"`
}

// Template returns the template file for a display-option variant, falling
// back to the manifest's default template. ok is false when nothing matches.
func (lm *LayoutManifest) Template(variant string) (string, bool) {
	if opt, found := lm.DisplayOptions[variant]; found && opt.Template != "" {
		return opt.Template, true
	}
	if lm.DefaultTemplate != "" {
		return lm.DefaultTemplate, true
	}
	return "", false
}

// Store exposes theme and layout bundles to the render pipeline and the
// editor's schema-driven forms.
type Store interface {
	// LayoutManifest returns nil with no error for an unknown layout; the
	// pipeline then falls back to its generic body template.
	LayoutManifest(layout string) (*LayoutManifest, error)

	// AssetContent reads one file of a bundle. A missing file yields an
	// asset-category error.
	AssetContent(kind Kind, bundle, file string) (string, error)

	// Partials enumerates the bundle's partial templates by name.
	Partials(kind Kind, bundle string) (map[string]string, error)

	// ThemeSchema returns the theme's config schema (JSON-schema shaped).
	ThemeSchema(theme string) (map[string]any, error)

	// StaticDir locates a bundle's static file directory. Empty or missing
	// directories are the bundle's concern; callers treat them as "no
	// static files".
	StaticDir(kind Kind, bundle string) string
}

// MergedThemeConfig merges a stored theme configuration with the schema's
// declared defaults so every render (and every settings form) sees a
// complete configuration. The stored config always wins over a default.
func MergedThemeConfig(schema, config map[string]any) map[string]any {
	out := map[string]any{}
	props, _ := schema["properties"].(map[string]any)
	for key, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if def, has := prop["default"]; has {
			out[key] = def
		}
	}
	for key, val := range config {
		out[key] = val
	}
	return out
}

// FSStore reads bundles from a root directory.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem-backed asset store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir}
}

func (s *FSStore) bundleDir(kind Kind, bundle string) string {
	switch kind {
	case KindTheme:
		return filepath.Join(s.root, "themes", bundle)
	default:
		return filepath.Join(s.root, "layouts", bundle)
	}
}

// LayoutManifest reads layouts/<layout>/layout.json. Unknown layouts return
// nil without an error.
func (s *FSStore) LayoutManifest(layout string) (*LayoutManifest, error) {
	raw, err := os.ReadFile(filepath.Join(s.bundleDir(KindLayout, layout), "layout.json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryAsset, "failed to read layout manifest").
			WithContext("layout", layout)
	}

	var lm LayoutManifest
	if err := json.Unmarshal(raw, &lm); err != nil {
		return nil, errors.WrapError(err, errors.CategoryAsset, "invalid layout manifest").
			WithContext("layout", layout)
	}
	if lm.Name == "" {
		lm.Name = layout
	}
	return &lm, nil
}

// AssetContent reads a single bundle file.
func (s *FSStore) AssetContent(kind Kind, bundle, file string) (string, error) {
	p := filepath.Join(s.bundleDir(kind, bundle), filepath.FromSlash(file))
	raw, err := os.ReadFile(p) // #nosec G304 -- bundle paths come from manifests under the asset root
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryAsset, "asset file not readable").
			WithContext("kind", string(kind)).
			WithContext("bundle", bundle).
			WithContext("file", file)
	}
	return string(raw), nil
}

// Partials enumerates partials/*.hbs of a bundle by bare name.
func (s *FSStore) Partials(kind Kind, bundle string) (map[string]string, error) {
	dir := filepath.Join(s.bundleDir(kind, bundle), "partials")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryAsset, "failed to list partials").
			WithContext("bundle", bundle)
	}

	out := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".hbs") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name())) // #nosec G304
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryAsset, "failed to read partial").
				WithContext("file", e.Name())
		}
		out[strings.TrimSuffix(e.Name(), ".hbs")] = string(raw)
	}
	return out, nil
}

// ThemeSchema reads themes/<theme>/theme.json and returns its schema block.
// A theme without a schema yields an empty schema.
func (s *FSStore) ThemeSchema(theme string) (map[string]any, error) {
	raw, err := os.ReadFile(filepath.Join(s.bundleDir(KindTheme, theme), "theme.json"))
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryAsset, "failed to read theme manifest").
			WithContext("theme", theme)
	}

	var doc struct {
		Schema map[string]any `json:"schema"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryAsset, "invalid theme manifest").
			WithContext("theme", theme)
	}
	if doc.Schema == nil {
		doc.Schema = map[string]any{}
	}
	return doc.Schema, nil
}

// StaticDir returns the bundle's static asset directory, or "" when absent.
func (s *FSStore) StaticDir(kind Kind, bundle string) string {
	dir := filepath.Join(s.bundleDir(kind, bundle), "static")
	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		return dir
	}
	return ""
}
