// Package frontmatter splits Markdown documents into YAML frontmatter and
// body, and exposes typed access to the small reserved key set the core
// cares about (title, date, layout, collection, homepage). All other keys
// stay in the open field map; layout schemas decide what they mean.
package frontmatter

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Reserved frontmatter keys interpreted by the core. Everything else is
// passed through to templates untouched.
const (
	KeyTitle      = "title"
	KeyDate       = "date"
	KeyLayout     = "layout"
	KeyCollection = "collection"
	KeyHomepage   = "homepage"
	KeyMenuTitle  = "menuTitle"
	KeyNavOrder   = "navOrder"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Doc is a parsed Markdown document: the open frontmatter field map plus the
// raw body with the frontmatter block stripped.
type Doc struct {
	Fields map[string]any
	Body   []byte
	HadFM  bool
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is
// false and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	fmEnd := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return content[start:fmEnd], content[bodyStart:], true, nil
}

// Parse splits content and decodes the frontmatter block into a field map.
func Parse(content []byte) (*Doc, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if had && len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}

	return &Doc{Fields: fields, Body: body, HadFM: had}, nil
}

// String returns the string value of a field, or "" when absent or not a string.
func (d *Doc) String(key string) string {
	if s, ok := d.Fields[key].(string); ok {
		return s
	}
	return ""
}

// Bool returns the boolean value of a field; absent or non-bool values are false.
func (d *Doc) Bool(key string) bool {
	b, _ := d.Fields[key].(bool)
	return b
}

// Title returns the reserved title field.
func (d *Doc) Title() string { return d.String(KeyTitle) }

// Layout returns the reserved layout field.
func (d *Doc) Layout() string { return d.String(KeyLayout) }

// IsHomepage reports whether the document carries the homepage marker.
func (d *Doc) IsHomepage() bool { return d.Bool(KeyHomepage) }

// Date parses the reserved date field as a calendar date. The zero time is
// returned when the field is absent or unparseable; collection sorting
// treats those as oldest.
func (d *Doc) Date() time.Time {
	switch v := d.Fields[KeyDate].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// SortKey enumerates the collection sort fields.
type SortKey string

// SortOrder enumerates the collection sort directions.
type SortOrder string

const (
	SortByDate  SortKey = "date"
	SortByTitle SortKey = "title"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// CollectionConfig is the reserved `collection` frontmatter block. Its
// presence makes a page a collection page. ItemsPerPage of zero means the
// listing is unpaginated.
type CollectionConfig struct {
	SortBy         SortKey   `yaml:"sort_by"`
	SortOrder      SortOrder `yaml:"sort_order"`
	ItemsPerPage   int       `yaml:"items_per_page"`
	ItemLayout     string    `yaml:"item_layout"`
	ItemPageLayout string    `yaml:"item_page_layout"`
	ListingStyle   string    `yaml:"listing_style"`
}

// Collection decodes the reserved collection block, if present. The second
// return is false when the document declares no collection.
func (d *Doc) Collection() (CollectionConfig, bool) {
	raw, ok := d.Fields[KeyCollection]
	if !ok || raw == nil {
		return CollectionConfig{}, false
	}

	// Round-trip through YAML so both map[string]any (from Parse) and typed
	// maps (from tests) decode uniformly.
	buf, err := yaml.Marshal(raw)
	if err != nil {
		return CollectionConfig{}, false
	}
	var cfg CollectionConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return CollectionConfig{}, false
	}

	if cfg.SortBy == "" {
		cfg.SortBy = SortByDate
	}
	if cfg.SortOrder == "" {
		cfg.SortOrder = SortDesc
	}
	return cfg, true
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}

// NormalizeSortKey maps arbitrary user input onto a supported sort key.
func NormalizeSortKey(raw string) SortKey {
	if SortKey(strings.ToLower(strings.TrimSpace(raw))) == SortByTitle {
		return SortByTitle
	}
	return SortByDate
}
