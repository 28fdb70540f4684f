// Package site defines the in-memory site model: the manifest, the content
// file collection, and the structure tree, plus normalization of the
// exactly-one-homepage invariant.
package site

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

// ContentRoot is the directory prefix all content file paths carry.
const ContentRoot = "content"

// Manifest holds the site-wide settings consumed by the render pipeline.
type Manifest struct {
	Title        string         `yaml:"title" json:"title"`
	Description  string         `yaml:"description,omitempty" json:"description,omitempty"`
	Theme        string         `yaml:"theme" json:"theme"`
	ThemeConfig  map[string]any `yaml:"theme_config,omitempty" json:"theme_config,omitempty"`
	RootPath     string         `yaml:"root_path,omitempty" json:"root_path,omitempty"`
	ImageService string         `yaml:"image_service,omitempty" json:"image_service,omitempty"`
}

// ContentFile is a parsed content unit. Files are owned by the model's
// collection and always looked up by path; slugs are not unique across
// nested subtrees.
type ContentFile struct {
	Path string
	Slug string
	Doc  *frontmatter.Doc
	Raw  []byte
}

// NewContentFile parses raw Markdown into a ContentFile.
func NewContentFile(filePath string, raw []byte) (*ContentFile, error) {
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse content file").
			WithContext("path", filePath)
	}
	return &ContentFile{
		Path: filePath,
		Slug: Slug(filePath),
		Doc:  doc,
		Raw:  raw,
	}, nil
}

// Slug derives the slug from a content path: content/blog/post-1.md -> post-1.
func Slug(contentPath string) string {
	base := path.Base(contentPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Segment derives the URL segment from a content path:
// content/blog/post-1.md -> blog/post-1.
func Segment(contentPath string) string {
	s := strings.TrimPrefix(contentPath, ContentRoot+"/")
	return strings.TrimSuffix(s, path.Ext(s))
}

// ContentPath maps a requested URL path onto its content file path:
// blog/post-1 -> content/blog/post-1.md.
func ContentPath(urlPath string) string {
	return ContentRoot + "/" + strings.Trim(urlPath, "/") + ".md"
}

// Model is the in-memory site. Trees are replaced wholesale on mutation, so
// a held Model snapshot never observes a partially-updated structure.
type Model struct {
	ID       string
	Manifest Manifest
	Tree     *structure.Tree
	Files    map[string]*ContentFile
}

// File looks up a content file by path.
func (m *Model) File(path string) (*ContentFile, bool) {
	f, ok := m.Files[path]
	return f, ok
}

// WithTree returns a shallow copy of the model carrying a new tree.
func (m *Model) WithTree(tree *structure.Tree) *Model {
	out := *m
	out.Tree = tree
	return &out
}

// Normalize reconciles the two homepage conventions and enforces the
// exactly-one-homepage invariant: if a content file carries the homepage
// frontmatter flag, its node is promoted to index 0 of the root sequence;
// afterwards the tree's first root node is the single source of truth.
// Multiple flagged files are a validation error.
func (m *Model) Normalize() error {
	if m.Tree == nil {
		m.Tree = structure.New()
	}
	if m.Files == nil {
		m.Files = map[string]*ContentFile{}
	}

	flagged := ""
	for _, f := range m.Files {
		if f.Doc != nil && f.Doc.IsHomepage() {
			if flagged != "" {
				return errors.ValidationError("more than one content file carries the homepage flag").
					WithContext("first", flagged).
					WithContext("second", f.Path)
			}
			flagged = f.Path
		}
	}

	if flagged == "" {
		return nil
	}
	if _, ok := m.Tree.Find(flagged); !ok {
		return errors.ValidationError("homepage flag on a file without a structure node").
			WithContext("path", flagged)
	}
	if home, ok := m.Tree.Homepage(); ok && home.Path == flagged {
		return nil
	}

	nt, err := m.Tree.Move(flagged, "", 0)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "failed to promote homepage node")
	}
	m.Tree = nt
	return nil
}

// Homepage returns the content file of the designated homepage.
func (m *Model) Homepage() (*ContentFile, bool) {
	home, ok := m.Tree.Homepage()
	if !ok {
		return nil, false
	}
	f, ok := m.Files[home.Path]
	return f, ok
}
