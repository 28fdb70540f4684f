package site

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

// siteFile is the on-disk site.yaml document: the manifest plus the nested
// structure tree.
type siteFile struct {
	Manifest  `yaml:",inline"`
	Structure []structure.NestedNode `yaml:"structure"`
}

// LoadFromDir reads a site directory (site.yaml + content/**/*.md) into a
// normalized Model. The directory name becomes the site ID unless the
// manifest is later stored under another one.
func LoadFromDir(dir string) (*Model, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "site.yaml"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read site.yaml").
			WithContext("dir", dir)
	}

	var sf siteFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse site.yaml").
			WithContext("dir", dir)
	}

	tree, err := structure.FromNested(sf.Structure)
	if err != nil {
		return nil, err
	}

	files := map[string]*ContentFile{}
	contentDir := filepath.Join(dir, ContentRoot)
	walkErr := filepath.WalkDir(contentDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p) // #nosec G304 -- paths come from the walked site dir
		if err != nil {
			return err
		}
		cf, err := NewContentFile(filepath.ToSlash(rel), data)
		if err != nil {
			return err
		}
		files[cf.Path] = cf
		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		return nil, errors.WrapError(walkErr, errors.CategoryFileSystem, "failed to read content files").
			WithContext("dir", contentDir)
	}

	m := &Model{
		ID:       filepath.Base(dir),
		Manifest: sf.Manifest,
		Tree:     tree,
		Files:    files,
	}
	if err := m.Normalize(); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveStructure writes the model's manifest and structure tree back to the
// directory's site.yaml. Content files are not touched.
func SaveStructure(dir string, m *Model) error {
	sf := siteFile{Manifest: m.Manifest, Structure: m.Tree.ToNested()}
	out, err := yaml.Marshal(&sf)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to encode site.yaml")
	}
	if err := os.WriteFile(filepath.Join(dir, "site.yaml"), out, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write site.yaml").
			WithContext("dir", dir)
	}
	return nil
}
