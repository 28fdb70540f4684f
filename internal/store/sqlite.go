package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/pagesmith/internal/reposition"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

// SQLiteStore implements SiteStore using SQLite. Loaded models are cached
// in memory; mutations write through and replace the cached model.
type SQLiteStore struct {
	db    *sql.DB
	mu    sync.RWMutex
	cache map[string]*site.Model
}

// NewSQLiteStore opens (or creates) a SQLite-backed site store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &SQLiteStore{db: db, cache: map[string]*site.Model{}}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		manifest TEXT NOT NULL,
		structure TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS content_files (
		site_id TEXT NOT NULL,
		path TEXT NOT NULL,
		raw BLOB NOT NULL,
		PRIMARY KEY (site_id, path)
	);
	CREATE INDEX IF NOT EXISTS idx_content_site ON content_files(site_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// ImportSite persists a model under a fresh id when it has none.
func (s *SQLiteStore) ImportSite(ctx context.Context, m *site.Model) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := s.SaveSite(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

// LoadSite reads a site from the database into the in-memory cache.
func (s *SQLiteStore) LoadSite(ctx context.Context, id string) error {
	row := s.db.QueryRowContext(ctx,
		"SELECT manifest, structure FROM sites WHERE id = ?", id)

	var manifestJSON, structureJSON string
	if err := row.Scan(&manifestJSON, &structureJSON); err != nil {
		if err == sql.ErrNoRows {
			return ErrSiteNotFound
		}
		return fmt.Errorf("query site: %w", err)
	}

	var manifest site.Manifest
	if err := json.Unmarshal([]byte(manifestJSON), &manifest); err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}
	var nested []structure.NestedNode
	if err := json.Unmarshal([]byte(structureJSON), &nested); err != nil {
		return fmt.Errorf("decode structure: %w", err)
	}
	tree, err := structure.FromNested(nested)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, raw FROM content_files WHERE site_id = ?", id)
	if err != nil {
		return fmt.Errorf("query content files: %w", err)
	}
	defer rows.Close()

	files := map[string]*site.ContentFile{}
	for rows.Next() {
		var path string
		var raw []byte
		if err := rows.Scan(&path, &raw); err != nil {
			return fmt.Errorf("scan content file: %w", err)
		}
		cf, err := site.NewContentFile(path, raw)
		if err != nil {
			return err
		}
		files[path] = cf
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate content files: %w", err)
	}

	m := &site.Model{ID: id, Manifest: manifest, Tree: tree, Files: files}
	if err := m.Normalize(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[id] = m
	s.mu.Unlock()
	return nil
}

// GetSiteByID returns the cached model; LoadSite must have run for the id.
func (s *SQLiteStore) GetSiteByID(_ context.Context, id string) (*site.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.cache[id]
	if !ok {
		return nil, ErrSiteNotLoaded
	}
	return m, nil
}

// SaveSite writes the model and all its content files in one transaction.
func (s *SQLiteStore) SaveSite(ctx context.Context, m *site.Model) error {
	manifestJSON, err := json.Marshal(m.Manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	structureJSON, err := json.Marshal(m.Tree.ToNested())
	if err != nil {
		return fmt.Errorf("encode structure: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO sites (id, manifest, structure, updated_at) VALUES (?, ?, ?, ?)",
		m.ID, string(manifestJSON), string(structureJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert site: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM content_files WHERE site_id = ?", m.ID); err != nil {
		return fmt.Errorf("clear content files: %w", err)
	}
	for path, cf := range m.Files {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO content_files (site_id, path, raw) VALUES (?, ?, ?)",
			m.ID, path, cf.Raw); err != nil {
			return fmt.Errorf("insert content file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.mu.Lock()
	s.cache[m.ID] = m
	s.mu.Unlock()
	return nil
}

func (s *SQLiteStore) RepositionNode(ctx context.Context, siteID, activePath, newParentPath string, index int) error {
	m, err := s.GetSiteByID(ctx, siteID)
	if err != nil {
		return err
	}
	return s.SaveSite(ctx, m.WithTree(reposition.ApplyMove(m.Tree, activePath, newParentPath, index)))
}

func (s *SQLiteStore) UpdateManifest(ctx context.Context, siteID string, manifest site.Manifest) error {
	m, err := s.GetSiteByID(ctx, siteID)
	if err != nil {
		return err
	}
	nm := *m
	nm.Manifest = manifest
	return s.SaveSite(ctx, &nm)
}

func (s *SQLiteStore) AddOrUpdateContentFile(ctx context.Context, siteID string, file *site.ContentFile, parentPath string) error {
	m, err := s.GetSiteByID(ctx, siteID)
	if err != nil {
		return err
	}

	nm := *m
	nm.Files = make(map[string]*site.ContentFile, len(m.Files)+1)
	for k, v := range m.Files {
		nm.Files[k] = v
	}
	nm.Files[file.Path] = file

	if _, exists := nm.Tree.Find(file.Path); !exists {
		node := structure.Node{Type: structure.TypePage, Path: file.Path, Title: file.Doc.Title()}
		if _, isCollection := file.Doc.Collection(); isCollection {
			node.Type = structure.TypeCollection
		}
		nt, err := nm.Tree.Insert(node, parentPath, -1)
		if err != nil {
			return err
		}
		nm.Tree = nt
	}
	return s.SaveSite(ctx, &nm)
}

func (s *SQLiteStore) DeleteContentFile(ctx context.Context, siteID, path string) error {
	m, err := s.GetSiteByID(ctx, siteID)
	if err != nil {
		return err
	}

	doomed := map[string]struct{}{path: {}}
	for p := range m.Tree.DescendantPaths(path) {
		doomed[p] = struct{}{}
	}

	nm := *m
	nm.Files = make(map[string]*site.ContentFile, len(m.Files))
	for k, v := range m.Files {
		if _, gone := doomed[k]; !gone {
			nm.Files[k] = v
		}
	}
	if _, exists := nm.Tree.Find(path); exists {
		nt, err := nm.Tree.Remove(path)
		if err != nil {
			return err
		}
		nm.Tree = nt
	}
	return s.SaveSite(ctx, &nm)
}
