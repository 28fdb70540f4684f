package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pagesmith/internal/reposition"
	"git.home.luguber.info/inful/pagesmith/internal/site"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

// MemoryStore keeps site models in memory. It backs tests and ad-hoc
// preview sessions that never touch disk.
type MemoryStore struct {
	mu    sync.RWMutex
	sites map[string]*site.Model
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sites: map[string]*site.Model{}}
}

// LoadSite is a no-op for already-present models and an error otherwise;
// memory has no backing layer to load from.
func (s *MemoryStore) LoadSite(_ context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sites[id]; !ok {
		return ErrSiteNotFound
	}
	return nil
}

// ImportSite stores a model under a fresh id when it has none.
func (s *MemoryStore) ImportSite(ctx context.Context, m *site.Model) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := s.SaveSite(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (s *MemoryStore) GetSiteByID(_ context.Context, id string) (*site.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.sites[id]
	if !ok {
		return nil, ErrSiteNotLoaded
	}
	return m, nil
}

func (s *MemoryStore) SaveSite(_ context.Context, m *site.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites[m.ID] = m
	return nil
}

func (s *MemoryStore) RepositionNode(ctx context.Context, siteID, activePath, newParentPath string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sites[siteID]
	if !ok {
		return ErrSiteNotLoaded
	}
	s.sites[siteID] = m.WithTree(reposition.ApplyMove(m.Tree, activePath, newParentPath, index))
	return nil
}

func (s *MemoryStore) UpdateManifest(_ context.Context, siteID string, manifest site.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sites[siteID]
	if !ok {
		return ErrSiteNotLoaded
	}
	nm := *m
	nm.Manifest = manifest
	s.sites[siteID] = &nm
	return nil
}

func (s *MemoryStore) AddOrUpdateContentFile(_ context.Context, siteID string, file *site.ContentFile, parentPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sites[siteID]
	if !ok {
		return ErrSiteNotLoaded
	}

	nm := *m
	nm.Files = make(map[string]*site.ContentFile, len(m.Files)+1)
	for k, v := range m.Files {
		nm.Files[k] = v
	}
	nm.Files[file.Path] = file

	if _, exists := nm.Tree.Find(file.Path); !exists {
		node := structure.Node{
			Type:  structure.TypePage,
			Path:  file.Path,
			Title: file.Doc.Title(),
		}
		if _, isCollection := file.Doc.Collection(); isCollection {
			node.Type = structure.TypeCollection
		}
		nt, err := nm.Tree.Insert(node, parentPath, -1)
		if err != nil {
			return err
		}
		nm.Tree = nt
	}

	s.sites[siteID] = &nm
	return nil
}

func (s *MemoryStore) DeleteContentFile(_ context.Context, siteID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sites[siteID]
	if !ok {
		return ErrSiteNotLoaded
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

	s.sites[siteID] = &nm
	return nil
}
