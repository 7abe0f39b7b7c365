package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/mediashelf/mediashelf/internal/media"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory implementation of both MediaRepository and
// RevisionRepository, used when MongoDB is not configured and in unit tests.
// Stored values are copied on the way in and out.
type MemoryRepo struct {
	mu        sync.RWMutex
	masters   map[string]*media.Document
	revisions map[string]*media.Revision
	// byMaster keeps revision ids per master in insertion order.
	byMaster map[string][]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		masters:   make(map[string]*media.Document),
		revisions: make(map[string]*media.Revision),
		byMaster:  make(map[string][]string),
	}
}

var (
	_ MediaRepository    = (*MemoryRepo)(nil)
	_ RevisionRepository = (*MemoryRepo)(nil)
)

func (m *MemoryRepo) ListMasters(_ context.Context, publicOnly bool) ([]*media.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*media.Document, 0, len(m.masters))
	for _, d := range m.masters {
		if publicOnly && !d.IsPublic {
			continue
		}
		out = append(out, d.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryRepo) GetMaster(_ context.Context, id string) (*media.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.masters[id]
	if !ok || d.Kind != media.KindMaster {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (m *MemoryRepo) CreateMaster(_ context.Context, d *media.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = primitive.NewObjectID().Hex()
	}
	d.Kind = media.KindMaster
	d.Version = 1
	m.masters[d.ID] = d.Clone()
	return d.ID, nil
}

func (m *MemoryRepo) UpdateMaster(_ context.Context, d *media.Document, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.masters[d.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expectedVersion {
		return ErrConflict
	}
	next := d.Clone()
	next.Kind = media.KindMaster
	next.AuthorID = cur.AuthorID
	next.Date = cur.Date
	next.Version = expectedVersion + 1
	m.masters[d.ID] = next
	d.Version = next.Version
	return nil
}

func (m *MemoryRepo) DeleteMaster(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.masters[id]; !ok {
		return ErrNotFound
	}
	delete(m.masters, id)
	return nil
}

func (m *MemoryRepo) ListRevisions(_ context.Context, masterID string) ([]*media.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.byMaster[masterID]
	out := make([]*media.Revision, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.revisions[id].Clone())
	}
	return out, nil
}

func (m *MemoryRepo) GetRevision(_ context.Context, id string) (*media.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.revisions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *MemoryRepo) CreateRevision(_ context.Context, r *media.Revision) (string, error) {
	if r.ForMediaDocument == "" {
		return "", ErrMissingMaster
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = primitive.NewObjectID().Hex()
	}
	m.revisions[r.ID] = r.Clone()
	m.byMaster[r.ForMediaDocument] = append(m.byMaster[r.ForMediaDocument], r.ID)
	return r.ID, nil
}

func (m *MemoryRepo) DeleteRevisions(_ context.Context, masterID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.byMaster[masterID]
	for _, id := range ids {
		delete(m.revisions, id)
	}
	delete(m.byMaster, masterID)
	return int64(len(ids)), nil
}

func (m *MemoryRepo) RevisionMasterIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.byMaster))
	for id := range m.byMaster {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// sortNewestFirst orders masters by creation date, newest first, with the id
// as a tie-breaker so listings are stable.
func sortNewestFirst(docs []*media.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].Date.Equal(docs[j].Date) {
			return docs[i].Date.After(docs[j].Date)
		}
		return docs[i].ID > docs[j].ID
	})
}
