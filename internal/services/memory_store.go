package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/artcatalog/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryArtworkStore keeps artworks in process memory. It backs STORE_DRIVER=memory
// and the tests; a single mutex serializes every call, transactions included.
type MemoryArtworkStore struct {
	mu       sync.Mutex
	artworks map[uuid.UUID]*models.Artwork
	now      func() time.Time
}

func NewMemoryArtworkStore() *MemoryArtworkStore {
	return &MemoryArtworkStore{
		artworks: make(map[uuid.UUID]*models.Artwork),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryArtworkStore) matches(a *models.Artwork, filter ArtworkFilter) bool {
	if filter.Year != "" && a.Year != filter.Year {
		return false
	}
	if filter.Grouping != "" && !a.HasGrouping(filter.Grouping) {
		return false
	}
	if filter.IsHomePage != nil && a.IsHomePage != *filter.IsHomePage {
		return false
	}
	if filter.Search != "" {
		term := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(a.Title), term) &&
			!strings.Contains(strings.ToLower(a.Year), term) &&
			!strings.Contains(strings.ToLower(a.Media), term) {
			return false
		}
	}
	if filter.ungroupedOnly() && len(a.Groupings) > 0 {
		return false
	}
	return true
}

func (s *MemoryArtworkStore) List(ctx context.Context, filter ArtworkFilter) ([]models.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Artwork{}
	for _, a := range s.artworks {
		if s.matches(a, filter) {
			out = append(out, *a.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Arrangement != out[j].Arrangement {
			return out[i].Arrangement < out[j].Arrangement
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryArtworkStore) ListSold(ctx context.Context, from, to *time.Time) ([]models.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Artwork{}
	for _, a := range s.artworks {
		if a.SaleDate == nil {
			continue
		}
		if from != nil && a.SaleDate.Before(*from) {
			continue
		}
		if to != nil && a.SaleDate.After(*to) {
			continue
		}
		out = append(out, *a.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SaleDate.Equal(*out[j].SaleDate) {
			return out[i].SaleDate.Before(*out[j].SaleDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryArtworkStore) Summary(ctx context.Context) (*models.CatalogSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groupings := map[string]bool{}
	years := map[string]bool{}
	for _, a := range s.artworks {
		years[a.Year] = true
		for _, g := range a.Groupings {
			groupings[string(g)] = true
		}
	}
	return &models.CatalogSummary{Groupings: sortedKeys(groupings), Years: sortedKeys(years)}, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *MemoryArtworkStore) Get(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artworks[id]
	if !ok {
		return nil, artworkNotFound(id)
	}
	return a.Clone(), nil
}

func (s *MemoryArtworkStore) AppendLike(ctx context.Context, id uuid.UUID, like models.Like) (*models.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artworks[id]
	if !ok {
		return nil, artworkNotFound(id)
	}
	a.Likes = append(a.Likes, like)
	return a.Clone(), nil
}

func (s *MemoryArtworkStore) Delete(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artworks[id]
	if !ok {
		return nil, artworkNotFound(id)
	}
	delete(s.artworks, id)
	return a, nil
}

// Transaction runs fn under the store lock and restores the previous state if fn fails.
func (s *MemoryArtworkStore) Transaction(ctx context.Context, fn func(tx ArtworkTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[uuid.UUID]*models.Artwork, len(s.artworks))
	for id, a := range s.artworks {
		snapshot[id] = a.Clone()
	}

	if err := fn(&memoryArtworkTx{store: s}); err != nil {
		s.artworks = snapshot
		return err
	}
	return nil
}

type memoryArtworkTx struct {
	store *MemoryArtworkStore
}

func (t *memoryArtworkTx) LockYear(year string) error {
	return nil
}

func (t *memoryArtworkTx) GetForUpdate(id uuid.UUID) (*models.Artwork, error) {
	a, ok := t.store.artworks[id]
	if !ok {
		return nil, artworkNotFound(id)
	}
	return a.Clone(), nil
}

func (t *memoryArtworkTx) NextArrangement(year string) (int, error) {
	highest := 0
	for _, a := range t.store.artworks {
		if a.Year == year && a.Arrangement > highest {
			highest = a.Arrangement
		}
	}
	return highest + 1, nil
}

func (t *memoryArtworkTx) ShiftArrangements(year string, from, to, delta int, exclude uuid.UUID) error {
	for id, a := range t.store.artworks {
		if id == exclude || a.Year != year {
			continue
		}
		if a.Arrangement >= from && a.Arrangement <= to {
			a.Arrangement += delta
		}
	}
	return nil
}

func (t *memoryArtworkTx) Create(artwork *models.Artwork) error {
	if err := artwork.BeforeCreate(nil); err != nil {
		return err
	}
	now := t.store.now()
	artwork.CreatedAt = now
	artwork.UpdatedAt = now
	t.store.artworks[artwork.ID] = artwork.Clone()
	return nil
}

func (t *memoryArtworkTx) Save(artwork *models.Artwork) error {
	if _, ok := t.store.artworks[artwork.ID]; !ok {
		return artworkNotFound(artwork.ID)
	}
	artwork.UpdatedAt = t.store.now()
	t.store.artworks[artwork.ID] = artwork.Clone()
	return nil
}
