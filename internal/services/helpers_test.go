package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artcatalog/backend/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockImageProcessor struct {
	mock.Mock
}

func (m *mockImageProcessor) Process(ctx context.Context, name string, data []byte) ([]models.ArtworkImage, error) {
	args := m.Called(ctx, name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ArtworkImage), args.Error(1)
}

func (m *mockImageProcessor) Delete(ctx context.Context, images []models.ArtworkImage) {
	m.Called(ctx, images)
}

// fakeObjectStore keeps objects in memory and can fail puts whose key
// contains failOn.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deleted []string
	failOn  string
}

const fakeStoreBase = "https://cdn.test"

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if f.failOn != "" && strings.Contains(key, f.failOn) {
		return "", fmt.Errorf("bucket unavailable")
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	f.types[key] = contentType
	return fakeStoreBase + "/" + escapeKey(key), nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStore) KeyForURL(publicURL string) (string, bool) {
	return keyFromURL(fakeStoreBase, publicURL)
}

func (f *fakeObjectStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// newTestStore returns a memory store whose clock advances one second per call,
// so creation order is deterministic.
func newTestStore() *MemoryArtworkStore {
	store := NewMemoryArtworkStore()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return store
}

func seedArtwork(t *testing.T, store *MemoryArtworkStore, a *models.Artwork) *models.Artwork {
	t.Helper()
	require.NoError(t, store.Transaction(context.Background(), func(tx ArtworkTx) error {
		return tx.Create(a)
	}))
	return a
}

func arrangementOf(t *testing.T, store ArtworkStore, a *models.Artwork) int {
	t.Helper()
	got, err := store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	return got.Arrangement
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

var testImages = []models.ArtworkImage{
	{Size: 300, URL: fakeStoreBase + "/artworks/x/300.jpg"},
	{Size: 800, URL: fakeStoreBase + "/artworks/x/800.jpg"},
	{Size: models.OriginalSize, URL: fakeStoreBase + "/artworks/x/original.png"},
}
