package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/artcatalog/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// setupPGStore connects to TEST_DATABASE_URL and migrates a table private to this test.
func setupPGStore(t *testing.T) *GormArtworkStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	prefix := fmt.Sprintf("t%s_", uuid.New().String()[:8])
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{TablePrefix: prefix},
	})
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		_ = db.Migrator().DropTable(&models.Artwork{})
	})
	return NewGormArtworkStore(db)
}

func TestGormArtworkStore_ReorderAndFilters(t *testing.T) {
	store := setupPGStore(t)
	ctx := context.Background()
	images := new(mockImageProcessor)
	svc := NewArtworkService(store, images)

	images.On("Process", mock.Anything, mock.Anything, mock.Anything).Return(testImages, nil)

	create := func(title, year string, groupings ...string) *models.Artwork {
		a, err := svc.Create(ctx, ArtworkInput{Title: strPtr(title), Year: strPtr(year), Groupings: &groupings}, &Upload{Data: []byte("img")})
		require.NoError(t, err)
		return a
	}
	a1 := create("One", "2020")
	a2 := create("Two", "2020")
	a3 := create("Three", "2020")
	grouped := create("Wallaby 100%", "2020", "wallabies")

	assert.Equal(t, []int{1, 2, 3, 4}, []int{a1.Arrangement, a2.Arrangement, a3.Arrangement, grouped.Arrangement})

	_, err := svc.Update(ctx, a1.ID, ArtworkInput{Arrangement: intPtr(3)}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, arrangementOf(t, store, a1))
	assert.Equal(t, 1, arrangementOf(t, store, a2))
	assert.Equal(t, 2, arrangementOf(t, store, a3))

	plain, err := store.List(ctx, ArtworkFilter{Year: "2020"})
	require.NoError(t, err)
	require.Len(t, plain, 3)
	assert.Equal(t, a2.ID, plain[0].ID)

	byGroup, err := store.List(ctx, ArtworkFilter{Grouping: models.GroupingWallabies})
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, grouped.ID, byGroup[0].ID)

	// wildcards in the search term match literally
	search, err := store.List(ctx, ArtworkFilter{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, grouped.ID, search[0].ID)

	summary, err := store.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wallabies"}, summary.Groupings)
	assert.Equal(t, []string{"2020"}, summary.Years)
}

func TestGormArtworkStore_LikesAndDelete(t *testing.T) {
	store := setupPGStore(t)
	ctx := context.Background()

	work := &models.Artwork{Title: "Tide", Year: "2019", Groupings: datatypes.JSONSlice[models.Grouping]{}}
	require.NoError(t, store.Transaction(ctx, func(tx ArtworkTx) error { return tx.Create(work) }))

	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err := store.AppendLike(ctx, work.ID, models.Like{Timestamp: now, Amount: 3})
	require.NoError(t, err)
	liked, err := store.AppendLike(ctx, work.ID, models.Like{Timestamp: now, Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, 8, liked.TotalLikes())

	_, err = store.AppendLike(ctx, uuid.New(), models.Like{Timestamp: now, Amount: 1})
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	deleted, err := store.Delete(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tide", deleted.Title)

	_, err = store.Delete(ctx, work.ID)
	assert.ErrorAs(t, err, &notFound)
}

func TestGormArtworkStore_ListSold(t *testing.T) {
	store := setupPGStore(t)
	ctx := context.Background()

	sold := time.Date(2023, 3, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Transaction(ctx, func(tx ArtworkTx) error {
		if err := tx.Create(&models.Artwork{Title: "sold", Year: "2023", SaleDate: &sold}); err != nil {
			return err
		}
		return tx.Create(&models.Artwork{Title: "kept", Year: "2023"})
	}))

	from := sold.Add(-time.Hour)
	got, err := store.ListSold(ctx, &from, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sold", got[0].Title)
}
