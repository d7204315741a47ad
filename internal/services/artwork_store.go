package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/artcatalog/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OpenEnd leaves the upper bound of an arrangement shift unbounded.
const OpenEnd = math.MaxInt32

// ArtworkFilter combines list filters conjunctively. Zero values are ignored.
type ArtworkFilter struct {
	Year             string
	Grouping         models.Grouping
	IsHomePage       *bool
	Search           string
	IncludeGroupings bool
}

// ungroupedOnly is true for a plain year view: grouped artworks are hidden
// unless a grouping is requested or the caller opts in.
func (f ArtworkFilter) ungroupedOnly() bool {
	return f.Year != "" && f.Grouping == "" && !f.IncludeGroupings
}

// ArtworkStore persists artworks. Implementations must be safe for concurrent use.
type ArtworkStore interface {
	List(ctx context.Context, filter ArtworkFilter) ([]models.Artwork, error)
	ListSold(ctx context.Context, from, to *time.Time) ([]models.Artwork, error)
	Summary(ctx context.Context) (*models.CatalogSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
	AppendLike(ctx context.Context, id uuid.UUID, like models.Like) (*models.Artwork, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
	Transaction(ctx context.Context, fn func(tx ArtworkTx) error) error
}

// ArtworkTx is the write side used for arrangement maintenance. All calls
// share one transaction; returning an error from the Transaction callback
// rolls every change back.
type ArtworkTx interface {
	// LockYear serializes arrangement changes within a year.
	LockYear(year string) error
	GetForUpdate(id uuid.UUID) (*models.Artwork, error)
	NextArrangement(year string) (int, error)
	// ShiftArrangements adds delta to every artwork of year whose arrangement
	// lies in [from, to], skipping exclude.
	ShiftArrangements(year string, from, to, delta int, exclude uuid.UUID) error
	Create(artwork *models.Artwork) error
	Save(artwork *models.Artwork) error
}

func artworkNotFound(id uuid.UUID) error {
	return &NotFoundError{Resource: "artwork", ID: id.String()}
}

// GormArtworkStore is the Postgres backed ArtworkStore.
type GormArtworkStore struct {
	db *gorm.DB
}

func NewGormArtworkStore(db *gorm.DB) *GormArtworkStore {
	return &GormArtworkStore{db: db}
}

// escapeLike escapes LIKE wildcards so search terms match literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *GormArtworkStore) List(ctx context.Context, filter ArtworkFilter) ([]models.Artwork, error) {
	q := s.db.WithContext(ctx).Model(&models.Artwork{})

	if filter.Year != "" {
		q = q.Where("year = ?", filter.Year)
	}
	if filter.Grouping != "" {
		b, err := json.Marshal([]models.Grouping{filter.Grouping})
		if err != nil {
			return nil, err
		}
		q = q.Where("groupings @> ?::jsonb", string(b))
	}
	if filter.IsHomePage != nil {
		q = q.Where("is_home_page = ?", *filter.IsHomePage)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		q = q.Where("title ILIKE ? OR year ILIKE ? OR media ILIKE ?", pattern, pattern, pattern)
	}
	if filter.ungroupedOnly() {
		q = q.Where("(groupings IS NULL OR groupings = 'null'::jsonb OR groupings = '[]'::jsonb)")
	}

	var artworks []models.Artwork
	if err := q.Order("arrangement ASC, created_at ASC").Find(&artworks).Error; err != nil {
		return nil, fmt.Errorf("list artworks: %w", err)
	}
	return artworks, nil
}

func (s *GormArtworkStore) ListSold(ctx context.Context, from, to *time.Time) ([]models.Artwork, error) {
	q := s.db.WithContext(ctx).Model(&models.Artwork{}).Where("sale_date IS NOT NULL")
	if from != nil {
		q = q.Where("sale_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("sale_date <= ?", *to)
	}

	var artworks []models.Artwork
	if err := q.Order("sale_date ASC, created_at ASC").Find(&artworks).Error; err != nil {
		return nil, fmt.Errorf("list sold artworks: %w", err)
	}
	return artworks, nil
}

func (s *GormArtworkStore) Summary(ctx context.Context) (*models.CatalogSummary, error) {
	summary := &models.CatalogSummary{Groupings: []string{}, Years: []string{}}

	err := s.db.WithContext(ctx).Model(&models.Artwork{}).
		Where("jsonb_typeof(groupings) = 'array'").
		Distinct().
		Pluck("jsonb_array_elements_text(groupings)", &summary.Groupings).Error
	if err != nil {
		return nil, fmt.Errorf("distinct groupings: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Artwork{}).Distinct().Pluck("year", &summary.Years).Error; err != nil {
		return nil, fmt.Errorf("distinct years: %w", err)
	}

	sort.Strings(summary.Groupings)
	sort.Strings(summary.Years)
	return summary, nil
}

func (s *GormArtworkStore) Get(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	if err := s.db.WithContext(ctx).First(&artwork, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, artworkNotFound(id)
		}
		return nil, err
	}
	return &artwork, nil
}

// AppendLike appends in a single statement so concurrent likes never overwrite each other.
func (s *GormArtworkStore) AppendLike(ctx context.Context, id uuid.UUID, like models.Like) (*models.Artwork, error) {
	b, err := json.Marshal([]models.Like{like})
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Artwork{}).
		Where("id = ?", id).
		UpdateColumn("likes", gorm.Expr("COALESCE(NULLIF(likes, 'null'::jsonb), '[]'::jsonb) || ?::jsonb", string(b)))
	if res.Error != nil {
		return nil, fmt.Errorf("append like: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, artworkNotFound(id)
	}
	return s.Get(ctx, id)
}

func (s *GormArtworkStore) Delete(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	res := s.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Delete(&artwork)
	if res.Error != nil {
		return nil, fmt.Errorf("delete artwork: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, artworkNotFound(id)
	}
	return &artwork, nil
}

func (s *GormArtworkStore) Transaction(ctx context.Context, fn func(tx ArtworkTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormArtworkTx{db: tx})
	})
}

type gormArtworkTx struct {
	db *gorm.DB
}

func (t *gormArtworkTx) LockYear(year string) error {
	return t.db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "artworks:"+year).Error
}

func (t *gormArtworkTx) GetForUpdate(id uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&artwork, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, artworkNotFound(id)
		}
		return nil, err
	}
	return &artwork, nil
}

func (t *gormArtworkTx) NextArrangement(year string) (int, error) {
	var highest int
	err := t.db.Model(&models.Artwork{}).
		Where("year = ?", year).
		Select("COALESCE(MAX(arrangement), 0)").
		Scan(&highest).Error
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

func (t *gormArtworkTx) ShiftArrangements(year string, from, to, delta int, exclude uuid.UUID) error {
	q := t.db.Model(&models.Artwork{}).Where("year = ? AND arrangement >= ?", year, from)
	if to != OpenEnd {
		q = q.Where("arrangement <= ?", to)
	}
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	return q.UpdateColumn("arrangement", gorm.Expr("arrangement + ?", delta)).Error
}

func (t *gormArtworkTx) Create(artwork *models.Artwork) error {
	return t.db.Create(artwork).Error
}

func (t *gormArtworkTx) Save(artwork *models.Artwork) error {
	return t.db.Save(artwork).Error
}
