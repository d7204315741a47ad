package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/artcatalog/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ImageProcessor turns an upload into a stored image set and removes image sets.
type ImageProcessor interface {
	Process(ctx context.Context, name string, data []byte) ([]models.ArtworkImage, error)
	Delete(ctx context.Context, images []models.ArtworkImage)
}

// Upload is an attached file read into memory.
type Upload struct {
	Filename string
	Data     []byte
}

// ArtworkInput carries the writable artwork fields. Nil fields are left
// untouched on update. SaleDate accepts RFC3339 or YYYY-MM-DD; an empty
// string clears it.
type ArtworkInput struct {
	Title       *string
	Year        *string
	Media       *string
	Price       *string
	Height      *float64
	Width       *float64
	Groupings   *[]string
	IsHomePage  *bool
	Arrangement *int

	BuyerID     *string
	BuyerName   *string
	BuyerEmail  *string
	BuyerPhone  *string
	Location    *string
	SaleDate    *string
	SalePrice   *string
	SaleRevenue *string
	TaxStatus   *string
	IsNFS       *bool
}

func (in *ArtworkInput) validate(creating bool) error {
	if creating {
		if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
			return invalid("title", "is required")
		}
		if in.Year == nil || strings.TrimSpace(*in.Year) == "" {
			return invalid("year", "is required")
		}
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if in.Year != nil && strings.TrimSpace(*in.Year) == "" {
		return invalid("year", "must not be empty")
	}
	if in.Height != nil && *in.Height < 0 {
		return invalid("height", "must not be negative")
	}
	if in.Width != nil && *in.Width < 0 {
		return invalid("width", "must not be negative")
	}
	if in.Arrangement != nil && *in.Arrangement < 0 {
		return invalid("arrangement", "must not be negative")
	}
	if in.Groupings != nil {
		for _, g := range *in.Groupings {
			if !models.Grouping(g).IsValid() {
				return invalid("grouping", "unknown grouping %q", g)
			}
		}
	}
	if in.SaleDate != nil && *in.SaleDate != "" {
		if _, err := ParseDate(*in.SaleDate, false); err != nil {
			return invalid("saleDate", "%v", err)
		}
	}
	return nil
}

// apply copies every set field except arrangement onto a.
func (in *ArtworkInput) apply(a *models.Artwork) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&a.Title, in.Title)
	setString(&a.Year, in.Year)
	setString(&a.Media, in.Media)
	setString(&a.Price, in.Price)
	setString(&a.BuyerID, in.BuyerID)
	setString(&a.BuyerName, in.BuyerName)
	setString(&a.BuyerEmail, in.BuyerEmail)
	setString(&a.BuyerPhone, in.BuyerPhone)
	setString(&a.Location, in.Location)
	setString(&a.SalePrice, in.SalePrice)
	setString(&a.SaleRevenue, in.SaleRevenue)
	setString(&a.TaxStatus, in.TaxStatus)

	if in.Height != nil {
		a.Height = *in.Height
	}
	if in.Width != nil {
		a.Width = *in.Width
	}
	if in.IsHomePage != nil {
		a.IsHomePage = *in.IsHomePage
	}
	if in.IsNFS != nil {
		a.IsNFS = *in.IsNFS
	}
	if in.Groupings != nil {
		groupings := datatypes.JSONSlice[models.Grouping]{}
		seen := map[string]bool{}
		for _, g := range *in.Groupings {
			if !seen[g] {
				seen[g] = true
				groupings = append(groupings, models.Grouping(g))
			}
		}
		a.Groupings = groupings
	}
	if in.SaleDate != nil {
		if *in.SaleDate == "" {
			a.SaleDate = nil
		} else if t, err := ParseDate(*in.SaleDate, false); err == nil {
			a.SaleDate = &t
		}
	}
}

// ParseDate accepts RFC3339 or a plain YYYY-MM-DD date (UTC). With endOfDay
// a plain date resolves to its last instant.
func ParseDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected RFC3339 or YYYY-MM-DD", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// reorderShift returns the range and direction other artworks of the year
// move by when one artwork goes from old to target. ok is false when
// nothing moves.
func reorderShift(old, target int) (from, to, delta int, ok bool) {
	switch {
	case target > old:
		return old + 1, target, -1, true
	case target < old:
		return target, old - 1, 1, true
	default:
		return 0, 0, 0, false
	}
}

type ArtworkService struct {
	store  ArtworkStore
	images ImageProcessor
}

func NewArtworkService(store ArtworkStore, images ImageProcessor) *ArtworkService {
	return &ArtworkService{store: store, images: images}
}

// List returns artworks matching filter, ordered by arrangement.
func (s *ArtworkService) List(ctx context.Context, filter ArtworkFilter) ([]models.Artwork, error) {
	if filter.Grouping != "" && !filter.Grouping.IsValid() {
		return nil, invalid("grouping", "unknown grouping %q", filter.Grouping)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.store.List(ctx, filter)
}

// ListSold returns artworks sold within [start, end]. Both bounds are optional.
func (s *ArtworkService) ListSold(ctx context.Context, start, end string) ([]models.Artwork, error) {
	var from, to *time.Time
	if start != "" {
		t, err := ParseDate(start, false)
		if err != nil {
			return nil, invalid("start", "%v", err)
		}
		from = &t
	}
	if end != "" {
		t, err := ParseDate(end, true)
		if err != nil {
			return nil, invalid("end", "%v", err)
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, invalid("end", "must not be before start")
	}
	return s.store.ListSold(ctx, from, to)
}

// MetaData returns the distinct groupings and years in use.
func (s *ArtworkService) MetaData(ctx context.Context) (*models.CatalogSummary, error) {
	return s.store.Summary(ctx)
}

// Create stores a new artwork. An image is mandatory.
func (s *ArtworkService) Create(ctx context.Context, input ArtworkInput, file *Upload) (*models.Artwork, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, invalid("file", "an image file is required")
	}
	if err := input.validate(true); err != nil {
		return nil, err
	}

	artwork := &models.Artwork{}
	input.apply(artwork)

	images, err := s.images.Process(ctx, artwork.Title, file.Data)
	if err != nil {
		return nil, err
	}
	artwork.Images = images

	err = s.store.Transaction(ctx, func(tx ArtworkTx) error {
		if err := tx.LockYear(artwork.Year); err != nil {
			return err
		}
		next, err := tx.NextArrangement(artwork.Year)
		if err != nil {
			return err
		}
		artwork.Arrangement = next
		if input.Arrangement != nil && *input.Arrangement > 0 && *input.Arrangement < next {
			if err := tx.ShiftArrangements(artwork.Year, *input.Arrangement, OpenEnd, 1, uuid.Nil); err != nil {
				return err
			}
			artwork.Arrangement = *input.Arrangement
		}
		return tx.Create(artwork)
	})
	if err != nil {
		s.images.Delete(context.WithoutCancel(ctx), images)
		return nil, fmt.Errorf("create artwork: %w", err)
	}

	log.Printf("Artwork created: %s (%s, year %s, arrangement %d)", artwork.ID, artwork.Title, artwork.Year, artwork.Arrangement)
	return artwork, nil
}

// Update applies a partial update. A new file replaces the whole image set;
// the previous images are removed once the update is committed.
func (s *ArtworkService) Update(ctx context.Context, id uuid.UUID, input ArtworkInput, file *Upload) (*models.Artwork, error) {
	if err := input.validate(false); err != nil {
		return nil, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var fresh []models.ArtworkImage
	if file != nil && len(file.Data) > 0 {
		name := current.Title
		if input.Title != nil {
			name = *input.Title
		}
		if fresh, err = s.images.Process(ctx, name, file.Data); err != nil {
			return nil, err
		}
	}

	var (
		updated  *models.Artwork
		replaced []models.ArtworkImage
	)
	err = s.store.Transaction(ctx, func(tx ArtworkTx) error {
		artwork, err := tx.GetForUpdate(id)
		if err != nil {
			return err
		}
		oldYear, oldArrangement := artwork.Year, artwork.Arrangement

		input.apply(artwork)
		if fresh != nil {
			replaced = artwork.Images
			artwork.Images = fresh
		}

		if err := s.rearrange(tx, artwork, oldYear, oldArrangement, input.Arrangement); err != nil {
			return err
		}
		if err := tx.Save(artwork); err != nil {
			return err
		}
		updated = artwork
		return nil
	})
	if err != nil {
		if fresh != nil {
			s.images.Delete(context.WithoutCancel(ctx), fresh)
		}
		return nil, fmt.Errorf("update artwork: %w", err)
	}

	if len(replaced) > 0 {
		s.images.Delete(context.WithoutCancel(ctx), replaced)
	}
	return updated, nil
}

// rearrange keeps the arrangement of a's year contiguous after a moves.
// oldYear and oldArrangement are a's stored position.
func (s *ArtworkService) rearrange(tx ArtworkTx, a *models.Artwork, oldYear string, oldArrangement int, requested *int) error {
	if a.Year == oldYear {
		if requested == nil || *requested == oldArrangement || *requested < 1 {
			a.Arrangement = oldArrangement
			return nil
		}
		if err := tx.LockYear(a.Year); err != nil {
			return err
		}
		target := *requested
		next, err := tx.NextArrangement(a.Year)
		if err != nil {
			return err
		}
		if highest := next - 1; highest > 0 && target > highest {
			target = highest
		}
		from, to, delta, ok := reorderShift(oldArrangement, target)
		if !ok {
			a.Arrangement = oldArrangement
			return nil
		}
		if err := tx.ShiftArrangements(a.Year, from, to, delta, a.ID); err != nil {
			return err
		}
		a.Arrangement = target
		return nil
	}

	years := []string{oldYear, a.Year}
	sort.Strings(years)
	for _, y := range years {
		if err := tx.LockYear(y); err != nil {
			return err
		}
	}

	if oldArrangement > 0 {
		if err := tx.ShiftArrangements(oldYear, oldArrangement+1, OpenEnd, -1, a.ID); err != nil {
			return err
		}
	}

	next, err := tx.NextArrangement(a.Year)
	if err != nil {
		return err
	}
	a.Arrangement = next
	if requested != nil && *requested > 0 && *requested < next {
		if err := tx.ShiftArrangements(a.Year, *requested, OpenEnd, 1, a.ID); err != nil {
			return err
		}
		a.Arrangement = *requested
	}
	return nil
}

// Like appends one like entry. Entries are never merged or deduplicated.
func (s *ArtworkService) Like(ctx context.Context, id uuid.UUID, timestamp time.Time, amount int) (*models.Artwork, error) {
	if timestamp.IsZero() {
		return nil, invalid("timestamp", "is required")
	}
	if amount <= 0 {
		return nil, invalid("amount", "must be a positive number")
	}
	return s.store.AppendLike(ctx, id, models.Like{Timestamp: timestamp.UTC(), Amount: amount})
}

// Delete removes an artwork and then, best effort, its images.
func (s *ArtworkService) Delete(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	artwork, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.images.Delete(context.WithoutCancel(ctx), artwork.Images)
	log.Printf("Artwork deleted: %s (%s)", artwork.ID, artwork.Title)
	return artwork, nil
}
