package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OriginalSize marks the untouched upload in an artwork's image set.
const OriginalSize = 0

// Grouping is a curated collection tag.
type Grouping string

const (
	GroupingNomophobia   Grouping = "nomophobia"
	GroupingDigitalEdits Grouping = "digital_edits"
	GroupingStorage      Grouping = "storage"
	GroupingMugDishGlass Grouping = "mug_dish_glass"
	GroupingMerica       Grouping = "merica"
	GroupingWallabies    Grouping = "wallabies"
)

var knownGroupings = map[Grouping]bool{
	GroupingNomophobia:   true,
	GroupingDigitalEdits: true,
	GroupingStorage:      true,
	GroupingMugDishGlass: true,
	GroupingMerica:       true,
	GroupingWallabies:    true,
}

// IsValid reports whether g belongs to the fixed grouping set.
func (g Grouping) IsValid() bool {
	return knownGroupings[g]
}

// ArtworkImage is one entry of the derived image set.
type ArtworkImage struct {
	Size int    `json:"size"`
	URL  string `json:"url"`
}

// IsOriginal reports whether the entry is the untouched upload.
func (i ArtworkImage) IsOriginal() bool {
	return i.Size == OriginalSize
}

// Like is a single append-only like entry.
type Like struct {
	Timestamp time.Time `json:"timestamp"`
	Amount    int       `json:"amount"`
}

// Artwork is a catalog entry. Arrangement orders artworks within one year.
type Artwork struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	Title string    `gorm:"size:255;not null" json:"title"`
	Year  string    `gorm:"size:32;not null;index:idx_artworks_year_arrangement,priority:1" json:"year"`
	Media string    `gorm:"size:255" json:"media"`
	Price string    `gorm:"size:64" json:"price"`

	Height float64 `gorm:"not null;default:0" json:"height"`
	Width  float64 `gorm:"not null;default:0" json:"width"`

	Images      datatypes.JSONSlice[ArtworkImage] `gorm:"type:jsonb" json:"images"`
	Groupings   datatypes.JSONSlice[Grouping]     `gorm:"type:jsonb" json:"grouping"`
	IsHomePage  bool                              `gorm:"not null;default:false;index" json:"isHomePage"`
	Arrangement int                               `gorm:"not null;default:0;index:idx_artworks_year_arrangement,priority:2" json:"arrangement"`

	// Sale metadata, withheld from anonymous callers
	BuyerID     string     `gorm:"size:128" json:"buyerID,omitempty"`
	BuyerName   string     `gorm:"size:255" json:"buyerName,omitempty"`
	BuyerEmail  string     `gorm:"size:255" json:"buyerEmail,omitempty"`
	BuyerPhone  string     `gorm:"size:64" json:"buyerPhone,omitempty"`
	Location    string     `gorm:"size:255" json:"location,omitempty"`
	SaleDate    *time.Time `gorm:"index" json:"saleDate,omitempty"`
	SalePrice   string     `gorm:"size:64" json:"salePrice,omitempty"`
	SaleRevenue string     `gorm:"size:64" json:"saleRevenue,omitempty"`
	TaxStatus   string     `gorm:"size:64" json:"taxStatus,omitempty"`
	IsNFS       bool       `gorm:"not null;default:false" json:"isNFS"`

	Likes datatypes.JSONSlice[Like] `gorm:"type:jsonb" json:"likes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates a UUID if not set
func (a *Artwork) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Images == nil {
		a.Images = datatypes.JSONSlice[ArtworkImage]{}
	}
	if a.Groupings == nil {
		a.Groupings = datatypes.JSONSlice[Grouping]{}
	}
	if a.Likes == nil {
		a.Likes = datatypes.JSONSlice[Like]{}
	}
	return nil
}

// TotalLikes sums the like amounts. It is never stored.
func (a *Artwork) TotalLikes() int {
	total := 0
	for _, l := range a.Likes {
		total += l.Amount
	}
	return total
}

// HasGrouping reports whether the artwork is tagged with g.
func (a *Artwork) HasGrouping(g Grouping) bool {
	for _, existing := range a.Groupings {
		if existing == g {
			return true
		}
	}
	return false
}

// SortedImages returns the image set ordered from the smallest variant to the
// original, which always sorts last.
func (a *Artwork) SortedImages() []ArtworkImage {
	out := make([]ArtworkImage, len(a.Images))
	copy(out, a.Images)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsOriginal() != out[j].IsOriginal() {
			return out[j].IsOriginal()
		}
		return out[i].Size < out[j].Size
	})
	return out
}

// Clone returns a deep copy so callers can mutate slices freely.
func (a *Artwork) Clone() *Artwork {
	c := *a
	c.Images = append(datatypes.JSONSlice[ArtworkImage]{}, a.Images...)
	c.Groupings = append(datatypes.JSONSlice[Grouping]{}, a.Groupings...)
	c.Likes = append(datatypes.JSONSlice[Like]{}, a.Likes...)
	if a.SaleDate != nil {
		d := *a.SaleDate
		c.SaleDate = &d
	}
	return &c
}

// CatalogSummary lists the distinct groupings and years in use.
type CatalogSummary struct {
	Groupings []string `json:"groupings"`
	Years     []string `json:"years"`
}
