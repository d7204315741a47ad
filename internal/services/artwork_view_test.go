package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/artcatalog/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func soldArtwork() models.Artwork {
	sold := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	return models.Artwork{
		Title:       "Storage Unit 4",
		Year:        "2022",
		Price:       "$1200",
		Images:      datatypes.JSONSlice[models.ArtworkImage](testImages),
		BuyerID:     "b-17",
		BuyerName:   "A. Collector",
		BuyerEmail:  "collector@example.com",
		BuyerPhone:  "555-0100",
		Location:    "Melbourne",
		SaleDate:    &sold,
		SalePrice:   "$1100",
		SaleRevenue: "$900",
		TaxStatus:   "paid",
		IsNFS:       true,
		Likes:       datatypes.JSONSlice[models.Like]{{Timestamp: sold, Amount: 3}, {Timestamp: sold, Amount: 5}},
	}
}

func TestNewArtworkView_Anonymous(t *testing.T) {
	view := NewArtworkView(soldArtwork(), false)

	b, err := json.Marshal(view)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &fields))

	for _, hidden := range []string{"buyerID", "buyerName", "buyerEmail", "buyerPhone", "location", "saleDate", "salePrice", "saleRevenue", "taxStatus"} {
		assert.NotContains(t, fields, hidden)
	}
	assert.Equal(t, "$1200", fields["price"])
	assert.Equal(t, true, fields["isNFS"])
	assert.Equal(t, float64(8), fields["totalLikes"])

	images := fields["images"].([]interface{})
	require.Len(t, images, 1)
	assert.Equal(t, float64(800), images[0].(map[string]interface{})["size"])
}

func TestNewArtworkView_Authenticated(t *testing.T) {
	a := soldArtwork()
	view := NewArtworkView(a, true)

	assert.Equal(t, "A. Collector", view.BuyerName)
	assert.Equal(t, "Melbourne", view.Location)
	assert.NotNil(t, view.SaleDate)
	assert.Len(t, view.Images, 3)
	assert.Equal(t, 8, view.TotalLikes)
}

func TestNewArtworkView_DoesNotMutateSource(t *testing.T) {
	a := soldArtwork()
	_ = NewArtworkView(a, false)

	assert.Equal(t, "A. Collector", a.BuyerName)
	assert.Len(t, a.Images, 3)
}

func TestDisplayImage(t *testing.T) {
	original := models.ArtworkImage{Size: models.OriginalSize, URL: "o"}
	small := models.ArtworkImage{Size: 300, URL: "s"}

	tests := []struct {
		name   string
		images []models.ArtworkImage
		want   []models.ArtworkImage
	}{
		{"none", nil, []models.ArtworkImage{}},
		{"original only", []models.ArtworkImage{original}, []models.ArtworkImage{original}},
		{"original hidden behind single resize", []models.ArtworkImage{original, small}, []models.ArtworkImage{small}},
		{"second smallest", testImages, []models.ArtworkImage{testImages[1]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := models.Artwork{Images: tt.images}
			assert.Equal(t, tt.want, []models.ArtworkImage(displayImage(&a)))
		})
	}
}

func TestNewArtworkView_AnonymousNeverSeesOriginal(t *testing.T) {
	store := newFakeObjectStore()
	svc := newTestImageService(store)

	// 500px wide: only the 300 variant is produced next to the original
	images, err := svc.Process(context.Background(), "Mid", testPNG(t, 500, 400))
	require.NoError(t, err)
	require.Len(t, images, 2)

	view := NewArtworkView(models.Artwork{Images: images}, false)
	require.Len(t, view.Images, 1)
	assert.Equal(t, 300, view.Images[0].Size)
	assert.False(t, strings.Contains(view.Images[0].URL, "original"))
}

func TestNewArtworkViews_NeverNil(t *testing.T) {
	views := NewArtworkViews(nil, false)
	require.NotNil(t, views)

	b, err := json.Marshal(views)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}
