package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestArtwork_TotalLikes(t *testing.T) {
	a := Artwork{}
	assert.Equal(t, 0, a.TotalLikes())

	now := time.Now()
	a.Likes = datatypes.JSONSlice[Like]{{Timestamp: now, Amount: 3}, {Timestamp: now, Amount: 5}}
	assert.Equal(t, 8, a.TotalLikes())
}

func TestArtwork_SortedImages(t *testing.T) {
	a := Artwork{Images: datatypes.JSONSlice[ArtworkImage]{
		{Size: OriginalSize, URL: "o"},
		{Size: 1600, URL: "l"},
		{Size: 300, URL: "s"},
		{Size: 800, URL: "m"},
	}}

	sorted := a.SortedImages()
	urls := make([]string, len(sorted))
	for i, img := range sorted {
		urls[i] = img.URL
	}
	assert.Equal(t, []string{"s", "m", "l", "o"}, urls)
	assert.Equal(t, "o", a.Images[0].URL, "source slice untouched")
}

func TestGrouping_IsValid(t *testing.T) {
	assert.True(t, GroupingWallabies.IsValid())
	assert.True(t, Grouping("digital_edits").IsValid())
	assert.False(t, Grouping("").IsValid())
	assert.False(t, Grouping("homepage").IsValid())
}

func TestArtwork_CloneIsDeep(t *testing.T) {
	sold := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	a := &Artwork{
		Title:     "Wallaby",
		Groupings: datatypes.JSONSlice[Grouping]{GroupingWallabies},
		SaleDate:  &sold,
	}

	c := a.Clone()
	c.Groupings[0] = GroupingMerica
	*c.SaleDate = sold.AddDate(1, 0, 0)

	assert.Equal(t, GroupingWallabies, a.Groupings[0])
	assert.Equal(t, sold, *a.SaleDate)
	assert.True(t, a.HasGrouping(GroupingWallabies))
	assert.False(t, a.HasGrouping(GroupingMerica))
}
