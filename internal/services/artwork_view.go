package services

import (
	"github.com/artcatalog/backend/internal/models"
	"gorm.io/datatypes"
)

// ArtworkView is the response shape of an artwork: the record plus its
// derived like total.
type ArtworkView struct {
	models.Artwork
	TotalLikes int `json:"totalLikes"`
}

// NewArtworkView shapes a for a caller. Anonymous callers get the public view.
func NewArtworkView(a models.Artwork, authenticated bool) ArtworkView {
	if !authenticated {
		a = publicArtwork(a)
	}
	return ArtworkView{Artwork: a, TotalLikes: a.TotalLikes()}
}

// NewArtworkViews shapes a list; the result is never nil.
func NewArtworkViews(artworks []models.Artwork, authenticated bool) []ArtworkView {
	views := make([]ArtworkView, 0, len(artworks))
	for _, a := range artworks {
		views = append(views, NewArtworkView(a, authenticated))
	}
	return views
}

// publicArtwork strips buyer identity, location and sale metadata and
// collapses the image set to one display image.
func publicArtwork(a models.Artwork) models.Artwork {
	a.BuyerID = ""
	a.BuyerName = ""
	a.BuyerEmail = ""
	a.BuyerPhone = ""
	a.Location = ""
	a.SaleDate = nil
	a.SalePrice = ""
	a.SaleRevenue = ""
	a.TaxStatus = ""
	a.Images = displayImage(&a)
	return a
}

// displayImage picks the second smallest resized image, or the largest one
// when only one exists. The original is returned only when it is the sole image.
func displayImage(a *models.Artwork) datatypes.JSONSlice[models.ArtworkImage] {
	var resized []models.ArtworkImage
	for _, img := range a.SortedImages() {
		if !img.IsOriginal() {
			resized = append(resized, img)
		}
	}

	switch {
	case len(resized) >= 2:
		return datatypes.JSONSlice[models.ArtworkImage]{resized[1]}
	case len(resized) == 1:
		return datatypes.JSONSlice[models.ArtworkImage]{resized[0]}
	case len(a.Images) > 0:
		return datatypes.JSONSlice[models.ArtworkImage]{a.Images[0]}
	default:
		return datatypes.JSONSlice[models.ArtworkImage]{}
	}
}
