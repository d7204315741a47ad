package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artcatalog/backend/internal/middleware"
	"github.com/artcatalog/backend/internal/models"
	"github.com/artcatalog/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ArtworkHandler struct {
	artworkService *services.ArtworkService
	maxUploadSize  int64
}

func NewArtworkHandler(artworkService *services.ArtworkService, maxUploadSize int64) *ArtworkHandler {
	return &ArtworkHandler{artworkService: artworkService, maxUploadSize: maxUploadSize}
}

type listArtworksQuery struct {
	Year             string `form:"year"`
	Grouping         string `form:"grouping"`
	IsHomePage       *bool  `form:"isHomePage"`
	Search           string `form:"search"`
	LegacySearch     string `form:"s"`
	IncludeGroupings bool   `form:"includeGroupings"`
}

type artworkRequest struct {
	Title       *string  `form:"title" json:"title"`
	Year        *string  `form:"year" json:"year"`
	Media       *string  `form:"media" json:"media"`
	Price       *string  `form:"price" json:"price"`
	Height      *float64 `form:"height" json:"height"`
	Width       *float64 `form:"width" json:"width"`
	Grouping    []string `form:"-" json:"grouping"`
	IsHomePage  *bool    `form:"isHomePage" json:"isHomePage"`
	Arrangement *int     `form:"arrangement" json:"arrangement" binding:"omitempty,min=0"`

	BuyerID     *string `form:"buyerID" json:"buyerID"`
	BuyerName   *string `form:"buyerName" json:"buyerName"`
	BuyerEmail  *string `form:"buyerEmail" json:"buyerEmail"`
	BuyerPhone  *string `form:"buyerPhone" json:"buyerPhone"`
	Location    *string `form:"location" json:"location"`
	SaleDate    *string `form:"saleDate" json:"saleDate"`
	SalePrice   *string `form:"salePrice" json:"salePrice"`
	SaleRevenue *string `form:"saleRevenue" json:"saleRevenue"`
	TaxStatus   *string `form:"taxStatus" json:"taxStatus"`
	IsNFS       *bool   `form:"isNFS" json:"isNFS"`
}

type likeRequest struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Amount    *int            `json:"amount"`
}

func (r *artworkRequest) input(groupings *[]string) services.ArtworkInput {
	return services.ArtworkInput{
		Title:       r.Title,
		Year:        r.Year,
		Media:       r.Media,
		Price:       r.Price,
		Height:      r.Height,
		Width:       r.Width,
		Groupings:   groupings,
		IsHomePage:  r.IsHomePage,
		Arrangement: r.Arrangement,
		BuyerID:     r.BuyerID,
		BuyerName:   r.BuyerName,
		BuyerEmail:  r.BuyerEmail,
		BuyerPhone:  r.BuyerPhone,
		Location:    r.Location,
		SaleDate:    r.SaleDate,
		SalePrice:   r.SalePrice,
		SaleRevenue: r.SaleRevenue,
		TaxStatus:   r.TaxStatus,
		IsNFS:       r.IsNFS,
	}
}

// splitGroupings accepts repeated values, comma separated lists and JSON arrays.
func splitGroupings(values []string) ([]string, error) {
	out := []string{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(v), &arr); err != nil {
				return nil, &services.ValidationError{Field: "grouping", Message: "malformed grouping list"}
			}
			for _, g := range arr {
				if g = strings.TrimSpace(g); g != "" {
					out = append(out, g)
				}
			}
			continue
		}
		for _, g := range strings.Split(v, ",") {
			if g = strings.TrimSpace(g); g != "" {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

// bindArtwork binds a JSON or multipart artwork request. The returned
// groupings pointer is nil when the request does not touch groupings.
func (h *ArtworkHandler) bindArtwork(c *gin.Context) (*artworkRequest, *[]string, error) {
	var req artworkRequest
	if err := c.ShouldBind(&req); err != nil {
		return nil, nil, &services.ValidationError{Message: err.Error()}
	}

	var raw []string
	present := false
	if c.ContentType() == gin.MIMEJSON {
		raw, present = req.Grouping, req.Grouping != nil
	} else {
		raw, present = c.GetPostFormArray("grouping")
		if !present {
			raw, present = c.GetPostFormArray("grouping[]")
		}
	}
	if !present {
		return &req, nil, nil
	}
	groupings, err := splitGroupings(raw)
	if err != nil {
		return nil, nil, err
	}
	return &req, &groupings, nil
}

func parseArtworkID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("artwork %s not found", c.Param("id")), "message": "artwork not found"})
		return uuid.Nil, false
	}
	return id, true
}

// parseLikeTimestamp accepts an RFC3339 / YYYY-MM-DD string or epoch milliseconds.
func parseLikeTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		return services.ParseDate(s, false)
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp")
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// List handles GET /api/artworks
func (h *ArtworkHandler) List(c *gin.Context) {
	var q listArtworksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "message": err.Error()})
		return
	}
	if q.Search == "" {
		q.Search = q.LegacySearch
	}

	artworks, err := h.artworkService.List(c.Request.Context(), services.ArtworkFilter{
		Year:             strings.TrimSpace(q.Year),
		Grouping:         models.Grouping(strings.TrimSpace(q.Grouping)),
		IsHomePage:       q.IsHomePage,
		Search:           q.Search,
		IncludeGroupings: q.IncludeGroupings,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.NewArtworkViews(artworks, middleware.IsAuthenticated(c)))
}

// ListSold handles GET /api/artworks/sold
func (h *ArtworkHandler) ListSold(c *gin.Context) {
	artworks, err := h.artworkService.ListSold(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewArtworkViews(artworks, middleware.IsAuthenticated(c)))
}

// MetaData handles GET /api/artworks/meta-data
func (h *ArtworkHandler) MetaData(c *gin.Context) {
	summary, err := h.artworkService.MetaData(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Create handles POST /api/artworks
func (h *ArtworkHandler) Create(c *gin.Context) {
	file, err := readUpload(c, h.maxUploadSize)
	if err != nil {
		respondError(c, err)
		return
	}
	if file == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file: an image file is required", "message": "bad request: no file present"})
		return
	}

	req, groupings, err := h.bindArtwork(c)
	if err != nil {
		respondError(c, err)
		return
	}

	artwork, err := h.artworkService.Create(c.Request.Context(), req.input(groupings), file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "inserted successfully",
		"_id":     artwork.ID,
		"artwork": services.NewArtworkView(*artwork, true),
	})
}

// Update handles PUT /api/artworks/:id
func (h *ArtworkHandler) Update(c *gin.Context) {
	id, ok := parseArtworkID(c)
	if !ok {
		return
	}

	file, err := readUpload(c, h.maxUploadSize)
	if err != nil {
		respondError(c, err)
		return
	}

	req, groupings, err := h.bindArtwork(c)
	if err != nil {
		respondError(c, err)
		return
	}

	artwork, err := h.artworkService.Update(c.Request.Context(), id, req.input(groupings), file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("updated %s successfully", artwork.Title),
		"_id":     artwork.ID,
		"artwork": services.NewArtworkView(*artwork, true),
	})
}

// Like handles PUT /api/artworks/:id/likes
func (h *ArtworkHandler) Like(c *gin.Context) {
	id, ok := parseArtworkID(c)
	if !ok {
		return
	}

	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing timestamp or amount", "message": err.Error()})
		return
	}
	timestamp, err := parseLikeTimestamp(req.Timestamp)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timestamp", "message": "timestamp must be a date or epoch milliseconds"})
		return
	}
	if timestamp.IsZero() || req.Amount == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing timestamp or amount", "message": "Missing timestamp or amount (amount must be a positive number)"})
		return
	}

	artwork, err := h.artworkService.Like(c.Request.Context(), id, timestamp, *req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	view := services.NewArtworkView(*artwork, middleware.IsAuthenticated(c))
	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("updated %s successfully", artwork.Title),
		"_id":        artwork.ID,
		"likes":      artwork.Likes,
		"totalLikes": view.TotalLikes,
		"artwork":    view,
	})
}

// Delete handles DELETE /api/artworks/:id
func (h *ArtworkHandler) Delete(c *gin.Context) {
	id, ok := parseArtworkID(c)
	if !ok {
		return
	}

	artwork, err := h.artworkService.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted successfully", "_id": artwork.ID})
}
