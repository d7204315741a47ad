package handlers

import (
	"net/http"

	"github.com/artcatalog/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type StorageHandler struct {
	assetService  *services.AssetService
	maxUploadSize int64
}

func NewStorageHandler(assetService *services.AssetService, maxUploadSize int64) *StorageHandler {
	return &StorageHandler{assetService: assetService, maxUploadSize: maxUploadSize}
}

// Upload handles POST /api/storage/upload
func (h *StorageHandler) Upload(c *gin.Context) {
	file, err := readUpload(c, h.maxUploadSize)
	if err != nil {
		respondError(c, err)
		return
	}
	if file == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded.", "message": "No file uploaded."})
		return
	}

	publicURL, err := h.assetService.Upload(c.Request.Context(), file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"publicUrl": publicURL})
}
