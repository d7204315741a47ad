package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/artcatalog/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		upstreamErr   *services.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "message": validationErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error(), "message": notFoundErr.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "message": "invalid username or password"})
	case errors.As(err, &upstreamErr):
		log.Printf("Upstream failure: %v", upstreamErr)
		c.JSON(http.StatusBadRequest, gin.H{"error": upstreamErr.Error(), "message": upstreamErr.Err.Error()})
	default:
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "message": "unknown error"})
	}
}

// readUpload reads the optional multipart "file" field. It returns nil when
// no file is attached.
func readUpload(c *gin.Context, maxSize int64) (*services.Upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, &services.ValidationError{Field: "file", Message: err.Error()}
	}
	if fh.Size > maxSize {
		return nil, &services.ValidationError{Field: "file", Message: fmt.Sprintf("file exceeds %d bytes", maxSize)}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, &services.ValidationError{Field: "file", Message: fmt.Sprintf("file exceeds %d bytes", maxSize)}
	}
	return &services.Upload{Filename: fh.Filename, Data: data}, nil
}

// limitBody caps the request body of upload routes; form fields get 1MB on top of the file.
func limitBody(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+1<<20)
		c.Next()
	}
}
