package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AssetService handles raw operator uploads that are not artwork images.
type AssetService struct {
	store ObjectStore
}

func NewAssetService(store ObjectStore) *AssetService {
	return &AssetService{store: store}
}

// BuildObjectKey creates a namespaced storage key
func (s *AssetService) BuildObjectKey(kind string, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\ ") {
		ext = ""
	}
	return fmt.Sprintf("%s/%s%s", kind, uuid.New().String(), ext)
}

// Upload stores one file under uploads/ and returns its public URL.
func (s *AssetService) Upload(ctx context.Context, file *Upload) (string, error) {
	if file == nil || len(file.Data) == 0 {
		return "", invalid("file", "no file uploaded")
	}
	key := s.BuildObjectKey("uploads", file.Filename)
	url, err := s.store.Put(ctx, key, bytes.NewReader(file.Data), http.DetectContentType(file.Data))
	if err != nil {
		return "", &UpstreamError{Service: "object storage", Err: err}
	}
	return url, nil
}
