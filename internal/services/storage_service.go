package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/artcatalog/backend/internal/config"
)

// StorageService is the local disk ObjectStore. Files are served by the API
// under /assets.
type StorageService struct {
	cfg *config.Config
}

func NewStorageService(cfg *config.Config) *StorageService {
	// ensure local path exists
	if err := os.MkdirAll(cfg.LocalAssetsPath, 0o755); err != nil {
		log.Printf("WARN: cannot create assets directory %s: %v", cfg.LocalAssetsPath, err)
	}
	return &StorageService{cfg: cfg}
}

func (s *StorageService) absPath(key string) string {
	return filepath.Join(s.cfg.LocalAssetsPath, filepath.FromSlash(key))
}

// SaveStream saves an incoming stream to local storage and returns absolute path, size and checksum
func (s *StorageService) SaveStream(ctx context.Context, key string, r io.Reader) (string, int64, string, error) {
	absPath := s.absPath(key)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", 0, "", err
	}

	tmp := absPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, "", err
	}

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	return absPath, n, checksum, nil
}

func (s *StorageService) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, size, checksum, err := s.SaveStream(ctx, key, body)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	log.Printf("Stored %s (%d bytes, sha256 %s)", key, size, checksum[:12])
	return s.URL(key), nil
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.absPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// URL returns the API served location of key.
func (s *StorageService) URL(key string) string {
	return s.baseURL() + "/" + escapeKey(key)
}

func (s *StorageService) KeyForURL(publicURL string) (string, bool) {
	return keyFromURL(s.baseURL(), publicURL)
}

func (s *StorageService) baseURL() string {
	return strings.TrimRight(s.cfg.APIUrl, "/") + "/assets"
}
