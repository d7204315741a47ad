package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/artcatalog/backend/internal/config"
	"github.com/artcatalog/backend/internal/models"
	"github.com/artcatalog/backend/pkg/validation"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const imageUploadConcurrency = 4

var originalExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// ImageService derives resized JPEG variants from an upload and stores them
// next to the original.
type ImageService struct {
	store   ObjectStore
	sizes   []int
	quality int
}

func NewImageService(cfg *config.Config, store ObjectStore) *ImageService {
	return &ImageService{
		store:   store,
		sizes:   cfg.ImageSizes,
		quality: cfg.ImageJPEGQuality,
	}
}

// targetWidths returns the configured widths below the source width, ascending
// and without duplicates.
func (s *ImageService) targetWidths(sourceWidth int) []int {
	seen := map[int]bool{}
	widths := []int{}
	for _, w := range s.sizes {
		if w <= 0 || w >= sourceWidth || seen[w] {
			continue
		}
		seen[w] = true
		widths = append(widths, w)
	}
	sort.Ints(widths)
	return widths
}

// Process stores the original and its variants. The result is ordered from the
// smallest variant to the original. On failure nothing stays behind.
func (s *ImageService) Process(ctx context.Context, name string, data []byte) ([]models.ArtworkImage, error) {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalid("file", "unsupported content type %s", contentType)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalid("file", "cannot decode image: %v", err)
	}

	slug := validation.Slug(name)
	if slug == "" {
		slug = "artwork"
	}
	prefix := fmt.Sprintf("artworks/%s-%s", slug, uuid.New().String())

	ext, ok := originalExtensions[contentType]
	if !ok {
		ext = ".img"
	}

	widths := s.targetWidths(src.Bounds().Dx())
	images := make([]models.ArtworkImage, len(widths)+1)

	var (
		mu       sync.Mutex
		uploaded []string
	)
	put := func(gctx context.Context, key string, body []byte, ctype string) (string, error) {
		url, err := s.store.Put(gctx, key, bytes.NewReader(body), ctype)
		if err != nil {
			return "", err
		}
		mu.Lock()
		uploaded = append(uploaded, key)
		mu.Unlock()
		return url, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageUploadConcurrency)

	g.Go(func() error {
		url, err := put(gctx, prefix+"/original"+ext, data, contentType)
		if err != nil {
			return err
		}
		images[len(widths)] = models.ArtworkImage{Size: models.OriginalSize, URL: url}
		return nil
	})

	for i, w := range widths {
		g.Go(func() error {
			resized := imaging.Resize(src, w, 0, imaging.Lanczos)
			var buf bytes.Buffer
			if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(s.quality)); err != nil {
				return fmt.Errorf("encode %dpx: %w", w, err)
			}
			url, err := put(gctx, fmt.Sprintf("%s/%d.jpg", prefix, w), buf.Bytes(), "image/jpeg")
			if err != nil {
				return err
			}
			images[i] = models.ArtworkImage{Size: w, URL: url}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.deleteKeys(context.WithoutCancel(ctx), uploaded)
		return nil, &UpstreamError{Service: "image pipeline", Err: err}
	}
	return images, nil
}

// Delete removes the stored objects of images. Failures are logged only.
func (s *ImageService) Delete(ctx context.Context, images []models.ArtworkImage) {
	keys := make([]string, 0, len(images))
	for _, img := range images {
		key, ok := s.store.KeyForURL(img.URL)
		if !ok {
			log.Printf("WARN: image %s is not managed by this store, skipping delete", img.URL)
			continue
		}
		keys = append(keys, key)
	}
	s.deleteKeys(ctx, keys)
}

func (s *ImageService) deleteKeys(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Printf("WARN: failed to delete image object %s: %v", key, err)
		}
	}
}
