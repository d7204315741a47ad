package services

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"
)

// ObjectStore stores public objects by key.
type ObjectStore interface {
	// Put stores body under key and returns its public URL.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyForURL maps a public URL produced by Put back to its key.
	KeyForURL(publicURL string) (string, bool)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// keyFromURL strips base from publicURL and returns a clean relative key.
func keyFromURL(base, publicURL string) (string, bool) {
	rest, ok := strings.CutPrefix(publicURL, base+"/")
	if !ok || rest == "" {
		return "", false
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	clean := path.Clean(key)
	if clean != key || strings.HasPrefix(clean, "../") || clean == ".." || strings.HasPrefix(clean, "/") {
		return "", false
	}
	return key, true
}
