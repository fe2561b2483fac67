// Package storage uploads student photos to S3 or the local filesystem.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Uploader stores data under key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageExtension returns the file extension for an accepted image type.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// NewObjectKey builds a collision-free key such as students/<id>/<uuid>.jpg.
func NewObjectKey(prefix, owner, ext string) string {
	return path.Join(prefix, owner, fmt.Sprintf("%s%s", uuid.NewString(), ext))
}
