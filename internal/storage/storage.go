// Package storage keeps uploaded media either on local disk or in an S3
// compatible bucket. Files are addressed by slash separated keys such as
// "courses/1717171717171-a1b2c3d4e5f6-intro.mp4".
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound   = errors.New("storage: file not found")
	ErrExists     = errors.New("storage: file already exists")
	ErrInvalidKey = errors.New("storage: invalid key")
)

type FileStore interface {
	// Save writes a new file. It never overwrites: an existing key yields ErrExists.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes the file, returning ErrNotFound when it is already gone.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// URL is the public address the file is served from.
	URL(key string) string
}

// CleanKey rejects keys that are empty, absolute or not in canonical form.
// Canonical means path.Clean leaves it untouched, so ".." segments and
// duplicate slashes never reach a backend.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, "\\\x00") || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
