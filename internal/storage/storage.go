package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

var ErrUnsupportedType = errors.New("storage: unsupported file type")

type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
	// Folder groups objects, e.g. "products" or "categories".
	Folder string
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}

// imageExt returns the normalized extension for catalog images or
// ErrUnsupportedType.
func imageExt(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext, nil
	default:
		return "", ErrUnsupportedType
	}
}

func cleanFolder(folder string) string {
	folder = strings.Trim(filepath.ToSlash(filepath.Clean("/"+folder)), "/")
	if folder == "." {
		return ""
	}
	return folder
}
