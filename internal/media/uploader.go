// Package media abstracts the object-storage collaborator: an upload call
// taking a file and returning a public URL.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// DiskUploader writes uploads under a local directory served at baseURL.
// It stands in for the hosted object store in development.
type DiskUploader struct {
	dir     string
	baseURL string
}

// NewDiskUploader creates the target directory if needed.
func NewDiskUploader(dir, baseURL string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskUploader{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload writes the file under a collision-free name and returns its URL.
func (u *DiskUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := uuid.NewString() + filepath.Ext(filename)
	path := filepath.Join(u.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write media file: %w", err)
	}
	return u.baseURL + "/" + name, nil
}

// ContentTypeForMIME maps an upload's MIME type to a message content type.
// Unsupported types report ok=false.
func ContentTypeForMIME(mime string) (string, bool) {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image", true
	case strings.HasPrefix(mime, "video/"):
		return "video", true
	default:
		return "", false
	}
}
