package pkg

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const postImageDir = "posts"

// MediaStore keeps uploaded post images on the local filesystem.
type MediaStore struct {
	Root    string
	BaseURL string
}

func NewMediaStore(root, baseURL string) *MediaStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &MediaStore{Root: root, BaseURL: baseURL}
}

// SavePostImage stores the upload under a fresh name and returns its
// identifier relative to Root, e.g. "posts/<uuid>.gif".
func (s *MediaStore) SavePostImage(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	dir := filepath.Join(s.Root, postImageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name := uuid.NewString() + mt.Extension()
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close media file: %w", err)
	}
	return path.Join(postImageDir, name), nil
}

// Remove deletes a stored image. Unknown or already missing names are ignored.
func (s *MediaStore) Remove(name string) error {
	if name == "" || path.Dir(path.Clean(name)) != postImageDir {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(path.Clean(name))))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

// URL returns the public URL of a stored image identifier.
func (s *MediaStore) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.BaseURL + name
}
