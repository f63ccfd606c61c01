// Package uploads validates and stores files attached to requests and profiles.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// Kind selects the destination folder and the accepted file types.
type Kind string

const (
	Documents Kind = "documents"
	Avatars   Kind = "avatars"
)

type policy struct {
	prefix     string
	extensions []string
	mimeTypes  []string
}

var policies = map[Kind]policy{
	Documents: {
		prefix:     "document",
		extensions: []string{".jpeg", ".jpg", ".png"},
		mimeTypes:  []string{"image/jpeg", "image/png"},
	},
	Avatars: {
		prefix:     "avatar",
		extensions: []string{".jpeg", ".jpg", ".png", ".gif", ".webp"},
		mimeTypes:  []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	},
}

// Store writes accepted files below root.
type Store struct {
	root     string
	maxBytes int64
}

func NewStore(root string, maxBytes int64) *Store {
	return &Store{root: root, maxBytes: maxBytes}
}

// Save validates fh against the policy for kind and writes it under a unique name.
// The returned path is relative to the working directory and uses forward slashes.
func (s *Store) Save(fh *multipart.FileHeader, kind Kind) (string, error) {
	p, ok := policies[kind]
	if !ok {
		return "", fmt.Errorf("unknown upload kind %q", kind)
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !contains(p.extensions, ext) {
		return "", ErrUnsupportedType
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	if !mimetype.EqualsAny(mt.String(), p.mimeTypes...) {
		return "", ErrUnsupportedType
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%d-%s%s", p.prefix, time.Now().UnixMilli(), uuid.NewString(), ext)
	dst := filepath.Join(dir, name)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	// Count bytes as they are written, the header size can lie.
	written, err := io.Copy(out, io.LimitReader(src, s.limit()+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return filepath.ToSlash(dst), nil
}

// Remove deletes a previously saved file. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(filepath.FromSlash(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) limit() int64 {
	if s.maxBytes > 0 {
		return s.maxBytes
	}
	return 1<<63 - 2
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
