package uploads

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fileHeader builds a real multipart.FileHeader by parsing a form.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["document"][0]
}

func TestSaveAcceptsPNG(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, 5<<20)

	path, err := s.Save(fileHeader(t, "scan.PNG", pngBytes(t)), Documents)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "document-"))
	assert.Equal(t, ".png", filepath.Ext(path))
	assert.FileExists(t, filepath.FromSlash(path))

	require.NoError(t, s.Remove(path))
	assert.NoFileExists(t, filepath.FromSlash(path))
	assert.NoError(t, s.Remove(path))
}

func TestSaveRejectsWrongExtension(t *testing.T) {
	s := NewStore(t.TempDir(), 5<<20)
	_, err := s.Save(fileHeader(t, "notes.pdf", []byte("%PDF-1.4 hello")), Documents)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveRejectsDisguisedContent(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, 5<<20)
	_, err := s.Save(fileHeader(t, "photo.jpg", []byte("#!/bin/sh\necho nope\n")), Documents)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	entries, _ := os.ReadDir(filepath.Join(root, string(Documents)))
	assert.Empty(t, entries)
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	content := pngBytes(t)
	s := NewStore(t.TempDir(), int64(len(content)-1))
	_, err := s.Save(fileHeader(t, "scan.png", content), Documents)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAvatarAllowsMoreTypes(t *testing.T) {
	s := NewStore(t.TempDir(), 5<<20)
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	path, err := s.Save(fileHeader(t, "me.gif", gif), Avatars)
	require.NoError(t, err)
	assert.Contains(t, path, "/avatars/avatar-")

	_, err = s.Save(fileHeader(t, "me.gif", gif), Documents)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
