package media

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 png
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngPixel)
}

func TestLocalUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "/uploads/")
	require.NoError(t, err)

	img, err := s.Upload(context.Background(), pngDataURI())
	require.NoError(t, err)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, "/uploads/"+img.PublicID, img.URL)
	assert.Equal(t, len(pngPixel), img.Bytes)
	_, err = os.Stat(filepath.Join(dir, img.PublicID))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), img.PublicID))
	_, err = os.Stat(filepath.Join(dir, img.PublicID))
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	assert.NoError(t, s.Delete(context.Background(), img.PublicID))
}

func TestLocalUploadRejects(t *testing.T) {
	s, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = s.Upload(context.Background(), "https://example.com/a.png")
	assert.ErrorIs(t, err, ErrInvalidImage)

	txt := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text, not an image"))
	_, err = s.Upload(context.Background(), txt)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestLocalDeleteRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)
	for _, id := range []string{"../etc/passwd", "..", ".", "a/b.png"} {
		assert.Error(t, s.Delete(context.Background(), id), id)
	}
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}
