package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"wedding-venues-api/internal/domain"
)

var ErrInvalidImage = errors.New("media: image must be a base64 data URI")

var allowedMime = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// LocalStore 开发环境用：图片落盘，由 HTTP 静态目录对外提供
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Upload(ctx context.Context, image string) (*domain.CoverImage, error) {
	if image == "" {
		return nil, ErrEmptyImage
	}
	data, err := decodeDataURI(image)
	if err != nil {
		return nil, err
	}
	// 以实际内容判断类型，不信任 data URI 里的声明
	mime := strings.Split(http.DetectContentType(data), ";")[0]
	ext, ok := allowedMime[mime]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, mime)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	name := id + "." + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("media write: %w", err)
	}
	url := s.baseURL + "/" + name
	return &domain.CoverImage{
		PublicID:     name,
		URL:          url,
		SecureURL:    url,
		Format:       ext,
		ResourceType: "image",
		Bytes:        len(data),
	}, nil
}

func (s *LocalStore) Delete(_ context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	// public id 只能是本目录下的文件名
	if publicID == "." || publicID == ".." || publicID != filepath.Base(publicID) {
		return fmt.Errorf("media: bad public id %q", publicID)
	}
	err := os.Remove(filepath.Join(s.dir, publicID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func decodeDataURI(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, ErrInvalidImage
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
		return nil, ErrInvalidImage
	}
	b, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return b, nil
}
