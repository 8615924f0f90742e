package media

import (
	"context"
	"errors"

	"wedding-venues-api/internal/domain"
)

var ErrEmptyImage = errors.New("media: empty image")

// Store 托管图片存储；image 为 data URI 或远程 URL
type Store interface {
	Upload(ctx context.Context, image string) (*domain.CoverImage, error)
	Delete(ctx context.Context, publicID string) error
}
