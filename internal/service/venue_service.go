package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wedding-venues-api/internal/core/cache"
	"wedding-venues-api/internal/domain"
	"wedding-venues-api/internal/media"
	"wedding-venues-api/pkg/utils"
)

const (
	cacheKeyVenues     = "venues:all"
	cacheKeyVenuePrefx = "venues:"
)

type VenueInput struct {
	Name        string   `json:"name" binding:"required,min=3,max=100"`
	Description string   `json:"description" binding:"required,min=20,max=10000"`
	Services    []string `json:"services" binding:"required,min=1"`
	Phone       string   `json:"phone" binding:"omitempty,max=64"`
	Email       string   `json:"email" binding:"required,min=3,max=200,email"`
	IsDraft     bool     `json:"isDraft"`
	IsPublished bool     `json:"isPublished"`
}

type AddVenueInput struct {
	VenueInput
	CoverImg string `json:"coverImg" binding:"required"`
}

// CoverInput coverImg 可以是新图片（字符串）或者已有的封面对象
type CoverInput struct {
	Raw string
	Ref *domain.CoverImage
}

func (c *CoverInput) UnmarshalJSON(b []byte) error {
	*c = CoverInput{}
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &c.Raw)
	}
	var ref struct {
		domain.CoverImage
		PublicIDCamel string `json:"publicId"`
	}
	if err := json.Unmarshal(b, &ref); err != nil {
		return fmt.Errorf("coverImg: %w", err)
	}
	if ref.PublicID == "" {
		ref.PublicID = ref.PublicIDCamel
	}
	c.Ref = &ref.CoverImage
	return nil
}

type EditVenueInput struct {
	VenueInput
	CoverImg      CoverInput `json:"coverImg"`
	CoverPublicID string     `json:"coverPublicId"`
	LegacyCoverID string     `json:"cover_public_id"`
}

func (in EditVenueInput) coverPublicID() string {
	if in.CoverPublicID != "" {
		return in.CoverPublicID
	}
	return in.LegacyCoverID
}

type VenueService struct {
	venues domain.VenueRepository
	media  media.Store
	cache  *cache.Cache
	ttl    time.Duration
	log    *zap.Logger
}

// NewVenueService c 可以为 nil（不走缓存）
func NewVenueService(venues domain.VenueRepository, m media.Store, c *cache.Cache, ttl time.Duration, l *zap.Logger) *VenueService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &VenueService{venues: venues, media: m, cache: c, ttl: ttl, log: l}
}

var errVenueNotFound = domain.E(domain.ErrNotFound, "Venue not found...")

// RequirePublisher 管理员或已订阅；在任何上传和写入之前检查
func RequirePublisher(u *domain.User, action string) error {
	if u == nil || !u.CanPublish() {
		return domain.E(domain.ErrPaymentRequired, fmt.Sprintf("To %s your venue, please subscribe...", action))
	}
	return nil
}

// List 不按草稿/发布过滤
func (s *VenueService) List(ctx context.Context) ([]domain.Venue, error) {
	vs, err := cache.LoadJSON(ctx, s.cache, cacheKeyVenues, s.ttl, func(ctx context.Context) ([]domain.Venue, error) {
		return s.venues.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	if vs == nil {
		vs = []domain.Venue{}
	}
	return vs, nil
}

func (s *VenueService) Get(ctx context.Context, id string) (*domain.Venue, error) {
	v, err := cache.LoadJSON(ctx, s.cache, cacheKeyVenuePrefx+id, s.ttl, func(ctx context.Context) (*domain.Venue, error) {
		v, err := s.venues.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errVenueNotFound
		}
		return v, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get venue: %w", err)
	}
	if v == nil {
		return nil, errVenueNotFound
	}
	return v, nil
}

func (s *VenueService) Add(ctx context.Context, actor *domain.User, in AddVenueInput) (*domain.Venue, error) {
	if err := RequirePublisher(actor, "share"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CoverImg) == "" {
		return nil, domain.E(domain.ErrValidation, `"coverImg" is required`)
	}
	img, err := s.media.Upload(ctx, in.CoverImg)
	if err != nil {
		return nil, uploadErr(err)
	}
	v := &domain.Venue{
		ID:            utils.NewID(),
		CoverImg:      img,
		AuthorID:      actor.ID,
		AuthorEmail:   actor.Email,
		CustomerID:    actor.CustomerID,
		CustomerEmail: actor.CustomerEmail,
	}
	applyVenueInput(v, in.VenueInput)
	if err := s.venues.Create(ctx, v); err != nil {
		// 记录没写成功，刚上传的图片要释放
		if derr := s.media.Delete(context.WithoutCancel(ctx), img.PublicID); derr != nil {
			s.log.Warn("release orphan cover", zap.String("public_id", img.PublicID), zap.Error(derr))
		}
		return nil, fmt.Errorf("add venue: %w", err)
	}
	s.invalidate(ctx, v.ID)
	return v, nil
}

func (s *VenueService) Edit(ctx context.Context, actor *domain.User, id string, in EditVenueInput) (*domain.Venue, error) {
	if err := RequirePublisher(actor, "edit"); err != nil {
		return nil, err
	}
	v, err := s.venues.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("edit venue: %w", err)
	}
	if v == nil {
		return nil, errVenueNotFound
	}
	if !v.OwnedBy(actor) {
		return nil, domain.E(domain.ErrForbidden, "Access denied. Not authorized...")
	}

	var oldPublicID, newPublicID string
	switch {
	case in.CoverImg.Ref != nil && in.CoverImg.Ref.PublicID != "":
		// 只能保留自己当前的封面，不碰媒体存储；客户端传来的 url 不落库
		if v.CoverImg == nil || in.CoverImg.Ref.PublicID != v.CoverImg.PublicID {
			return nil, domain.E(domain.ErrValidation, `"coverImg" does not match the current cover image.`)
		}
	case in.coverPublicID() != "" && strings.TrimSpace(in.CoverImg.Raw) != "":
		img, err := s.media.Upload(ctx, in.CoverImg.Raw)
		if err != nil {
			return nil, uploadErr(err)
		}
		if v.CoverImg != nil {
			oldPublicID = v.CoverImg.PublicID
		}
		v.CoverImg = img
		newPublicID = img.PublicID
	default:
		return nil, domain.E(domain.ErrValidation,
			`"coverImg" must be the current cover object, or a new image together with "coverPublicId"`)
	}

	applyVenueInput(v, in.VenueInput)
	if err := s.venues.Update(ctx, v); err != nil {
		if newPublicID != "" {
			// 新图已上传但记录没更新，释放新图
			if derr := s.media.Delete(context.WithoutCancel(ctx), newPublicID); derr != nil {
				s.log.Warn("release orphan cover", zap.String("public_id", newPublicID), zap.Error(derr))
			}
		}
		return nil, fmt.Errorf("edit venue: %w", err)
	}
	if oldPublicID != "" {
		if err := s.media.Delete(ctx, oldPublicID); err != nil {
			s.log.Warn("release replaced cover", zap.String("public_id", oldPublicID), zap.Error(err))
		}
	}
	s.invalidate(ctx, v.ID)
	return v, nil
}

func (s *VenueService) Delete(ctx context.Context, actor *domain.User, id string) (*domain.Venue, error) {
	v, err := s.venues.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete venue: %w", err)
	}
	if v == nil {
		return nil, errVenueNotFound
	}
	if !v.OwnedBy(actor) {
		return nil, domain.E(domain.ErrForbidden, "Access denied. Not authorized...")
	}
	if err := s.releaseCover(ctx, v); err != nil {
		return nil, err
	}
	if err := s.venues.Delete(ctx, v.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errVenueNotFound
		}
		return nil, fmt.Errorf("delete venue: %w", err)
	}
	s.invalidate(ctx, v.ID)
	return v, nil
}

// DeleteByAuthor 释放所有封面后批量删除；任何一张释放失败都不删记录
func (s *VenueService) DeleteByAuthor(ctx context.Context, authorID string) (int, error) {
	vs, err := s.venues.ListByAuthor(ctx, authorID)
	if err != nil {
		return 0, fmt.Errorf("list author venues: %w", err)
	}
	ids := make([]string, 0, len(vs))
	for i := range vs {
		if err := s.releaseCover(ctx, &vs[i]); err != nil {
			return 0, err
		}
		ids = append(ids, vs[i].ID)
	}
	n, err := s.venues.DeleteByAuthor(ctx, authorID)
	if err != nil {
		return 0, fmt.Errorf("delete author venues: %w", err)
	}
	s.invalidate(ctx, ids...)
	return int(n), nil
}

func (s *VenueService) releaseCover(ctx context.Context, v *domain.Venue) error {
	if v.CoverImg == nil || v.CoverImg.PublicID == "" {
		return nil
	}
	if err := s.media.Delete(ctx, v.CoverImg.PublicID); err != nil {
		return fmt.Errorf("release cover %s: %w", v.CoverImg.PublicID, err)
	}
	return nil
}

func (s *VenueService) invalidate(ctx context.Context, ids ...string) {
	keys := []string{cacheKeyVenues}
	for _, id := range ids {
		keys = append(keys, cacheKeyVenuePrefx+id)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("venue cache invalidate", zap.Error(err))
	}
}

func applyVenueInput(v *domain.Venue, in VenueInput) {
	v.Name = strings.TrimSpace(in.Name)
	v.Description = in.Description
	v.Services = in.Services
	v.Phone = in.Phone
	v.Email = strings.TrimSpace(in.Email)
	v.IsDraft = in.IsDraft
	v.IsPublished = in.IsPublished
}

func uploadErr(err error) error {
	if errors.Is(err, media.ErrInvalidImage) || errors.Is(err, media.ErrEmptyImage) {
		return domain.E(domain.ErrValidation, "Invalid cover image.")
	}
	return fmt.Errorf("upload cover: %w", err)
}
