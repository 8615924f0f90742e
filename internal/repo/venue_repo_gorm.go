package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"wedding-venues-api/internal/domain"
)

type VenueRepo struct{ db *gorm.DB }

func NewVenueRepo(db *gorm.DB) *VenueRepo { return &VenueRepo{db: db} }

var _ domain.VenueRepository = (*VenueRepo)(nil)

func (r *VenueRepo) Create(ctx context.Context, v *domain.Venue) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VenueRepo) FindByID(ctx context.Context, id string) (*domain.Venue, error) {
	var v domain.Venue
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VenueRepo) List(ctx context.Context) ([]domain.Venue, error) {
	var vs []domain.Venue
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&vs).Error
	return vs, err
}

func (r *VenueRepo) ListByAuthor(ctx context.Context, authorID string) ([]domain.Venue, error) {
	var vs []domain.Venue
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at desc").Find(&vs).Error
	return vs, err
}

func (r *VenueRepo) Update(ctx context.Context, v *domain.Venue) error {
	res := r.db.WithContext(ctx).Model(v).Select("*").Omit("created_at").Updates(v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *VenueRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Venue{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *VenueRepo) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("author_id = ?", authorID).Delete(&domain.Venue{})
	return res.RowsAffected, res.Error
}
