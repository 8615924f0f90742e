package domain

import (
	"context"
	"time"
)

// CoverImage 媒体存储返回的封面引用
type CoverImage struct {
	PublicID     string `bson:"public_id" json:"public_id"`
	URL          string `bson:"url" json:"url"`
	SecureURL    string `bson:"secure_url,omitempty" json:"secure_url,omitempty"`
	Format       string `bson:"format,omitempty" json:"format,omitempty"`
	ResourceType string `bson:"resource_type,omitempty" json:"resource_type,omitempty"`
	Width        int    `bson:"width,omitempty" json:"width,omitempty"`
	Height       int    `bson:"height,omitempty" json:"height,omitempty"`
	Bytes        int    `bson:"bytes,omitempty" json:"bytes,omitempty"`
}

// Venue 的 author/customer 字段是创建时的快照，不随用户变化
type Venue struct {
	ID            string      `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Name          string      `gorm:"size:100" bson:"name" json:"name"`
	Description   string      `gorm:"type:text" bson:"description" json:"description"`
	Services      []string    `gorm:"serializer:json;type:text" bson:"services" json:"services"`
	Phone         string      `gorm:"size:64" bson:"phone" json:"phone"`
	Email         string      `gorm:"size:191" bson:"email" json:"email"`
	IsDraft       bool        `bson:"is_draft" json:"isDraft"`
	IsPublished   bool        `bson:"is_published" json:"isPublished"`
	CoverImg      *CoverImage `gorm:"serializer:json;type:text" bson:"cover_img,omitempty" json:"coverImg,omitempty"`
	AuthorID      string      `gorm:"size:36;index" bson:"author_id" json:"author_id"`
	AuthorEmail   string      `gorm:"size:191" bson:"author_email" json:"author_email"`
	CustomerID    string      `gorm:"size:191" bson:"customer_id,omitempty" json:"customer_id,omitempty"`
	CustomerEmail string      `gorm:"size:191" bson:"customer_email,omitempty" json:"customer_email,omitempty"`
	CreatedAt     time.Time   `gorm:"index" bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `bson:"updated_at" json:"updatedAt"`
}

func (v *Venue) OwnedBy(u *User) bool { return u != nil && (u.IsAdmin || v.AuthorID == u.ID) }

// VenueRepository 查不到时返回 (nil, nil)
type VenueRepository interface {
	Create(ctx context.Context, v *Venue) error
	FindByID(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context) ([]Venue, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Venue, error)
	Update(ctx context.Context, v *Venue) error
	Delete(ctx context.Context, id string) error
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
}
