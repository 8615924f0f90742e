package domain

import (
	"context"
	"time"
)

type User struct {
	ID            string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	FirstName     string    `gorm:"size:64" bson:"first_name" json:"firstName"`
	LastName      string    `gorm:"size:64" bson:"last_name" json:"lastName"`
	Email         string    `gorm:"uniqueIndex;size:191" bson:"email" json:"email"`
	Password      string    `gorm:"size:191" bson:"password" json:"-"`
	IsAdmin       bool      `bson:"is_admin" json:"isAdmin"`
	IsVerified    bool      `bson:"is_verified" json:"isVerified"`
	EmailToken    string    `gorm:"size:191;index" bson:"email_token,omitempty" json:"-"`
	IsSubscribed  bool      `bson:"is_subscribed" json:"isSubscribed"`
	CustomerID    string    `gorm:"size:191" bson:"customer_id,omitempty" json:"customer_id,omitempty"`
	CustomerEmail string    `gorm:"size:191" bson:"customer_email,omitempty" json:"customer_email,omitempty"`
	CreatedAt     time.Time `gorm:"index" bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// CanPublish 管理员或已订阅用户可以发布/编辑场地
func (u *User) CanPublish() bool { return u.IsAdmin || u.IsSubscribed }

// UserRepository 查不到时返回 (nil, nil)
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailToken(ctx context.Context, token string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
