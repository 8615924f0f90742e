package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"wedding-venues-api/internal/domain"
	"wedding-venues-api/pkg/utils"
)

const emailTokenBytes = 64

type RegisterInput struct {
	FirstName      string `json:"firstName" binding:"required,min=3,max=30"`
	LastName       string `json:"lastName" binding:"required,min=3,max=30"`
	Email          string `json:"email" binding:"required,min=3,max=200,email"`
	Password       string `json:"password" binding:"required,min=6,max=200"`
	RepeatPassword string `json:"repeatPassword" binding:"required,eqfield=Password"`
	IsAdmin        *bool  `json:"isAdmin" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,min=3,max=200,email"`
	Password string `json:"password" binding:"required,min=6,max=200"`
}

type UpdateProfileInput struct {
	FirstName string `json:"firstName" binding:"required,min=3,max=30"`
	LastName  string `json:"lastName" binding:"required,min=3,max=30"`
	Email     string `json:"email" binding:"required,min=3,max=200,email"`
	Password  string `json:"password" binding:"required,min=6,max=200"`
}

type UpdatePasswordInput struct {
	CurrentPassword   string `json:"currentPassword" binding:"required,min=6,max=200"`
	NewPassword       string `json:"newPassword" binding:"required,min=6,max=200"`
	RepeatNewPassword string `json:"repeatNewPassword" binding:"required,eqfield=NewPassword"`
}

type DeleteAccountInput struct {
	Password string `json:"password" binding:"required,min=6,max=200"`
}

type AdminDeleteInput struct {
	UserID string `json:"userId" binding:"required"`
}

type VerifyEmailInput struct {
	EmailToken string `json:"emailToken"`
}

type UserService struct {
	users    domain.UserRepository
	listings ListingPurger
	tokens   TokenIssuer
	notify   Notifications
	log      *zap.Logger
}

func NewUserService(users domain.UserRepository, listings ListingPurger, tokens TokenIssuer, n Notifications, l *zap.Logger) *UserService {
	return &UserService{users: users, listings: listings, tokens: tokens, notify: n, log: l}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *UserService) Register(ctx context.Context, in RegisterInput) (string, error) {
	email := normalizeEmail(in.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return "", domain.E(domain.ErrDuplicateEmail, "User with the given email already exists...")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("register: hash: %w", err)
	}
	token, err := utils.RandomHex(emailTokenBytes)
	if err != nil {
		return "", fmt.Errorf("register: email token: %w", err)
	}
	u := &domain.User{
		ID:         utils.NewID(),
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      email,
		Password:   hash,
		IsAdmin:    in.IsAdmin != nil && *in.IsAdmin,
		EmailToken: token,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", domain.E(domain.ErrDuplicateEmail, "User with the given email already exists...")
		}
		return "", fmt.Errorf("register: %w", err)
	}
	s.log.Info("user registered", zap.String("uid", u.ID))
	s.notify.SendVerification(ctx, u)
	return s.tokens.Issue(u)
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (string, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	// 邮箱不存在和密码错误返回同一个错误
	if u == nil || !utils.CheckPassword(in.Password, u.Password) {
		return "", domain.E(domain.ErrInvalidCredentials, "Invalid email or password...")
	}
	return s.tokens.Issue(u)
}

func (s *UserService) List(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if !actor.IsAdmin {
		return nil, domain.E(domain.ErrForbidden, "Access denied. Not authorized...")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// RefreshToken 按库里最新状态重新签发（例如订阅成功之后）
func (s *UserService) RefreshToken(ctx context.Context, actor *domain.User, id string) (string, error) {
	if actor.ID != id && !actor.IsAdmin {
		return "", domain.E(domain.ErrForbidden, "Access denied. Not authorized...")
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if u == nil {
		return "", domain.E(domain.ErrNotFound, "User account not found...")
	}
	return s.tokens.Issue(u)
}

func (s *UserService) VerifyEmail(ctx context.Context, in VerifyEmailInput) (string, error) {
	if strings.TrimSpace(in.EmailToken) == "" {
		return "", domain.E(domain.ErrNotFound, "EmailToken not found...")
	}
	u, err := s.users.FindByEmailToken(ctx, in.EmailToken)
	if err != nil {
		return "", fmt.Errorf("verify email: %w", err)
	}
	if u == nil {
		return "", domain.E(domain.ErrNotFound,
			"Email verification failed, you might have already verified your email. Visit your profile to confirm.")
	}
	u.EmailToken = ""
	u.IsVerified = true
	if err := s.users.Update(ctx, u); err != nil {
		return "", fmt.Errorf("verify email: %w", err)
	}
	return s.tokens.Issue(u)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, in UpdateProfileInput) (string, error) {
	if !utils.CheckPassword(in.Password, actor.Password) {
		return "", domain.E(domain.ErrInvalidCredentials,
			"Invalid password. To update your account details, please enter the correct password...")
	}
	email := normalizeEmail(in.Email)
	changed := email != normalizeEmail(actor.Email)
	if changed {
		other, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("update profile: %w", err)
		}
		if other != nil && other.ID != actor.ID {
			return "", domain.E(domain.ErrDuplicateEmail, "Email is already taken...")
		}
	}

	u := *actor
	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.Email = email
	if changed {
		token, err := utils.RandomHex(emailTokenBytes)
		if err != nil {
			return "", fmt.Errorf("update profile: email token: %w", err)
		}
		u.IsVerified = false
		u.EmailToken = token
	}
	if err := s.users.Update(ctx, &u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", domain.E(domain.ErrDuplicateEmail, "Email is already taken...")
		}
		return "", fmt.Errorf("update profile: %w", err)
	}
	if changed {
		s.notify.SendVerification(ctx, &u)
	}
	return s.tokens.Issue(&u)
}

func (s *UserService) UpdatePassword(ctx context.Context, actor *domain.User, in UpdatePasswordInput) (*domain.User, error) {
	if !utils.CheckPassword(in.CurrentPassword, actor.Password) {
		return nil, domain.E(domain.ErrInvalidCredentials,
			"Invalid password. To set a new password, please enter the correct current password...")
	}
	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("update password: hash: %w", err)
	}
	u := *actor
	u.Password = hash
	if err := s.users.Update(ctx, &u); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	return &u, nil
}

// Delete 用户自助注销；名下场地一并删除，避免场地比作者活得久
func (s *UserService) Delete(ctx context.Context, actor *domain.User, in DeleteAccountInput) (*domain.User, error) {
	if !utils.CheckPassword(in.Password, actor.Password) {
		return nil, domain.E(domain.ErrInvalidCredentials,
			"Invalid password. To delete your account, please enter the correct password...")
	}
	return s.remove(ctx, actor)
}

func (s *UserService) AdminDelete(ctx context.Context, actor *domain.User, in AdminDeleteInput) (*domain.User, error) {
	if !actor.IsAdmin {
		return nil, domain.E(domain.ErrForbidden, "Access denied. Not authorized...")
	}
	target, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("admin delete: %w", err)
	}
	if target == nil {
		return nil, domain.E(domain.ErrNotFound, "User account not found...")
	}
	return s.remove(ctx, target)
}

// remove 先删场地再删用户；场地删除失败则保留用户
func (s *UserService) remove(ctx context.Context, u *domain.User) (*domain.User, error) {
	n, err := s.listings.DeleteByAuthor(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("delete user listings: %w", err)
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.E(domain.ErrNotFound, "User account not found...")
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	s.log.Info("user deleted", zap.String("uid", u.ID), zap.Int("listings", n))
	return u, nil
}
