package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wedding-venues-api/internal/billing"
	"wedding-venues-api/internal/core/auth"
	"wedding-venues-api/internal/core/database"
	"wedding-venues-api/internal/domain"
	"wedding-venues-api/internal/repo"
	"wedding-venues-api/pkg/utils"
)

type mockMedia struct{ mock.Mock }

func (m *mockMedia) Upload(ctx context.Context, image string) (*domain.CoverImage, error) {
	args := m.Called(ctx, image)
	img, _ := args.Get(0).(*domain.CoverImage)
	return img, args.Error(1)
}

func (m *mockMedia) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

type mockProvider struct{ mock.Mock }

func (m *mockProvider) CreateCustomer(ctx context.Context, email, uid string) (*billing.Customer, error) {
	args := m.Called(ctx, email, uid)
	c, _ := args.Get(0).(*billing.Customer)
	return c, args.Error(1)
}

func (m *mockProvider) GetCustomer(ctx context.Context, id string) (*billing.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*billing.Customer)
	return c, args.Error(1)
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, p billing.CheckoutParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) ParseEvent(payload []byte, signature string) (*billing.Event, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(*billing.Event)
	return ev, args.Error(1)
}

type recNotify struct {
	mu         sync.Mutex
	verify     []string
	subscribed []string
}

func (r *recNotify) SendVerification(_ context.Context, u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verify = append(r.verify, u.Email)
}

func (r *recNotify) SendSubscriptionConfirmed(_ context.Context, u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribed = append(r.subscribed, u.Email)
}

type fixture struct {
	users   *repo.UserRepo
	venues  *repo.VenueRepo
	media   *mockMedia
	notify  *recNotify
	jwt     *auth.JWTer
	userSvc *UserService
	venue   *VenueService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &domain.User{}, &domain.Venue{}))

	f := &fixture{
		users:  repo.NewUserRepo(db),
		venues: repo.NewVenueRepo(db),
		media:  &mockMedia{},
		notify: &recNotify{},
		jwt:    &auth.JWTer{Secret: []byte("test"), Issuer: "test", TTL: time.Hour},
	}
	f.venue = NewVenueService(f.venues, f.media, nil, time.Minute, zap.NewNop())
	f.userSvc = NewUserService(f.users, f.venue, f.jwt, f.notify, zap.NewNop())
	return f
}

// seedUser 直接落库，密码统一为 "secret1"
func (f *fixture) seedUser(t *testing.T, email string, mutate func(u *domain.User)) *domain.User {
	t.Helper()
	hash, err := utils.HashPassword("secret1")
	require.NoError(t, err)
	u := &domain.User{ID: utils.NewID(), FirstName: "Test", LastName: "User", Email: email, Password: hash}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func venueInput() VenueInput {
	return VenueInput{
		Name:        "Lakeside Manor",
		Description: "A quiet manor by the lake with room for 200 guests.",
		Services:    []string{"catering", "music"},
		Email:       "manor@example.com",
	}
}
