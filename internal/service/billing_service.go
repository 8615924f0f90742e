package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"wedding-venues-api/internal/billing"
	"wedding-venues-api/internal/domain"
)

type CheckoutInput struct {
	UID   string `json:"uid"`
	Value string `json:"value"` // price id
}

type BillingService struct {
	users        domain.UserRepository
	provider     billing.Provider
	notify       Notifications
	clientURL    string
	defaultPrice string
	log          *zap.Logger
}

func NewBillingService(users domain.UserRepository, p billing.Provider, n Notifications, clientURL, defaultPrice string, l *zap.Logger) *BillingService {
	return &BillingService{
		users:        users,
		provider:     p,
		notify:       n,
		clientURL:    strings.TrimRight(clientURL, "/"),
		defaultPrice: defaultPrice,
		log:          l,
	}
}

// CreateCheckoutSession 返回托管支付页 URL
func (s *BillingService) CreateCheckoutSession(ctx context.Context, actor *domain.User, in CheckoutInput) (string, error) {
	target := actor
	if in.UID != "" && in.UID != actor.ID {
		if !actor.IsAdmin {
			return "", domain.E(domain.ErrForbidden, "Access denied. Not authorized...")
		}
		u, err := s.users.FindByID(ctx, in.UID)
		if err != nil {
			return "", fmt.Errorf("checkout: %w", err)
		}
		if u == nil {
			return "", domain.E(domain.ErrNotFound, "User account not found...")
		}
		target = u
	}
	price := strings.TrimSpace(in.Value)
	if price == "" {
		price = s.defaultPrice
	}
	if price == "" {
		return "", domain.E(domain.ErrValidation, `"value" is required`)
	}

	customerID := target.CustomerID
	if customerID == "" {
		c, err := s.provider.CreateCustomer(ctx, target.Email, target.ID)
		if err != nil {
			return "", fmt.Errorf("checkout: create customer: %w", err)
		}
		customerID = c.ID
	}
	url, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerID: customerID,
		PriceID:    price,
		SuccessURL: s.clientURL + "/add-venue",
		CancelURL:  s.clientURL + "/profile",
	})
	if err != nil {
		return "", fmt.Errorf("checkout: create session: %w", err)
	}
	return url, nil
}

// HandleWebhook 只有签名/解析失败才返回错误；处理过程中的错误只记录，网关收到的始终是 200
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		webhookTotal.WithLabelValues("unknown", "rejected").Inc()
		return err
	}
	log := s.log.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	result := "ok"
	switch ev.Kind {
	case billing.EventCheckoutCompleted:
		if err := s.subscribe(ctx, ev.CustomerID); err != nil {
			result = "error"
			log.Error("checkout completed", zap.String("customer", ev.CustomerID), zap.Error(err))
		}
	case billing.EventInvoicePaid:
		log.Info("invoice paid", zap.String("customer", ev.CustomerID))
	case billing.EventInvoicePaymentFailed:
		log.Warn("invoice payment failed", zap.String("customer", ev.CustomerID))
	default:
		result = "ignored"
		log.Debug("unhandled webhook event")
	}
	webhookTotal.WithLabelValues(ev.Kind.String(), result).Inc()
	return nil
}

func (s *BillingService) subscribe(ctx context.Context, customerID string) error {
	if customerID == "" {
		return fmt.Errorf("event has no customer")
	}
	c, err := s.provider.GetCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("get customer: %w", err)
	}
	uid := c.Metadata[billing.MetadataUID]
	if uid == "" {
		return fmt.Errorf("customer %s has no %q metadata", c.ID, billing.MetadataUID)
	}
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return fmt.Errorf("user %s: %w", uid, domain.ErrNotFound)
	}
	u.IsSubscribed = true
	u.CustomerID = c.ID
	u.CustomerEmail = c.Email
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.log.Info("user subscribed", zap.String("uid", u.ID), zap.String("customer", c.ID))
	s.notify.SendSubscriptionConfirmed(ctx, u)
	return nil
}
