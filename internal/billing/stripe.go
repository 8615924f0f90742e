package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"wedding-venues-api/internal/domain"
)

type StripeOptions struct {
	SecretKey     string
	WebhookSecret string
	// 只允许在本地开发时打开
	AllowUnsigned bool
}

type StripeProvider struct {
	api  *client.API
	opts StripeOptions
}

func NewStripe(o StripeOptions) *StripeProvider {
	api := &client.API{}
	api.Init(o.SecretKey, nil)
	return &StripeProvider{api: api, opts: o}
}

var _ Provider = (*StripeProvider)(nil)

func (s *StripeProvider) CreateCustomer(ctx context.Context, email, uid string) (*Customer, error) {
	p := &stripe.CustomerParams{}
	p.Context = ctx
	if email != "" {
		p.Email = stripe.String(email)
	}
	p.AddMetadata(MetadataUID, uid)
	c, err := s.api.Customers.New(p)
	if err != nil {
		return nil, fmt.Errorf("stripe create customer: %w", err)
	}
	return toCustomer(c), nil
}

func (s *StripeProvider) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	p := &stripe.CustomerParams{}
	p.Context = ctx
	c, err := s.api.Customers.Get(id, p)
	if err != nil {
		return nil, fmt.Errorf("stripe get customer: %w", err)
	}
	return toCustomer(c), nil
}

func toCustomer(c *stripe.Customer) *Customer {
	return &Customer{ID: c.ID, Email: c.Email, Metadata: c.Metadata}
}

func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, cp CheckoutParams) (string, error) {
	p := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(cp.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(cp.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(cp.SuccessURL),
		CancelURL:  stripe.String(cp.CancelURL),
	}
	p.Context = ctx
	sess, err := s.api.CheckoutSessions.New(p)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *StripeProvider) ParseEvent(payload []byte, signature string) (*Event, error) {
	var ev stripe.Event
	switch {
	case s.opts.WebhookSecret != "":
		var err error
		ev, err = webhook.ConstructEventWithOptions(payload, signature, s.opts.WebhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return nil, domain.E(domain.ErrInvalidSignature, "Webhook signature verification failed.")
		}
	case s.opts.AllowUnsigned:
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, domain.E(domain.ErrValidation, "Invalid webhook payload.")
		}
	default:
		return nil, domain.E(domain.ErrInvalidSignature, "Webhook signing is not configured.")
	}
	if ev.Data == nil {
		return nil, domain.E(domain.ErrValidation, "Invalid webhook payload.")
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type), Kind: KindOf(string(ev.Type))}
	if out.Kind != EventUnhandled {
		cid, err := customerOf(ev.Data.Raw)
		if err != nil {
			return nil, domain.E(domain.ErrValidation, "Invalid webhook payload.")
		}
		out.CustomerID = cid
	}
	return out, nil
}

// customerOf checkout session / invoice 的 customer 字段可能是 id 也可能是展开的对象
func customerOf(raw json.RawMessage) (string, error) {
	var obj struct {
		Customer json.RawMessage `json:"customer"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", err
	}
	if len(obj.Customer) == 0 || string(obj.Customer) == "null" {
		return "", nil
	}
	var id string
	if err := json.Unmarshal(obj.Customer, &id); err == nil {
		return id, nil
	}
	var c struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(obj.Customer, &c); err != nil {
		return "", errors.New("customer field has unexpected shape")
	}
	return c.ID, nil
}
