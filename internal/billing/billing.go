package billing

import "context"

// EventKind 只处理这几种 webhook 事件，其余统一归为 EventUnhandled
type EventKind int

const (
	EventUnhandled EventKind = iota
	EventCheckoutCompleted
	EventInvoicePaid
	EventInvoicePaymentFailed
)

func (k EventKind) String() string {
	switch k {
	case EventCheckoutCompleted:
		return "checkout.session.completed"
	case EventInvoicePaid:
		return "invoice.paid"
	case EventInvoicePaymentFailed:
		return "invoice.payment_failed"
	default:
		return "unhandled"
	}
}

func KindOf(eventType string) EventKind {
	switch eventType {
	case "checkout.session.completed":
		return EventCheckoutCompleted
	case "invoice.paid":
		return EventInvoicePaid
	case "invoice.payment_failed":
		return EventInvoicePaymentFailed
	default:
		return EventUnhandled
	}
}

type Event struct {
	ID         string
	Type       string // 原始类型
	Kind       EventKind
	CustomerID string // checkout/invoice 事件携带
}

type Customer struct {
	ID       string
	Email    string
	Metadata map[string]string
}

type CheckoutParams struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Provider 支付网关
type Provider interface {
	CreateCustomer(ctx context.Context, email, uid string) (*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (url string, err error)
	// ParseEvent 校验签名并解析；签名不对返回 domain.ErrInvalidSignature
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// MetadataUID 客户 metadata 中存放内部用户 id 的 key
const MetadataUID = "uid"
