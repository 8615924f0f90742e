package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"wedding-venues-api/internal/domain"
)

// TokenIssuer 签发会话 token
type TokenIssuer interface {
	Issue(u *domain.User) (string, error)
}

// Notifications 事务邮件；实现方自行处理失败，调用方不等待
type Notifications interface {
	SendVerification(ctx context.Context, u *domain.User)
	SendSubscriptionConfirmed(ctx context.Context, u *domain.User)
}

// ListingPurger 删除某个作者的全部场地（含封面）
type ListingPurger interface {
	DeleteByAuthor(ctx context.Context, authorID string) (int, error)
}

var webhookTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "billing_webhook_events_total", Help: "Billing webhook events by kind and outcome"},
	[]string{"kind", "result"},
)

func init() { prometheus.MustRegister(webhookTotal) }
