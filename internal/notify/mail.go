package notify

import (
	"context"
	"errors"
)

// 路由键，同时作为 Mail.Kind
const (
	KindVerifyEmail  = "mail.verify_email"
	KindSubscription = "mail.subscription"
)

var ErrQueueFull = errors.New("notify: queue full")
var ErrQueueClosed = errors.New("notify: queue closed")

// Mail 已渲染好的邮件，可直接投递
type Mail struct {
	Kind    string `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Queue 单向投递；Enqueue 不能阻塞请求
type Queue interface {
	Enqueue(ctx context.Context, m Mail) error
}

// Mailer 真正发信
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}
