package notify

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"wedding-venues-api/internal/domain"
)

var (
	verifyTpl = template.Must(template.New("verify").Parse(
		`<p>Hello {{.Name}}, verify your email by clicking this link...</p>
<a href="{{.Link}}">Verify Your Email</a>`))
	subscriptionTpl = template.Must(template.New("subscription").Parse(
		`<p>Hello {{.Name}}, you have successfully subscribed to our wedding venues platform. Use the link below to share your venue.</p>
<a href="{{.Link}}">Tell Us About Your Venue</a>`))
)

// Notifier 渲染事务邮件并投递到队列；失败只记日志，不影响主流程
type Notifier struct {
	q         Queue
	clientURL string
	log       *zap.Logger
}

func NewNotifier(q Queue, clientURL string, l *zap.Logger) *Notifier {
	return &Notifier{q: q, clientURL: strings.TrimRight(clientURL, "/"), log: l}
}

func (n *Notifier) SendVerification(ctx context.Context, u *domain.User) {
	link := n.clientURL + "/verify-email?emailToken=" + u.EmailToken
	n.send(ctx, KindVerifyEmail, u, "Verify your email...", verifyTpl, link)
}

func (n *Notifier) SendSubscriptionConfirmed(ctx context.Context, u *domain.User) {
	n.send(ctx, KindSubscription, u, "Subscription successful!", subscriptionTpl, n.clientURL+"/add-venue")
}

func (n *Notifier) send(ctx context.Context, kind string, u *domain.User, subject string, tpl *template.Template, link string) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, struct{ Name, Link string }{u.FirstName, link}); err != nil {
		n.log.Error("render mail", zap.String("kind", kind), zap.Error(err))
		return
	}
	m := Mail{Kind: kind, To: u.Email, Subject: subject, HTML: buf.String()}
	if err := n.q.Enqueue(ctx, m); err != nil {
		n.log.Warn("enqueue mail failed", zap.String("kind", kind), zap.String("uid", u.ID), zap.Error(err))
	}
}
