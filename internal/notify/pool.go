package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pool 进程内有界队列 + 固定 worker；队列满直接丢弃（记日志）
type Pool struct {
	mailer  Mailer
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	ch     chan Mail
	g      errgroup.Group
}

func NewPool(m Mailer, workers, buffer int, l *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 64
	}
	p := &Pool{mailer: m, log: l, timeout: 30 * time.Second, ch: make(chan Mail, buffer)}
	for i := 0; i < workers; i++ {
		p.g.Go(p.work)
	}
	return p
}

func (p *Pool) Enqueue(_ context.Context, m Mail) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}
	select {
	case p.ch <- m:
		mailTotal.WithLabelValues(m.Kind, "queued").Inc()
		return nil
	default:
		mailTotal.WithLabelValues(m.Kind, "dropped").Inc()
		return ErrQueueFull
	}
}

func (p *Pool) work() error {
	for m := range p.ch {
		// 请求早已返回，不能沿用请求的 ctx
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.mailer.Send(ctx, m)
		cancel()
		if err != nil {
			mailTotal.WithLabelValues(m.Kind, "failed").Inc()
			p.log.Warn("mail send failed", zap.String("kind", m.Kind), zap.String("to", m.To), zap.Error(err))
			continue
		}
		mailTotal.WithLabelValues(m.Kind, "sent").Inc()
	}
	return nil
}

// Close 停止接收并等已入队的邮件发完
func (p *Pool) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	p.mu.Unlock()
	return p.g.Wait()
}
