package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// publishLink 是一条可发布的 AMQP 连接，断线后由 AMQPQueue 重新拨号
type publishLink interface {
	Publish(ctx context.Context, exchange, key string, p amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type amqpLink struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func (l *amqpLink) Publish(ctx context.Context, exchange, key string, p amqp.Publishing) error {
	return l.ch.PublishWithContext(ctx, exchange, key, false, false, p)
}

func (l *amqpLink) IsClosed() bool { return l.ch.IsClosed() || l.conn.IsClosed() }

func (l *amqpLink) Close() error {
	_ = l.ch.Close()
	return l.conn.Close()
}

// 两次重连之间的最小间隔，broker 不可用时 Enqueue 快速失败
const redialInterval = time.Second

// AMQPQueue 把邮件发布到 topic exchange，由 cmd/mailer 消费；连接断开后下次发布时重连
type AMQPQueue struct {
	mu       sync.Mutex // amqp.Channel 不是并发安全的
	link     publishLink
	dial     func() (publishLink, error)
	exchange string
	log      *zap.Logger

	now      func() time.Time
	lastDial time.Time
}

func NewAMQPQueue(url, exchange string, l *zap.Logger) (*AMQPQueue, error) {
	dial := func() (publishLink, error) {
		conn, ch, err := dialExchange(url, exchange)
		if err != nil {
			return nil, err
		}
		return &amqpLink{conn: conn, ch: ch}, nil
	}
	return newAMQPQueue(dial, exchange, l)
}

func newAMQPQueue(dial func() (publishLink, error), exchange string, l *zap.Logger) (*AMQPQueue, error) {
	if l == nil {
		l = zap.NewNop()
	}
	q := &AMQPQueue{dial: dial, exchange: exchange, log: l, now: time.Now}
	if err := q.redial(); err != nil {
		return nil, err
	}
	return q, nil
}

func dialExchange(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

// redial 调用方持有 q.mu
func (q *AMQPQueue) redial() error {
	if q.link != nil {
		_ = q.link.Close()
		q.link = nil
	}
	q.lastDial = q.now()
	link, err := q.dial()
	if err != nil {
		return err
	}
	q.link = link
	return nil
}

// ensureLink 调用方持有 q.mu
func (q *AMQPQueue) ensureLink() error {
	if q.link != nil && !q.link.IsClosed() {
		return nil
	}
	if !q.lastDial.IsZero() && q.now().Sub(q.lastDial) < redialInterval {
		return fmt.Errorf("rabbitmq unavailable: %w", amqp.ErrClosed)
	}
	if err := q.redial(); err != nil {
		return err
	}
	q.log.Info("rabbitmq publisher reconnected", zap.String("exchange", q.exchange))
	return nil
}

func (q *AMQPQueue) Enqueue(ctx context.Context, m Mail) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	err = q.ensureLink()
	if err == nil {
		err = q.link.Publish(ctx, q.exchange, m.Kind, msg)
		// 通道在两次发布之间被 broker 关掉：重连后补发一次
		if errors.Is(err, amqp.ErrClosed) {
			if err = q.redial(); err == nil {
				q.log.Info("rabbitmq publisher reconnected", zap.String("exchange", q.exchange))
				err = q.link.Publish(ctx, q.exchange, m.Kind, msg)
			}
		}
	}
	if err != nil {
		mailTotal.WithLabelValues(m.Kind, "dropped").Inc()
		return fmt.Errorf("publish mail: %w", err)
	}
	mailTotal.WithLabelValues(m.Kind, "queued").Inc()
	return nil
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.link == nil {
		return nil
	}
	err := q.link.Close()
	q.link = nil
	return err
}

type ConsumerConfig struct {
	URL      string
	Exchange string
	Queue    string
	Bindings []string // 默认 mail.*
	Prefetch int
	Name     string
}

// Consumer 从队列取邮件交给 Mailer
type Consumer struct {
	cfg    ConsumerConfig
	mailer Mailer
	log    *zap.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(cfg ConsumerConfig, m Mailer, l *zap.Logger) *Consumer {
	if len(cfg.Bindings) == 0 {
		cfg.Bindings = []string{"mail.*"}
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}
	return &Consumer{cfg: cfg, mailer: m, log: l}
}

func (c *Consumer) Connect() error {
	conn, ch, err := dialExchange(c.cfg.URL, c.cfg.Exchange)
	if err != nil {
		return err
	}
	fail := func(err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("declare queue: %w", err))
	}
	for _, key := range c.cfg.Bindings {
		if err := ch.QueueBind(q.Name, key, c.cfg.Exchange, false, nil); err != nil {
			return fail(fmt.Errorf("bind %s: %w", key, err))
		}
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fail(fmt.Errorf("set qos: %w", err))
	}
	c.conn, c.ch = conn, ch
	return nil
}

func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.cfg.Queue, c.cfg.Name, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

// handle 解析失败直接丢弃；发送失败只重投一次
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var m Mail
	if err := json.Unmarshal(d.Body, &m); err != nil || m.To == "" {
		c.log.Warn("drop malformed mail", zap.String("key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if err := c.mailer.Send(ctx, m); err != nil {
		mailTotal.WithLabelValues(m.Kind, "failed").Inc()
		requeue := !d.Redelivered
		c.log.Warn("mail send failed", zap.String("kind", m.Kind), zap.Bool("requeue", requeue), zap.Error(err))
		_ = d.Nack(false, requeue)
		return
	}
	mailTotal.WithLabelValues(m.Kind, "sent").Inc()
	_ = d.Ack(false)
}
