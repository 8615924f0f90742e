package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wedding-venues-api/internal/domain"
)

type recMailer struct {
	mu    sync.Mutex
	got   []Mail
	err   error
	block chan struct{}
}

func (r *recMailer) Send(_ context.Context, m Mail) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, m)
	return r.err
}

func (r *recMailer) sent() []Mail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Mail(nil), r.got...)
}

type memQueue struct{ got []Mail }

func (q *memQueue) Enqueue(_ context.Context, m Mail) error {
	q.got = append(q.got, m)
	return nil
}

func TestPoolDeliversAndDrainsOnClose(t *testing.T) {
	m := &recMailer{}
	p := NewPool(m, 2, 16, zap.NewNop())
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Enqueue(context.Background(), Mail{Kind: KindVerifyEmail, To: "a@example.com"}))
	}
	require.NoError(t, p.Close())
	assert.Len(t, m.sent(), 5)

	assert.ErrorIs(t, p.Enqueue(context.Background(), Mail{}), ErrQueueClosed)
	assert.NoError(t, p.Close())
}

func TestPoolDropsWhenFull(t *testing.T) {
	m := &recMailer{block: make(chan struct{})}
	p := NewPool(m, 1, 1, zap.NewNop())

	// worker 取走第一封后阻塞，第二封占满缓冲
	require.NoError(t, p.Enqueue(context.Background(), Mail{To: "1"}))
	require.Eventually(t, func() bool { return len(p.ch) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Enqueue(context.Background(), Mail{To: "2"}))
	assert.ErrorIs(t, p.Enqueue(context.Background(), Mail{To: "3"}), ErrQueueFull)

	close(m.block)
	require.NoError(t, p.Close())
	assert.Len(t, m.sent(), 2)
}

func TestPoolSendFailureDoesNotStopWorker(t *testing.T) {
	m := &recMailer{err: errors.New("smtp down")}
	p := NewPool(m, 1, 4, zap.NewNop())
	require.NoError(t, p.Enqueue(context.Background(), Mail{To: "1"}))
	require.NoError(t, p.Enqueue(context.Background(), Mail{To: "2"}))
	require.NoError(t, p.Close())
	assert.Len(t, m.sent(), 2)
}

func TestNotifierRendersMail(t *testing.T) {
	q := &memQueue{}
	n := NewNotifier(q, "https://venues.example.com/", zap.NewNop())
	u := &domain.User{ID: "u1", FirstName: "<Ada>", Email: "ada@example.com", EmailToken: "abc123"}

	n.SendVerification(context.Background(), u)
	n.SendSubscriptionConfirmed(context.Background(), u)

	require.Len(t, q.got, 2)
	v := q.got[0]
	assert.Equal(t, KindVerifyEmail, v.Kind)
	assert.Equal(t, "ada@example.com", v.To)
	assert.Equal(t, "Verify your email...", v.Subject)
	assert.Contains(t, v.HTML, "https://venues.example.com/verify-email?emailToken=abc123")
	assert.Contains(t, v.HTML, "&lt;Ada&gt;")

	s := q.got[1]
	assert.Equal(t, KindSubscription, s.Kind)
	assert.Equal(t, "Subscription successful!", s.Subject)
	assert.Contains(t, s.HTML, "https://venues.example.com/add-venue")
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}
func (f *fakeAck) Reject(uint64, bool) error { f.nacked = true; return nil }

func delivery(t *testing.T, body any, redelivered bool) (amqp.Delivery, *fakeAck) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	a := &fakeAck{}
	return amqp.Delivery{Acknowledger: a, Body: b, RoutingKey: KindVerifyEmail, Redelivered: redelivered}, a
}

func TestConsumerHandle(t *testing.T) {
	ok := &recMailer{}
	c := NewConsumer(ConsumerConfig{}, ok, zap.NewNop())
	d, a := delivery(t, Mail{Kind: KindVerifyEmail, To: "a@example.com"}, false)
	c.handle(context.Background(), d)
	assert.True(t, a.acked)
	assert.Len(t, ok.sent(), 1)

	// 格式错误：丢弃
	a = &fakeAck{}
	c.handle(context.Background(), amqp.Delivery{Acknowledger: a, Body: []byte("{")})
	assert.True(t, a.nacked)
	assert.False(t, a.requeued)

	// 发送失败：首次重投，再失败丢弃
	bad := NewConsumer(ConsumerConfig{}, &recMailer{err: errors.New("down")}, zap.NewNop())
	d, a = delivery(t, Mail{To: "a@example.com"}, false)
	bad.handle(context.Background(), d)
	assert.True(t, a.requeued)
	d, a = delivery(t, Mail{To: "a@example.com"}, true)
	bad.handle(context.Background(), d)
	assert.True(t, a.nacked)
	assert.False(t, a.requeued)
}

type fakeLink struct {
	closed    bool
	publishes int
	err       error
}

func (f *fakeLink) Publish(context.Context, string, string, amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.publishes++
	return nil
}
func (f *fakeLink) IsClosed() bool { return f.closed }
func (f *fakeLink) Close() error   { f.closed = true; return nil }

type fakeDialer struct {
	links []*fakeLink
	fail  bool
}

func (d *fakeDialer) dial() (publishLink, error) {
	if d.fail {
		return nil, errors.New("connection refused")
	}
	l := &fakeLink{}
	d.links = append(d.links, l)
	return l, nil
}

func TestAMQPQueueRedialsAfterBrokerRestart(t *testing.T) {
	d := &fakeDialer{}
	q, err := newAMQPQueue(d.dial, "mail", zap.NewNop())
	require.NoError(t, err)
	clock := time.Unix(1000, 0)
	q.now = func() time.Time { return clock }
	q.lastDial = clock
	ctx := context.Background()
	m := Mail{Kind: KindVerifyEmail, To: "a@example.com"}

	require.NoError(t, q.Enqueue(ctx, m))
	require.Len(t, d.links, 1)
	assert.Equal(t, 1, d.links[0].publishes)

	// 连接被关闭：下一次发布前重连
	d.links[0].closed = true
	clock = clock.Add(2 * time.Second)
	require.NoError(t, q.Enqueue(ctx, m))
	require.Len(t, d.links, 2)
	assert.Equal(t, 1, d.links[1].publishes)

	// 发布时才发现通道已关：重连并补发一次
	d.links[1].err = amqp.ErrClosed
	require.NoError(t, q.Enqueue(ctx, m))
	require.Len(t, d.links, 3)
	assert.Equal(t, 1, d.links[2].publishes)
	assert.True(t, d.links[1].closed)

	// broker 不可用：失败，且间隔内不重复拨号
	d.links[2].closed = true
	d.fail = true
	clock = clock.Add(2 * time.Second)
	assert.Error(t, q.Enqueue(ctx, m))
	assert.Error(t, q.Enqueue(ctx, m))
	assert.Len(t, d.links, 3)

	// broker 恢复
	d.fail = false
	clock = clock.Add(2 * time.Second)
	require.NoError(t, q.Enqueue(ctx, m))
	require.Len(t, d.links, 4)
	assert.NoError(t, q.Close())
}

func TestNewAMQPQueueDialFailure(t *testing.T) {
	_, err := newAMQPQueue((&fakeDialer{fail: true}).dial, "mail", nil)
	assert.Error(t, err)
}
