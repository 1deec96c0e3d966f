package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/config"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func setupQueue(t *testing.T) (*miniredis.Miniredis, *RedisQueue) {
	logger.Init(false)

	mr, err := miniredis.Run()
	require.NoError(t, err)

	q, err := NewRedisQueue("redis://"+mr.Addr(), "test:outbox")
	require.NoError(t, err)

	t.Cleanup(func() {
		q.Close()
		mr.Close()
	})
	return mr, q
}

func TestConfirmationMessage(t *testing.T) {
	msg := ConfirmationMessage("alice@example.com", "alice", "0123456789")

	assert.Equal(t, "alice@example.com", msg.To)
	assert.NotEmpty(t, msg.Subject)
	assert.Contains(t, msg.Body, "0123456789")
	assert.Contains(t, msg.Body, "alice")
}

func TestRedisQueue_SendAndPop(t *testing.T) {
	_, q := setupQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, Message{To: "a@example.com", Subject: "first"}))
	require.NoError(t, q.Send(ctx, Message{To: "b@example.com", Subject: "second"}))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	msg, err := q.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "first", msg.Subject, "queue is FIFO")

	msg, err = q.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "second", msg.Subject)
}

func TestRedisQueue_PopCorruptPayload(t *testing.T) {
	mr, q := setupQueue(t)

	_, err := mr.Push("test:outbox", "{not json")
	require.NoError(t, err)

	msg, err := q.Pop(context.Background(), 100*time.Millisecond)
	assert.Error(t, err)
	assert.Nil(t, msg)
}

func TestNewRedisQueue_BadURL(t *testing.T) {
	_, err := NewRedisQueue("not-a-url", "")
	assert.Error(t, err)
}

func TestDispatcher_DeliversUntilCancelled(t *testing.T) {
	_, q := setupQueue(t)
	sender := &recordingSender{err: errors.New("smtp down")}

	d := NewDispatcher(q, sender)
	d.pollTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Send(context.Background(), Message{To: "x@example.com", Subject: "code"}))
	}

	assert.Eventually(t, func() bool { return sender.count() == 3 }, 2*time.Second, 10*time.Millisecond,
		"failed deliveries are dropped, not retried forever")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop after cancel")
	}
}

// ctxSender records the state of the context it was handed.
type ctxSender struct {
	ctxErr      error
	hasDeadline bool
	calls       int
}

func (c *ctxSender) Send(ctx context.Context, _ Message) error {
	c.calls++
	c.ctxErr = ctx.Err()
	_, c.hasDeadline = ctx.Deadline()
	return ctx.Err()
}

func TestDispatcher_PoppedMessageSurvivesShutdown(t *testing.T) {
	_, q := setupQueue(t)
	sender := &ctxSender{}
	d := NewDispatcher(q, sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.deliver(ctx, Message{To: "x@example.com", Subject: "code"})

	require.Equal(t, 1, sender.calls)
	assert.NoError(t, sender.ctxErr, "shutdown must not cancel an in-flight delivery")
	assert.True(t, sender.hasDeadline, "delivery is still bounded by a timeout")
}

func TestSMTPSender_UnconfiguredLogsInstead(t *testing.T) {
	logger.Init(false)
	s := NewSMTPSender(config.MailConfig{})
	called := false
	s.dial = func(*gomail.Message) error {
		called = true
		return nil
	}

	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "s", Body: "b"})
	assert.NoError(t, err)
	assert.False(t, called, "no SMTP dial without a host")
}

func TestSMTPSender_DialError(t *testing.T) {
	logger.Init(false)
	s := NewSMTPSender(config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 25, From: "no-reply@example.com"})
	s.dial = func(*gomail.Message) error { return errors.New("connection refused") }

	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "s", Body: "b"})
	assert.ErrorContains(t, err, "connection refused")

	err = s.Send(context.Background(), Message{To: " "})
	assert.Error(t, err)
}
