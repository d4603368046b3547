package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"codehut/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmailSender struct {
	mu       sync.Mutex
	failures int
	sent     []string
	attempts int
}

func (f *fakeEmailSender) SendEmail(_ context.Context, to, _, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts++
	if f.attempts <= f.failures {
		return errors.New("smtp: 421 service not available")
	}
	f.sent = append(f.sent, to+"|"+body)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	keys     []string
	messages [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.messages = append(f.messages, value)
	return nil
}

func (f *fakePublisher) Close() {}

func newTestNotifier(sender *fakeEmailSender, publisher *fakePublisher) *notificationServiceImpl {
	return &notificationServiceImpl{
		emailSender:  sender,
		publisher:    publisher,
		maxAttempts:  3,
		initialDelay: time.Millisecond,
	}
}

func purchaseEvent() *dto.PurchaseEvent {
	return &dto.PurchaseEvent{
		TransactionID: "purchase-1",
		UserID:        "user-1",
		UserEmail:     "buyer@example.com",
		SnippetID:     "snippet-1",
		SnippetTitle:  "Worker pool",
		Amount:        decimal.NewFromInt(299),
		Currency:      "INR",
		Provider:      "razorpay",
	}
}

func TestNotification_PublishesAndEmails(t *testing.T) {
	sender := &fakeEmailSender{}
	publisher := &fakePublisher{}
	svc := newTestNotifier(sender, publisher)

	svc.PurchaseCompleted(context.Background(), purchaseEvent())
	svc.Wait()

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "user-1", publisher.keys[0])

	var got dto.PurchaseEvent
	require.NoError(t, json.Unmarshal(publisher.messages[0], &got))
	assert.Equal(t, "purchase-1", got.TransactionID)
	assert.True(t, decimal.NewFromInt(299).Equal(got.Amount))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "buyer@example.com|")
	assert.Contains(t, sender.sent[0], "Worker pool")
	assert.Contains(t, sender.sent[0], "299.00 INR")
}

func TestNotification_RetriesEmail(t *testing.T) {
	sender := &fakeEmailSender{failures: 2}
	svc := newTestNotifier(sender, &fakePublisher{})

	svc.deliver(context.Background(), purchaseEvent())

	assert.Equal(t, 3, sender.attempts)
	assert.Len(t, sender.sent, 1)
}

func TestNotification_GivesUpAfterMaxAttempts(t *testing.T) {
	sender := &fakeEmailSender{failures: 10}
	svc := newTestNotifier(sender, &fakePublisher{})

	err := svc.sendReceipt(context.Background(), purchaseEvent())
	assert.Error(t, err)
	assert.Equal(t, 3, sender.attempts)
	assert.Empty(t, sender.sent)
}

func TestNotification_PublishFailureStillEmails(t *testing.T) {
	sender := &fakeEmailSender{}
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := newTestNotifier(sender, publisher)

	svc.deliver(context.Background(), purchaseEvent())

	assert.Len(t, sender.sent, 1)
}

func TestNotification_SkipsEmailWithoutAddress(t *testing.T) {
	sender := &fakeEmailSender{}
	publisher := &fakePublisher{}
	svc := newTestNotifier(sender, publisher)

	event := purchaseEvent()
	event.UserEmail = ""
	svc.deliver(context.Background(), event)

	assert.Len(t, publisher.messages, 1)
	assert.Zero(t, sender.attempts)
}

func TestNotification_OutlivesRequestContext(t *testing.T) {
	sender := &fakeEmailSender{}
	svc := newTestNotifier(sender, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	svc.PurchaseCompleted(ctx, purchaseEvent())
	cancel()
	svc.Wait()

	assert.Len(t, sender.sent, 1)
}
