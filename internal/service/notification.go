package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"codehut/internal/client"
	"codehut/internal/dto"

	log "github.com/sirupsen/logrus"
)

const receiptSubject = "Your CodeHut purchase"

// NotificationService fans a completed purchase out to the buyer's inbox and the event stream.
type NotificationService interface {
	PurchaseCompleted(ctx context.Context, event *dto.PurchaseEvent)
	// Wait blocks until in-flight notifications have finished.
	Wait()
}

type notificationServiceImpl struct {
	emailSender  client.EmailSender
	publisher    client.EventPublisher
	maxAttempts  int
	initialDelay time.Duration
	wg           sync.WaitGroup
}

func NewNotificationService(emailSender client.EmailSender, publisher client.EventPublisher) NotificationService {
	return &notificationServiceImpl{
		emailSender:  emailSender,
		publisher:    publisher,
		maxAttempts:  3,
		initialDelay: time.Second,
	}
}

func (s *notificationServiceImpl) PurchaseCompleted(ctx context.Context, event *dto.PurchaseEvent) {
	// the request context ends with the response
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.deliver(ctx, event)
	}()
}

func (s *notificationServiceImpl) Wait() {
	s.wg.Wait()
}

func (s *notificationServiceImpl) deliver(ctx context.Context, event *dto.PurchaseEvent) {
	if err := s.publish(ctx, event); err != nil {
		log.WithError(err).WithField("transaction_id", event.TransactionID).Error("Failed to publish purchase event")
	}

	if event.UserEmail == "" {
		return
	}
	if err := s.sendReceipt(ctx, event); err != nil {
		log.WithError(err).WithField("email", event.UserEmail).Error("Failed to send purchase receipt")
	}
}

func (s *notificationServiceImpl) publish(ctx context.Context, event *dto.PurchaseEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode purchase event: %w", err)
	}
	return s.publisher.Publish(ctx, event.UserID, value)
}

func (s *notificationServiceImpl) sendReceipt(ctx context.Context, event *dto.PurchaseEvent) error {
	body := fmt.Sprintf(
		"Hello!\n\nYou now own \"%s\".\nAmount paid: %s %s\nTransaction ID: %s\n\nHappy coding!",
		event.SnippetTitle,
		event.Amount.StringFixed(2),
		event.Currency,
		event.TransactionID,
	)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	delay := s.initialDelay
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.emailSender.SendEmail(ctx, event.UserEmail, receiptSubject, body)
		if err == nil {
			if attempt > 1 {
				log.WithFields(log.Fields{
					"attempt":      attempt,
					"max_attempts": s.maxAttempts,
					"email":        event.UserEmail,
				}).Info("Receipt sent after retry")
			}
			return nil
		}

		if attempt < s.maxAttempts {
			log.WithFields(log.Fields{
				"attempt":      attempt,
				"max_attempts": s.maxAttempts,
				"error":        err,
				"email":        event.UserEmail,
			}).Warn("Failed to send receipt, retrying...")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
