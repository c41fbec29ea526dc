package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/simonwachira/checkout-service/internal/events"
	"github.com/simonwachira/checkout-service/internal/interfaces"
	"github.com/simonwachira/checkout-service/internal/models"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

// Notifier consumes checkout.notify messages, persists in-app notification
// rows and forwards email payloads to the external mailer's subject. A slow
// or failing mailer never blocks the payment state machine; everything here
// is best-effort.
type Notifier struct {
	notifications interfaces.NotificationRepository
	publish       func(subject string, data []byte) error
	now           func() time.Time
}

func NewNotifier(notifications interfaces.NotificationRepository, nc *nats.Conn) *Notifier {
	return &Notifier{
		notifications: notifications,
		publish:       nc.Publish,
		now:           time.Now,
	}
}

// Run subscribes and blocks until the context is cancelled.
func (n *Notifier) Run(ctx context.Context, nc *nats.Conn) error {
	sub, err := nc.Subscribe(events.SubjectNotify, func(msg *nats.Msg) {
		if err := n.Handle(ctx, msg.Data); err != nil {
			telemetry.Logger.Error("notification handling failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.SubjectNotify, err)
	}
	defer sub.Unsubscribe()

	telemetry.Logger.Info("notifier started", zap.String("subject", events.SubjectNotify))
	<-ctx.Done()
	return nil
}

func (n *Notifier) Handle(ctx context.Context, data []byte) error {
	var msg models.NotifyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("unmarshal notify message: %w", err)
	}
	if msg.UserID == "" {
		return fmt.Errorf("notify message without user id")
	}

	if err := n.notifications.Insert(ctx, &models.Notification{
		ID:        uuid.NewString(),
		UserID:    msg.UserID,
		Kind:      msg.Kind,
		Title:     msg.Title,
		Body:      msg.Body,
		CreatedAt: n.now().UTC(),
	}); err != nil {
		telemetry.Logger.Error("persist notification failed",
			zap.String("user_id", msg.UserID), zap.Error(err))
	}

	if msg.SendEmail && msg.Email != "" {
		email, err := json.Marshal(map[string]string{
			"to":      msg.Email,
			"subject": msg.Title,
			"body":    msg.Body,
		})
		if err != nil {
			return err
		}
		if err := n.publish(events.SubjectEmail, email); err != nil {
			telemetry.Logger.Warn("forward email failed",
				zap.String("user_id", msg.UserID), zap.Error(err))
		}
	}

	return nil
}
