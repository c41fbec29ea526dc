package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/simonwachira/checkout-service/internal/models"
)

// SubjectNotify is consumed by the in-process notifier worker.
// SubjectEmail is consumed by the external mailer.
const (
	SubjectNotify = "checkout.notify"
	SubjectEmail  = "checkout.email"
)

type NatsNotifier struct {
	nc *nats.Conn
}

func NewNatsNotifier(nc *nats.Conn) *NatsNotifier {
	return &NatsNotifier{nc: nc}
}

func (n *NatsNotifier) PublishNotify(_ context.Context, msg models.NotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notify message: %w", err)
	}
	return n.nc.Publish(SubjectNotify, data)
}
