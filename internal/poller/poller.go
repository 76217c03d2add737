// Package poller consumes completed checkouts and empties the buyer's cart.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	consumerGroup = "back-ecommerce-cart-consumer"
	errorBackoff  = time.Second
)

// CartClearer removes a user's cart. Missing carts are not an error.
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

// MessageReader is the part of *kafka.Reader the poller needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type checkoutEvent struct {
	CheckoutID string `json:"checkout_id"`
	UserID     string `json:"user_id"`
}

type Poller struct {
	carts  CartClearer
	reader MessageReader
	log    logrus.FieldLogger
}

func NewKafkaReader(topic string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  consumerGroup,
		MaxBytes: 10e6, // 10MB
	})
}

func NewPoller(carts CartClearer, reader MessageReader, log logrus.FieldLogger) *Poller {
	return &Poller{carts: carts, reader: reader, log: log}
}

// Run processes messages until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.WithError(err).Warn("error reading checkout message")
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.WithError(err).Warn("error closing checkout reader")
	}
}

// poll handles one message. Only read failures are returned; bad payloads are
// logged and skipped so they cannot block the partition.
func (p *Poller) poll(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		return err
	}

	var event checkoutEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.log.WithError(err).WithField("offset", m.Offset).Warn("skipping unparseable checkout message")
		return nil
	}
	if event.UserID == "" {
		p.log.WithField("offset", m.Offset).Warn("skipping checkout message without user_id")
		return nil
	}

	if err := p.carts.ClearCart(ctx, event.UserID); err != nil && !errors.Is(err, context.Canceled) {
		p.log.WithError(err).WithFields(logrus.Fields{
			"user_id":     event.UserID,
			"checkout_id": event.CheckoutID,
		}).Error("failed to clear cart after checkout")
		return nil
	}

	p.log.WithFields(logrus.Fields{"user_id": event.UserID, "checkout_id": event.CheckoutID}).Info("cart cleared after checkout")
	return nil
}
