package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hyperjump/crmsheet/internal/models"
)

// Publisher is the subset of *amqp.Channel used by AMQPSink.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes each table as a persistent JSON message.
type AMQPSink struct {
	pub        Publisher
	exchange   string
	routingKey string
	closers    []func() error
}

// NewAMQPSink returns a sink publishing through pub.
func NewAMQPSink(pub Publisher, exchange, routingKey string) *AMQPSink {
	return &AMQPSink{pub: pub, exchange: exchange, routingKey: routingKey}
}

// DialAMQP connects to url, opens a channel and returns a sink that owns both.
// Close releases them.
func DialAMQP(url, exchange, routingKey string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	s := NewAMQPSink(ch, exchange, routingKey)
	s.closers = []func() error{ch.Close, conn.Close}
	return s, nil
}

// Accept publishes table to the configured exchange and routing key.
func (s *AMQPSink) Accept(ctx context.Context, table *models.ExtractedTable) error {
	msg, err := publishing(table)
	if err != nil {
		return err
	}
	if err := s.pub.PublishWithContext(ctx, s.exchange, s.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close releases the connection opened by DialAMQP.
func (s *AMQPSink) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func publishing(table *models.ExtractedTable) (amqp.Publishing, error) {
	body, err := json.Marshal(table)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal table: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Type:         "crmsheet.table",
		Headers: amqp.Table{
			"record_id": table.RecordID,
			"sheet":     table.Sheet,
			"range":     table.Range,
		},
		Body: body,
	}, nil
}
