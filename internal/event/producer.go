package event

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types published to the booking topic.
const (
	TypeBookingCreated  = "booking_created"
	TypeBookingReleased = "booking_released"
	TypeBookingExpired  = "booking_expired"
)

// BookingEvent is the message body published on every booking lifecycle
// transition. Messages are keyed by booking id so per-booking ordering is
// preserved within a partition.
type BookingEvent struct {
	Type      string    `json:"type"`
	BookingID int64     `json:"booking_id"`
	SlotID    int64     `json:"slot_id"`
	UserID    string    `json:"user_id,omitempty"`
	Status    string    `json:"status"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// Producer publishes booking events to Kafka.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a producer for the given brokers and topic.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger,
	}
}

// Publish writes a single booking event. Failures are returned to the
// caller; the booking itself is already committed by then.
func (p *Producer) Publish(ctx context.Context, ev BookingEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.BookingID, 10)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	p.logger.Debug("booking event published",
		zap.String("type", ev.Type),
		zap.Int64("booking_id", ev.BookingID))
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
