package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// ErrPublish ошибка публикации события
var ErrPublish = errors.New("events publisher: failed to publish")

// Type тип события жизненного цикла записи
type Type string

const (
	TypeScheduled   Type = "appointment.scheduled"
	TypeRescheduled Type = "appointment.rescheduled"
	TypeCancelled   Type = "appointment.cancelled"
	TypeCompleted   Type = "appointment.completed"
)

// Event событие жизненного цикла записи
type Event struct {
	ID            string                   `json:"event_id"`
	Type          Type                     `json:"event_type"`
	OccurredAt    time.Time                `json:"occurred_at"`
	AppointmentID int64                    `json:"appointment_id"`
	Status        domain.AppointmentStatus `json:"status"`
	StylistID     *int64                   `json:"stylist_id,omitempty"`
	Date          string                   `json:"date"`
	StartTime     string                   `json:"start_time"`
	CustomerEmail string                   `json:"customer_email"`
	CancelledBy   *domain.CancelledBy      `json:"cancelled_by,omitempty"`
}

// NewEvent создает событие по состоянию записи
func NewEvent(eventType Type, a *domain.Appointment, at time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		OccurredAt:    at.UTC(),
		AppointmentID: a.ID,
		Status:        a.Status,
		StylistID:     a.StylistID,
		Date:          a.Date.Format(domain.DateFormat),
		StartTime:     a.StartTime.String(),
		CustomerEmail: a.CustomerEmail,
		CancelledBy:   a.CancelledBy,
	}
}

// Publisher публикует события для внешних потребителей (отзывы, аналитика)
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher публикация в Kafka; ключ сообщения = ID записи
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher создает publisher поверх kafka.Writer
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish отправляет событие
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPublish, event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.AppointmentID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: %s appointment_id=%d: %v", ErrPublish, event.Type, event.AppointmentID, err)
	}
	return nil
}

// Close закрывает writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher используется, когда брокеры не настроены
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
