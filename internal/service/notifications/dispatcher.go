package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	contactRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/contact"
)

const (
	outcomeSent        = "sent"
	outcomeFailed      = "failed"
	outcomeUndelivered = "undelivered"
)

// Dispatcher отправляет уведомления по первому доступному каналу
// с переходом к следующему каналу при ошибке
type Dispatcher struct {
	channels    []Channel
	renderer    Renderer
	contactRepo ContactRepository
	metrics     Metrics
	cfg         Config
	logger      Logger
}

// NewDispatcher создает диспетчер; порядок каналов задает приоритет
func NewDispatcher(channels []Channel, renderer Renderer, contactRepo ContactRepository, metrics Metrics, cfg Config, logger Logger) *Dispatcher {
	return &Dispatcher{
		channels:    channels,
		renderer:    renderer,
		contactRepo: contactRepo,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
	}
}

// Send отправляет уведомление получателю
// Ошибка канала не прерывает отправку: пробуется следующий канал
func (d *Dispatcher) Send(ctx context.Context, kind domain.NotificationKind, recipient domain.Recipient, appointment *domain.Appointment) (Result, error) {
	message := d.renderer.Render(kind, appointment)

	var result Result
	for _, ch := range d.channels {
		if !ch.CanReach(recipient) {
			continue
		}

		err := d.sendOne(ctx, ch, recipient, message)
		result.Attempts = append(result.Attempts, Attempt{Channel: ch.Name(), Err: err})
		if err == nil {
			result.Sent = true
			result.Channel = ch.Name()
			d.observe(kind, ch.Name(), outcomeSent)
			return result, nil
		}

		d.observe(kind, ch.Name(), outcomeFailed)
		d.logger.Warn("Send: %s via %s failed for appointment_id=%d: %v", kind, ch.Name(), appointment.ID, err)
	}

	d.observe(kind, "", outcomeUndelivered)
	if len(result.Attempts) == 0 {
		return result, fmt.Errorf("%w: appointment_id=%d", ErrNoChannel, appointment.ID)
	}
	return result, fmt.Errorf("%w: appointment_id=%d, attempts=%d", ErrNotDelivered, appointment.ID, len(result.Attempts))
}

// Notify находит контакты клиента записи и отправляет уведомление
func (d *Dispatcher) Notify(ctx context.Context, kind domain.NotificationKind, appointment *domain.Appointment) (Result, error) {
	recipient, err := d.ResolveRecipient(ctx, appointment)
	if err != nil {
		return Result{}, err
	}
	return d.Send(ctx, kind, recipient, appointment)
}

// ResolveRecipient собирает адреса клиента; без привязок остается только email
func (d *Dispatcher) ResolveRecipient(ctx context.Context, appointment *domain.Appointment) (domain.Recipient, error) {
	if d.contactRepo == nil {
		return domain.RecipientFor(appointment, nil), nil
	}

	contact, err := d.contactRepo.FindByCustomer(ctx, appointment.CustomerEmail, appointment.CustomerUserID)
	if err != nil && !errors.Is(err, contactRepo.ErrContactNotFound) {
		return domain.Recipient{}, fmt.Errorf("ResolveRecipient - appointment_id=%d: %w", appointment.ID, err)
	}
	return domain.RecipientFor(appointment, contact), nil
}

func (d *Dispatcher) sendOne(ctx context.Context, ch Channel, recipient domain.Recipient, message Message) error {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}
	return ch.Send(ctx, recipient, message)
}

func (d *Dispatcher) observe(kind domain.NotificationKind, channel domain.Channel, outcome string) {
	if d.metrics != nil {
		d.metrics.IncNotification(string(kind), string(channel), outcome)
	}
}
