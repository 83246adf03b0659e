package notifications

import (
	"context"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// Channel канал доставки уведомлений
type Channel interface {
	Name() domain.Channel
	// CanReach true, если у получателя есть адрес в этом канале и канал настроен
	CanReach(recipient domain.Recipient) bool
	Send(ctx context.Context, recipient domain.Recipient, message Message) error
}

// Renderer формирует текст уведомления
type Renderer interface {
	Render(kind domain.NotificationKind, appointment *domain.Appointment) Message
}

// ContactRepository интерфейс репозитория привязок к мессенджерам
type ContactRepository interface {
	FindByCustomer(ctx context.Context, email string, userID *int64) (*domain.CustomerContact, error)
}

// TelegramSender интерфейс клиента Telegram Bot API
type TelegramSender interface {
	Configured() bool
	SendMessage(ctx context.Context, chatID, text string) error
}

// LineSender интерфейс клиента LINE Messaging API
type LineSender interface {
	Configured() bool
	Push(ctx context.Context, userID, text string) error
}

// EmailSender интерфейс почтового клиента
type EmailSender interface {
	Configured() bool
	Send(ctx context.Context, to, subject, body string) error
}

// Metrics интерфейс метрик уведомлений
type Metrics interface {
	IncNotification(kind, channel, outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
