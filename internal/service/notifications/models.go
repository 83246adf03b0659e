package notifications

import (
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// Message готовое уведомление
type Message struct {
	Subject string
	Body    string
}

// Text текст для мессенджеров
func (m Message) Text() string {
	if m.Subject == "" {
		return m.Body
	}
	return m.Subject + "\n\n" + m.Body
}

// Attempt попытка отправки через канал
type Attempt struct {
	Channel domain.Channel
	Err     error
}

// Result итог отправки
type Result struct {
	Sent     bool
	Channel  domain.Channel // канал, доставивший уведомление
	Attempts []Attempt
}

// Config параметры диспетчера
type Config struct {
	Timeout time.Duration // ограничение на одну отправку
}
