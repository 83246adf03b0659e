package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// PlainRenderer простые текстовые уведомления
// Шаблоны с переводами подключаются отдельной реализацией Renderer
type PlainRenderer struct {
	SalonName string
	Location  *time.Location
}

// Render формирует сообщение для записи
func (r PlainRenderer) Render(kind domain.NotificationKind, a *domain.Appointment) Message {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	when := a.StartsAt(loc).Format("Mon, 02 Jan 2006 15:04")

	names := make([]string, 0, len(a.Services))
	for _, s := range a.Services {
		names = append(names, s.Name)
	}
	details := fmt.Sprintf("Appointment #%d\nWhen: %s\nServices: %s", a.ID, when, strings.Join(names, ", "))

	var subject, lead string
	switch kind {
	case domain.NotificationConfirmation:
		subject, lead = "Your appointment is confirmed", "Your appointment is confirmed."
	case domain.NotificationReminder:
		subject, lead = "Appointment reminder", "This is a reminder about your upcoming appointment."
	case domain.NotificationCancellation:
		subject, lead = "Your appointment is cancelled", "Your appointment has been cancelled."
	case domain.NotificationReschedule:
		subject, lead = "Your appointment was moved", "Your appointment has been rescheduled."
	default:
		subject, lead = "Appointment update", "Your appointment was updated."
	}
	if r.SalonName != "" {
		subject = r.SalonName + ": " + subject
	}

	return Message{
		Subject: subject,
		Body:    fmt.Sprintf("Hello, %s!\n\n%s\n\n%s", a.CustomerName, lead, details),
	}
}
