package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/googlecalendar"
)

const (
	opUpsert = "upsert"
	opDelete = "delete"

	outcomeOK        = "ok"
	outcomeSkipped   = "skipped"
	outcomeReconnect = "reconnect"
	outcomeFailed    = "failed"
)

// Reconciler синхронизирует записи с календарями мастеров
type Reconciler struct {
	provider        CalendarProvider
	appointmentRepo AppointmentRepository
	stylistRepo     StylistRepository
	metrics         Metrics
	location        *time.Location
	logger          Logger
}

// NewReconciler создает синхронизатор календарей
func NewReconciler(
	provider CalendarProvider,
	appointmentRepo AppointmentRepository,
	stylistRepo StylistRepository,
	metrics Metrics,
	location *time.Location,
	logger Logger,
) *Reconciler {
	if location == nil {
		location = time.UTC
	}
	return &Reconciler{
		provider:        provider,
		appointmentRepo: appointmentRepo,
		stylistRepo:     stylistRepo,
		metrics:         metrics,
		location:        location,
		logger:          logger,
	}
}

// Sync создает или обновляет событие записи в календаре мастера
// Возвращает ID события; nil без ошибки, если синхронизировать некуда
func (r *Reconciler) Sync(ctx context.Context, appointment *domain.Appointment, stylist *domain.Stylist) (*string, error) {
	if !r.syncable(appointment, stylist) {
		r.observe(opUpsert, outcomeSkipped)
		return nil, nil
	}

	conn := connection(stylist)
	ev := r.toEvent(appointment, stylist)

	existing := ""
	if appointment.CalendarEventID != nil {
		existing = *appointment.CalendarEventID
	}

	result, err := r.provider.UpsertEvent(ctx, conn, existing, ev)
	if errors.Is(err, googlecalendar.ErrEventNotFound) && existing != "" {
		// событие удалили в календаре: создаем заново
		r.logger.Warn("Sync: event %s of appointment_id=%d is gone, recreating", existing, appointment.ID)
		result, err = r.provider.UpsertEvent(ctx, conn, "", ev)
	}
	if err != nil {
		return nil, r.handleError(ctx, opUpsert, appointment, stylist, err)
	}

	r.persistToken(ctx, stylist, result.RefreshedToken)

	if existing != result.EventID {
		attached, err := r.appointmentRepo.AttachCalendarEvent(ctx, appointment.ID, result.EventID)
		if err != nil {
			return nil, fmt.Errorf("%w: Sync - save event id: %w", ErrRepository, err)
		}
		if !attached {
			// запись отменили, пока шел запрос к календарю: задача удаления события уже не увидит
			r.logger.Warn("Sync: appointment_id=%d is no longer scheduled, dropping event %s", appointment.ID, result.EventID)
			r.dropEvent(ctx, conn, result.EventID)
			r.observe(opUpsert, outcomeSkipped)
			return nil, nil
		}
		eventID := result.EventID
		appointment.CalendarEventID = &eventID
	}

	r.observe(opUpsert, outcomeOK)
	return &result.EventID, nil
}

// Remove удаляет событие записи; отсутствие события в календаре считается успехом
func (r *Reconciler) Remove(ctx context.Context, appointment *domain.Appointment, stylist *domain.Stylist) error {
	if appointment.CalendarEventID == nil || !r.syncable(appointment, stylist) {
		r.observe(opDelete, outcomeSkipped)
		return nil
	}

	result, err := r.provider.DeleteEvent(ctx, connection(stylist), *appointment.CalendarEventID)
	switch {
	case errors.Is(err, googlecalendar.ErrEventNotFound):
	case err != nil:
		return r.handleError(ctx, opDelete, appointment, stylist, err)
	default:
		r.persistToken(ctx, stylist, result.RefreshedToken)
	}

	if err := r.appointmentRepo.SetCalendarEventID(ctx, appointment.ID, nil); err != nil {
		return fmt.Errorf("%w: Remove - clear event id: %w", ErrRepository, err)
	}
	appointment.CalendarEventID = nil

	r.observe(opDelete, outcomeOK)
	return nil
}

// Move переносит событие записи в календарь нового мастера
// Событие в календаре прежнего мастера удаляется; ссылка сбрасывается, даже если прежний календарь недоступен
func (r *Reconciler) Move(ctx context.Context, appointment *domain.Appointment, from, to *domain.Stylist) (*string, error) {
	if appointment.CalendarEventID != nil {
		previous := *appointment
		previous.StylistID = nil
		if from != nil {
			previous.StylistID = &from.ID
		}
		if err := r.Remove(ctx, &previous, from); err != nil {
			return nil, err
		}
		if previous.CalendarEventID != nil {
			r.logger.Warn("Move: event %s of appointment_id=%d left in unreachable calendar", *previous.CalendarEventID, appointment.ID)
			if err := r.appointmentRepo.SetCalendarEventID(ctx, appointment.ID, nil); err != nil {
				return nil, fmt.Errorf("%w: Move - clear event id: %w", ErrRepository, err)
			}
		}
		appointment.CalendarEventID = nil
	}

	if appointment.Status != domain.StatusScheduled {
		return nil, nil
	}
	return r.Sync(ctx, appointment, to)
}

func (r *Reconciler) dropEvent(ctx context.Context, conn googlecalendar.Connection, eventID string) {
	if _, err := r.provider.DeleteEvent(ctx, conn, eventID); err != nil && !errors.Is(err, googlecalendar.ErrEventNotFound) {
		r.logger.Error("dropEvent: failed to delete event %s: %v", eventID, err)
	}
}

func (r *Reconciler) syncable(appointment *domain.Appointment, stylist *domain.Stylist) bool {
	if appointment.StylistID == nil || stylist == nil || stylist.ID != *appointment.StylistID {
		return false
	}
	return stylist.HasCalendar() && !stylist.Calendar.NeedsReconnect
}

// handleError: протухший токен переводит мастера в needs reconnect и не считается ошибкой
func (r *Reconciler) handleError(ctx context.Context, op string, appointment *domain.Appointment, stylist *domain.Stylist, err error) error {
	if errors.Is(err, googlecalendar.ErrTokenInvalid) {
		r.logger.Warn("%s: calendar token of stylist_id=%d is invalid, reconnect required: %v", op, stylist.ID, err)
		if setErr := r.stylistRepo.SetCalendarNeedsReconnect(ctx, stylist.ID, true); setErr != nil {
			r.logger.Error("%s: failed to flag stylist_id=%d for reconnect: %v", op, stylist.ID, setErr)
		}
		stylist.Calendar.NeedsReconnect = true
		r.observe(op, outcomeReconnect)
		return nil
	}

	r.observe(op, outcomeFailed)
	return fmt.Errorf("%w: %s - appointment_id=%d: %v", ErrProvider, op, appointment.ID, err)
}

func (r *Reconciler) persistToken(ctx context.Context, stylist *domain.Stylist, token *googlecalendar.Token) {
	if token == nil {
		return
	}
	if err := r.stylistRepo.UpdateCalendarToken(ctx, stylist.ID, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
		r.logger.Warn("persistToken: stylist_id=%d: %v", stylist.ID, err)
		return
	}
	stylist.Calendar.AccessToken = token.AccessToken
	stylist.Calendar.RefreshToken = token.RefreshToken
	stylist.Calendar.TokenExpiry = token.Expiry
}

func (r *Reconciler) toEvent(a *domain.Appointment, stylist *domain.Stylist) googlecalendar.Event {
	names := make([]string, 0, len(a.Services))
	for _, s := range a.Services {
		names = append(names, s.Name)
	}

	return googlecalendar.Event{
		AppointmentID: a.ID,
		Summary:       fmt.Sprintf("%s: %s", a.CustomerName, strings.Join(names, ", ")),
		Description:   fmt.Sprintf("Appointment #%d with %s\nCustomer: %s <%s>", a.ID, stylist.Name, a.CustomerName, a.CustomerEmail),
		Start:         a.StartsAt(r.location),
		End:           a.EndsAt(r.location),
		TimeZone:      r.location.String(),
	}
}

func (r *Reconciler) observe(op, outcome string) {
	if r.metrics != nil {
		r.metrics.IncCalendarSync(op, outcome)
	}
}

func connection(stylist *domain.Stylist) googlecalendar.Connection {
	return googlecalendar.Connection{
		CalendarID: stylist.Calendar.CalendarID,
		Token: googlecalendar.Token{
			AccessToken:  stylist.Calendar.AccessToken,
			RefreshToken: stylist.Calendar.RefreshToken,
			Expiry:       stylist.Calendar.TokenExpiry,
		},
	}
}

// Disabled синхронизатор для салона без интеграции с календарем
type Disabled struct{}

// Sync ничего не делает
func (Disabled) Sync(context.Context, *domain.Appointment, *domain.Stylist) (*string, error) {
	return nil, nil
}

// Move ничего не делает
func (Disabled) Move(context.Context, *domain.Appointment, *domain.Stylist, *domain.Stylist) (*string, error) {
	return nil, nil
}

// Remove ничего не делает
func (Disabled) Remove(context.Context, *domain.Appointment, *domain.Stylist) error { return nil }
