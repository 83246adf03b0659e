package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// AppointmentRepository in-memory репозиторий записей
type AppointmentRepository struct {
	st *state
}

// Create сохраняет запись; пересечение с активной записью того же мастера отклоняется
func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if r.overlapsLocked(a, 0) {
		return nil, appointmentRepo.ErrOverlap
	}

	a.ID = r.st.id()
	r.st.touch(ctx, entityAppointment, a.ID)
	a.CreatedAt = r.st.now()
	a.UpdatedAt = a.CreatedAt
	r.st.appointments[a.ID] = copyAppointment(a)

	return a, nil
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	a, ok := r.st.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	return copyAppointment(a), nil
}

// List получает записи по фильтру
func (r *AppointmentRepository) List(_ context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	result := make([]*domain.Appointment, 0)
	for _, a := range r.st.appointments {
		if matches(a, filter) {
			result = append(result, copyAppointment(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		ki, kj := startKey(result[i]), startKey(result[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return result[i].ID < result[j].ID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Transition выполняет условный переход статуса
func (r *AppointmentRepository) Transition(ctx context.Context, t domain.StatusTransition) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	a, ok := r.st.appointments[t.AppointmentID]
	if !ok || !containsStatus(t.From, a.Status) {
		return false, nil
	}

	r.st.touch(ctx, entityAppointment, a.ID)
	at := t.At
	a.Status = t.To
	a.UpdatedAt = at

	switch t.To {
	case domain.StatusScheduled:
		a.HoldExpiresAt = nil
	case domain.StatusCompleted:
		a.CompletedAt = &at
	case domain.StatusCancelled:
		a.CancelledAt = &at
		a.CancellationReason = t.Reason
		a.CancelledBy = t.CancelledBy
	}

	return true, nil
}

// Reschedule переносит запись
func (r *AppointmentRepository) Reschedule(ctx context.Context, id int64, date time.Time, start types.TimeString, stylistID *int64) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	a, ok := r.st.appointments[id]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}

	moved := copyAppointment(a)
	moved.Date = date
	moved.StartTime = start
	moved.StylistID = stylistID
	if r.overlapsLocked(moved, id) {
		return appointmentRepo.ErrOverlap
	}

	moved.ReminderSentAt = nil
	moved.ReminderClaimedAt = nil
	moved.UpdatedAt = r.st.now()
	r.st.touch(ctx, entityAppointment, id)
	r.st.appointments[id] = moved

	return nil
}

// SetCalendarEventID сохраняет ссылку на событие календаря
func (r *AppointmentRepository) SetCalendarEventID(ctx context.Context, id int64, eventID *string) error {
	return r.update(ctx, id, func(a *domain.Appointment) {
		if eventID == nil {
			a.CalendarEventID = nil
			return
		}
		v := *eventID
		a.CalendarEventID = &v
	})
}

// AttachCalendarEvent сохраняет ссылку на событие, если запись в статусе scheduled
func (r *AppointmentRepository) AttachCalendarEvent(ctx context.Context, id int64, eventID string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	a, ok := r.st.appointments[id]
	if !ok || a.Status != domain.StatusScheduled {
		return false, nil
	}
	r.st.touch(ctx, entityAppointment, id)
	a.CalendarEventID = &eventID
	a.UpdatedAt = r.st.now()
	return true, nil
}

// SetDepositID привязывает депозит
func (r *AppointmentRepository) SetDepositID(ctx context.Context, id int64, depositID int64) error {
	return r.update(ctx, id, func(a *domain.Appointment) {
		a.DepositID = &depositID
	})
}

// MarkReminderSent отмечает отправку напоминания
func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, func(a *domain.Appointment) {
		a.ReminderSentAt = &at
	})
}

// ReleaseReminderClaim снимает захват напоминания
func (r *AppointmentRepository) ReleaseReminderClaim(ctx context.Context, id int64) error {
	return r.update(ctx, id, func(a *domain.Appointment) {
		a.ReminderClaimedAt = nil
	})
}

// ClaimReminder захватывает запись для отправки напоминания
func (r *AppointmentRepository) ClaimReminder(ctx context.Context, id int64, now, staleBefore time.Time) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	a, ok := r.st.appointments[id]
	if !ok || a.Status != domain.StatusScheduled || a.ReminderSentAt != nil {
		return false, nil
	}
	if a.ReminderClaimedAt != nil && !a.ReminderClaimedAt.Before(staleBefore) {
		return false, nil
	}

	r.st.touch(ctx, entityAppointment, id)
	a.ReminderClaimedAt = &now
	return true, nil
}

// CountCompleted считает завершенные визиты клиента
func (r *AppointmentRepository) CountCompleted(_ context.Context, email string, userID *int64) (int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	count := 0
	for _, a := range r.st.appointments {
		if a.Status != domain.StatusCompleted {
			continue
		}
		sameEmail := strings.EqualFold(a.CustomerEmail, email)
		sameUser := userID != nil && a.CustomerUserID != nil && *a.CustomerUserID == *userID
		if sameEmail || sameUser {
			count++
		}
	}
	return count, nil
}

// LockSlotScope транзакции in-memory хранилища уже выполняются последовательно
func (r *AppointmentRepository) LockSlotScope(_ context.Context, _ *int64, _ time.Time) error {
	return nil
}

func (r *AppointmentRepository) update(ctx context.Context, id int64, fn func(a *domain.Appointment)) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	a, ok := r.st.appointments[id]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	r.st.touch(ctx, entityAppointment, id)
	fn(a)
	a.UpdatedAt = r.st.now()
	return nil
}

// overlapsLocked повторяет exclusion constraint из миграции
func (r *AppointmentRepository) overlapsLocked(a *domain.Appointment, skipID int64) bool {
	if a.Status == domain.StatusCancelled {
		return false
	}
	for id, other := range r.st.appointments {
		if id == skipID || !other.IsActive() {
			continue
		}
		if scopeKey(other.StylistID) != scopeKey(a.StylistID) || dateKey(other.Date) != dateKey(a.Date) {
			continue
		}
		if other.Interval().Overlaps(a.Interval()) {
			return true
		}
	}
	return false
}

func matches(a *domain.Appointment, f domain.AppointmentFilter) bool {
	if f.StartDate != nil && dateKey(a.Date) < dateKey(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && dateKey(a.Date) > dateKey(*f.EndDate) {
		return false
	}
	if f.StylistID != nil && (a.StylistID == nil || *a.StylistID != *f.StylistID) {
		return false
	}
	if f.Unassigned && a.StylistID != nil {
		return false
	}
	if f.HasStylist && a.StylistID == nil {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
		return false
	}
	if f.CustomerUserID != nil && (a.CustomerUserID == nil || *a.CustomerUserID != *f.CustomerUserID) {
		return false
	}
	if f.CustomerEmail != nil && !strings.EqualFold(a.CustomerEmail, *f.CustomerEmail) {
		return false
	}
	if f.StartsAfter != nil && startKey(a).Before(domain.WallClock(*f.StartsAfter)) {
		return false
	}
	if f.StartsBefore != nil && !startKey(a).Before(domain.WallClock(*f.StartsBefore)) {
		return false
	}
	if f.HoldExpiredBefore != nil && (a.HoldExpiresAt == nil || !a.HoldExpiresAt.Before(*f.HoldExpiredBefore)) {
		return false
	}
	if f.ReminderPending && a.ReminderSentAt != nil {
		return false
	}
	if f.MissingCalendarEvent && a.CalendarEventID != nil {
		return false
	}
	return true
}

func containsStatus(statuses []domain.AppointmentStatus, s domain.AppointmentStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func dateKey(t time.Time) string {
	return t.Format(domain.DateFormat)
}

// startKey настенное время начала записи
func startKey(a *domain.Appointment) time.Time {
	return domain.WallClock(a.StartTime.On(a.Date, time.UTC))
}
