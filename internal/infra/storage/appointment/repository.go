package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonScheduler/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

const (
	tableAppointments = "appointments"
	tableServices     = "appointment_services"

	// exclusion_violation
	codeExclusionViolation = "23P01"
)

var appointmentColumns = []string{
	"id",
	"appointment_date",
	"start_time",
	"duration_minutes",
	"stylist_id",
	"total_price",
	"customer_name",
	"customer_email",
	"customer_user_id",
	"status",
	"source",
	"calendar_event_id",
	"deposit_id",
	"hold_expires_at",
	"reminder_claimed_at",
	"reminder_sent_at",
	"cancellation_reason",
	"cancelled_by",
	"cancelled_at",
	"completed_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий записей клиентов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись вместе со снимком услуг
// Должен вызываться в транзакции, иначе запись и услуги сохраняются неатомарно
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableAppointments).
		Columns(
			"appointment_date",
			"start_time",
			"duration_minutes",
			"stylist_id",
			"total_price",
			"customer_name",
			"customer_email",
			"customer_user_id",
			"status",
			"source",
			"deposit_id",
			"hold_expires_at",
		).
		Values(
			a.Date.Format(domain.DateFormat),
			a.StartTime,
			a.DurationMinutes,
			a.StylistID,
			a.TotalPrice,
			a.CustomerName,
			a.CustomerEmail,
			a.CustomerUserID,
			a.Status,
			a.Source,
			a.DepositID,
			a.HoldExpiresAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapWriteError("Create - execute insert", err)
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	for i, s := range a.Services {
		query, args, err := psqlbuilder.Insert(tableServices).
			Columns("appointment_id", "position", "service_id", "name", "duration_minutes", "price").
			Values(a.ID, i, s.ServiceID, s.Name, s.DurationMinutes, s.Price).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: Create - build service insert query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("%w: Create - insert service: %w", ErrExecQuery, err)
		}
	}

	return a, nil
}

// GetByID получает запись по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(appointmentColumns...).
		From(tableAppointments).
		Where(squirrel.Eq{"id": id})
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %w", ErrScanRow, err)
	}

	if err := r.attachServices(ctx, executor, []*domain.Appointment{a}); err != nil {
		return nil, err
	}

	return a, nil
}

// List получает записи по фильтру, отсортированные по дате и времени начала
// Внутри транзакции выборка на одну дату блокирует строки (FOR UPDATE)
func (r *Repository) List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(appointmentColumns...).
		From(tableAppointments).
		OrderBy("appointment_date ASC", "start_time ASC", "id ASC")

	if filter.StartDate != nil {
		builder = builder.Where(squirrel.GtOrEq{"appointment_date": filter.StartDate.Format(domain.DateFormat)})
	}
	if filter.EndDate != nil {
		builder = builder.Where(squirrel.LtOrEq{"appointment_date": filter.EndDate.Format(domain.DateFormat)})
	}
	if filter.StylistID != nil {
		builder = builder.Where(squirrel.Eq{"stylist_id": *filter.StylistID})
	}
	if filter.Unassigned {
		builder = builder.Where(squirrel.Eq{"stylist_id": nil})
	}
	if filter.HasStylist {
		builder = builder.Where(squirrel.NotEq{"stylist_id": nil})
	}
	if len(filter.Statuses) > 0 {
		builder = builder.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}
	if filter.CustomerUserID != nil {
		builder = builder.Where(squirrel.Eq{"customer_user_id": *filter.CustomerUserID})
	}
	if filter.CustomerEmail != nil {
		builder = builder.Where(squirrel.Expr("lower(customer_email) = lower(?)", *filter.CustomerEmail))
	}
	if filter.StartsAfter != nil {
		builder = builder.Where(squirrel.Expr("(appointment_date + start_time) >= ?::timestamp",
			filter.StartsAfter.Format(domain.DateTimeFormat)))
	}
	if filter.StartsBefore != nil {
		builder = builder.Where(squirrel.Expr("(appointment_date + start_time) < ?::timestamp",
			filter.StartsBefore.Format(domain.DateTimeFormat)))
	}
	if filter.HoldExpiredBefore != nil {
		builder = builder.Where(squirrel.Lt{"hold_expires_at": *filter.HoldExpiredBefore})
	}
	if filter.ReminderPending {
		builder = builder.Where(squirrel.Eq{"reminder_sent_at": nil})
	}
	if filter.MissingCalendarEvent {
		builder = builder.Where(squirrel.Eq{"calendar_event_id": nil})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	singleDate := filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate)
	if dbmetrics.IsInTransaction(ctx) && singleDate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan appointment: %w", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - iterate rows: %w", ErrScanRow, err)
	}

	if err := r.attachServices(ctx, executor, appointments); err != nil {
		return nil, err
	}

	return appointments, nil
}

// Transition выполняет условный переход статуса
// Возвращает false, если текущий статус записи не входит в t.From
func (r *Repository) Transition(ctx context.Context, t domain.StatusTransition) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update(tableAppointments).
		Set("status", t.To).
		Set("updated_at", t.At).
		Where(squirrel.Eq{"id": t.AppointmentID}).
		Where(squirrel.Eq{"status": statusStrings(t.From)})

	switch t.To {
	case domain.StatusScheduled:
		builder = builder.Set("hold_expires_at", nil)
	case domain.StatusCompleted:
		builder = builder.Set("completed_at", t.At)
	case domain.StatusCancelled:
		builder = builder.
			Set("cancelled_at", t.At).
			Set("cancellation_reason", t.Reason).
			Set("cancelled_by", t.CancelledBy)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: Transition - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Transition - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Transition - rows affected: %w", ErrExecQuery, err)
	}

	return affected > 0, nil
}

// Reschedule переносит запись на новую дату/время
// Отметка о напоминании сбрасывается: о новом времени нужно напомнить заново
func (r *Repository) Reschedule(ctx context.Context, id int64, date time.Time, start types.TimeString, stylistID *int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableAppointments).
		Set("appointment_date", date.Format(domain.DateFormat)).
		Set("start_time", start).
		Set("stylist_id", stylistID).
		Set("reminder_sent_at", nil).
		Set("reminder_claimed_at", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Reschedule - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError("Reschedule - execute update", err)
	}

	return requireAffected(result, "Reschedule")
}

// SetCalendarEventID сохраняет (или очищает при nil) ссылку на событие внешнего календаря
func (r *Repository) SetCalendarEventID(ctx context.Context, id int64, eventID *string) error {
	return r.updateColumn(ctx, "SetCalendarEventID", id, "calendar_event_id", eventID)
}

// AttachCalendarEvent сохраняет ссылку на событие календаря, только если запись еще в статусе scheduled
// Возвращает false, если запись успели отменить или завершить
func (r *Repository) AttachCalendarEvent(ctx context.Context, id int64, eventID string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableAppointments).
		Set("calendar_event_id", eventID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":     id,
			"status": string(domain.StatusScheduled),
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: AttachCalendarEvent - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: AttachCalendarEvent - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: AttachCalendarEvent - rows affected: %w", ErrExecQuery, err)
	}

	return affected > 0, nil
}

// SetDepositID привязывает депозит к записи
func (r *Repository) SetDepositID(ctx context.Context, id int64, depositID int64) error {
	return r.updateColumn(ctx, "SetDepositID", id, "deposit_id", depositID)
}

// MarkReminderSent отмечает успешную отправку напоминания
func (r *Repository) MarkReminderSent(ctx context.Context, id int64, at time.Time) error {
	return r.updateColumn(ctx, "MarkReminderSent", id, "reminder_sent_at", at)
}

// ReleaseReminderClaim снимает захват напоминания после неудачной отправки
func (r *Repository) ReleaseReminderClaim(ctx context.Context, id int64) error {
	return r.updateColumn(ctx, "ReleaseReminderClaim", id, "reminder_claimed_at", nil)
}

// ClaimReminder захватывает запись для отправки напоминания
// Захват удается, только если напоминание не отправлено и не захвачено другим прогоном
// (или захват старше staleBefore)
func (r *Repository) ClaimReminder(ctx context.Context, id int64, now, staleBefore time.Time) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableAppointments).
		Set("reminder_claimed_at", now).
		Where(squirrel.Eq{
			"id":               id,
			"status":           string(domain.StatusScheduled),
			"reminder_sent_at": nil,
		}).
		Where(squirrel.Or{
			squirrel.Eq{"reminder_claimed_at": nil},
			squirrel.Lt{"reminder_claimed_at": staleBefore},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: ClaimReminder - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: ClaimReminder - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: ClaimReminder - rows affected: %w", ErrExecQuery, err)
	}

	return affected > 0, nil
}

// CountCompleted считает завершенные визиты клиента по email или ID пользователя
func (r *Repository) CountCompleted(ctx context.Context, email string, userID *int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	identity := squirrel.Or{squirrel.Expr("lower(customer_email) = lower(?)", email)}
	if userID != nil {
		identity = append(identity, squirrel.Eq{"customer_user_id": *userID})
	}

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(tableAppointments).
		Where(squirrel.Eq{"status": string(domain.StatusCompleted)}).
		Where(identity).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountCompleted - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountCompleted - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// LockSlotScope берет транзакционную advisory-блокировку на пару (мастер, дата)
// Параллельные бронирования одного мастера на одну дату выполняются последовательно,
// остальные не блокируют друг друга
func (r *Repository) LockSlotScope(ctx context.Context, stylistID *int64, date time.Time) error {
	tx, ok := dbmetrics.TxFromContext(ctx)
	if !ok {
		return ErrNotInTransaction
	}

	var scope int64
	if stylistID != nil {
		scope = *stylistID
	}
	key := fmt.Sprintf("appointments:%d:%s", scope, date.Format(domain.DateFormat))

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
		return fmt.Errorf("%w: LockSlotScope - acquire lock %s: %w", ErrExecQuery, key, err)
	}

	return nil
}

func (r *Repository) updateColumn(ctx context.Context, op string, id int64, column string, value interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableAppointments).
		Set(column, value).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	return requireAffected(result, op)
}

// attachServices загружает снимки услуг одним запросом для всех записей
func (r *Repository) attachServices(ctx context.Context, executor DBExecutor, appointments []*domain.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(appointments))
	byID := make(map[int64]*domain.Appointment, len(appointments))
	for _, a := range appointments {
		ids = append(ids, a.ID)
		byID[a.ID] = a
	}

	query, args, err := psqlbuilder.Select("appointment_id", "service_id", "name", "duration_minutes", "price").
		From(tableServices).
		Where(squirrel.Expr("appointment_id = ANY(?)", pq.Array(ids))).
		OrderBy("appointment_id", "position").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachServices - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: attachServices - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var appointmentID int64
		var s domain.AppointmentService
		if err := rows.Scan(&appointmentID, &s.ServiceID, &s.Name, &s.DurationMinutes, &s.Price); err != nil {
			return fmt.Errorf("%w: attachServices - scan service: %w", ErrScanRow, err)
		}
		if a, ok := byID[appointmentID]; ok {
			a.Services = append(a.Services, s)
		}
	}

	return rows.Err()
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.Date,
		&a.StartTime,
		&a.DurationMinutes,
		&a.StylistID,
		&a.TotalPrice,
		&a.CustomerName,
		&a.CustomerEmail,
		&a.CustomerUserID,
		&a.Status,
		&a.Source,
		&a.CalendarEventID,
		&a.DepositID,
		&a.HoldExpiresAt,
		&a.ReminderClaimedAt,
		&a.ReminderSentAt,
		&a.CancellationReason,
		&a.CancelledBy,
		&a.CancelledAt,
		&a.CompletedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}

func statusStrings(statuses []domain.AppointmentStatus) []string {
	result := make([]string, 0, len(statuses))
	for _, s := range statuses {
		result = append(result, string(s))
	}
	return result
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - rows affected: %w", ErrExecQuery, op, err)
	}
	if affected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// mapWriteError отличает нарушение exclusion constraint от прочих ошибок записи
func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeExclusionViolation {
		return fmt.Errorf("%w: %s: %v", ErrOverlap, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrExecQuery, op, err)
}
