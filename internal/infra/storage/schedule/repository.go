package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonScheduler/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

const (
	tableWeekly  = "weekly_schedules"
	tableBlocked = "blocked_periods"
)

// Repository репозиторий расписаний салона и мастеров
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetWeeklySchedule получает недельное расписание салона (stylistID == nil) или мастера
// Отсутствие строк не является ошибкой: возвращается расписание без дней
func (r *Repository) GetWeeklySchedule(ctx context.Context, stylistID *int64) (*domain.WeeklySchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select("weekday", "is_open", "open_time", "close_time", "updated_at").
		From(tableWeekly).
		OrderBy("weekday")
	if stylistID != nil {
		builder = builder.Where(squirrel.Eq{"stylist_id": *stylistID})
	} else {
		builder = builder.Where(squirrel.Eq{"stylist_id": nil})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklySchedule - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklySchedule - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	schedule := &domain.WeeklySchedule{StylistID: stylistID, Days: make([]domain.DaySchedule, 0, 7)}
	for rows.Next() {
		var (
			day       domain.DaySchedule
			weekday   int
			openTime  types.TimeString
			closeTime types.TimeString
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&weekday, &day.IsOpen, &openTime, &closeTime, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: GetWeeklySchedule - scan day: %w", ErrScanRow, err)
		}
		day.Weekday = time.Weekday(weekday)
		day.OpenTime = openTime
		day.CloseTime = closeTime
		schedule.Days = append(schedule.Days, day)

		if updatedAt.Time.After(schedule.UpdatedAt) {
			schedule.UpdatedAt = updatedAt.Time
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetWeeklySchedule - iterate rows: %w", ErrScanRow, err)
	}

	return schedule, nil
}

// ReplaceWeeklySchedule заменяет недельное расписание целиком
// Вызывается в транзакции: удаление и вставка должны быть атомарны
func (r *Repository) ReplaceWeeklySchedule(ctx context.Context, schedule *domain.WeeklySchedule) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	deleteBuilder := psqlbuilder.Delete(tableWeekly)
	if schedule.StylistID != nil {
		deleteBuilder = deleteBuilder.Where(squirrel.Eq{"stylist_id": *schedule.StylistID})
	} else {
		deleteBuilder = deleteBuilder.Where(squirrel.Eq{"stylist_id": nil})
	}

	query, args, err := deleteBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceWeeklySchedule - build delete query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceWeeklySchedule - execute delete: %w", ErrExecQuery, err)
	}

	if len(schedule.Days) == 0 {
		return nil
	}

	insert := psqlbuilder.Insert(tableWeekly).
		Columns("stylist_id", "weekday", "is_open", "open_time", "close_time")
	for _, day := range schedule.Days {
		insert = insert.Values(schedule.StylistID, int(day.Weekday), day.IsOpen, day.OpenTime, day.CloseTime)
	}

	query, args, err = insert.ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceWeeklySchedule - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceWeeklySchedule - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}

// ListBlockedPeriods получает блокировки, пересекающие [From, To)
func (r *Repository) ListBlockedPeriods(ctx context.Context, filter domain.BlockedPeriodFilter) ([]*domain.BlockedPeriod, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select("id", "stylist_id", "starts_at", "ends_at", "reason", "created_at").
		From(tableBlocked).
		Where(squirrel.Lt{"starts_at": filter.To.Format(domain.DateTimeFormat)}).
		Where(squirrel.Gt{"ends_at": filter.From.Format(domain.DateTimeFormat)}).
		OrderBy("starts_at", "id")

	if !filter.All {
		if filter.StylistID != nil {
			builder = builder.Where(squirrel.Or{
				squirrel.Eq{"stylist_id": nil},
				squirrel.Eq{"stylist_id": *filter.StylistID},
			})
		} else {
			builder = builder.Where(squirrel.Eq{"stylist_id": nil})
		}
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockedPeriods - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockedPeriods - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	blocks := make([]*domain.BlockedPeriod, 0)
	for rows.Next() {
		var b domain.BlockedPeriod
		var createdAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.StylistID, &b.StartsAt, &b.EndsAt, &b.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: ListBlockedPeriods - scan block: %w", ErrScanRow, err)
		}
		b.CreatedAt = createdAt.Time
		blocks = append(blocks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListBlockedPeriods - iterate rows: %w", ErrScanRow, err)
	}

	return blocks, nil
}

// CreateBlockedPeriod создает блокировку
func (r *Repository) CreateBlockedPeriod(ctx context.Context, block *domain.BlockedPeriod) (*domain.BlockedPeriod, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableBlocked).
		Columns("stylist_id", "starts_at", "ends_at", "reason").
		Values(
			block.StylistID,
			block.StartsAt.Format(domain.DateTimeFormat),
			block.EndsAt.Format(domain.DateTimeFormat),
			block.Reason,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateBlockedPeriod - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&block.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: CreateBlockedPeriod - execute insert: %w", ErrExecQuery, err)
	}
	block.CreatedAt = createdAt.Time

	return block, nil
}

// DeleteBlockedPeriod удаляет блокировку и возвращает удаленную запись
func (r *Repository) DeleteBlockedPeriod(ctx context.Context, id int64) (*domain.BlockedPeriod, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(tableBlocked).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, stylist_id, starts_at, ends_at, reason, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: DeleteBlockedPeriod - build delete query: %v", ErrBuildQuery, err)
	}

	var b domain.BlockedPeriod
	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&b.ID, &b.StylistID, &b.StartsAt, &b.EndsAt, &b.Reason, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrBlockedPeriodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: DeleteBlockedPeriod - execute delete: %w", ErrExecQuery, err)
	}
	b.CreatedAt = createdAt.Time

	return &b, nil
}
