package stylist

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
)

const tableStylists = "stylists"

var stylistColumns = []string{
	"id",
	"name",
	"email",
	"is_active",
	"service_ids",
	"calendar_id",
	"calendar_access_token",
	"calendar_refresh_token",
	"calendar_token_expiry",
	"calendar_needs_reconnect",
	"created_at",
	"updated_at",
}

// Repository репозиторий мастеров
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория мастеров
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает мастера по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Stylist, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(stylistColumns...).
		From(tableStylists).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	s, err := scanStylist(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan stylist: %w", ErrScanRow, err)
	}

	return s, nil
}

// List получает мастеров, отсортированных по ID
func (r *Repository) List(ctx context.Context, onlyActive bool) ([]*domain.Stylist, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(stylistColumns...).
		From(tableStylists).
		OrderBy("id")
	if onlyActive {
		builder = builder.Where(squirrel.Eq{"is_active": true})
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

	stylists := make([]*domain.Stylist, 0)
	for rows.Next() {
		s, err := scanStylist(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan stylist: %w", ErrScanRow, err)
		}
		stylists = append(stylists, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - iterate rows: %w", ErrScanRow, err)
	}

	return stylists, nil
}

// UpdateCalendarToken сохраняет обновленную пару токенов календаря
func (r *Repository) UpdateCalendarToken(ctx context.Context, id int64, accessToken, refreshToken string, expiry time.Time) error {
	return r.update(ctx, "UpdateCalendarToken", id, map[string]interface{}{
		"calendar_access_token":  accessToken,
		"calendar_refresh_token": refreshToken,
		"calendar_token_expiry":  expiry,
	})
}

// SetCalendarNeedsReconnect выставляет или снимает флаг необходимости переподключения календаря
func (r *Repository) SetCalendarNeedsReconnect(ctx context.Context, id int64, needsReconnect bool) error {
	return r.update(ctx, "SetCalendarNeedsReconnect", id, map[string]interface{}{
		"calendar_needs_reconnect": needsReconnect,
	})
}

func (r *Repository) update(ctx context.Context, op string, id int64, values map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableStylists).
		SetMap(values).
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

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - rows affected: %w", ErrExecQuery, op, err)
	}
	if affected == 0 {
		return ErrStylistNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStylist(row rowScanner) (*domain.Stylist, error) {
	var (
		s              domain.Stylist
		serviceIDs     pq.Int64Array
		calendarID     sql.NullString
		accessToken    sql.NullString
		refreshToken   sql.NullString
		tokenExpiry    sql.NullTime
		needsReconnect bool
		createdAt      sql.NullTime
		updatedAt      sql.NullTime
	)

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Email,
		&s.IsActive,
		&serviceIDs,
		&calendarID,
		&accessToken,
		&refreshToken,
		&tokenExpiry,
		&needsReconnect,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.ServiceIDs = []int64(serviceIDs)
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	if calendarID.Valid {
		s.Calendar = &domain.CalendarConnection{
			CalendarID:     calendarID.String,
			AccessToken:    accessToken.String,
			RefreshToken:   refreshToken.String,
			TokenExpiry:    tokenExpiry.Time,
			NeedsReconnect: needsReconnect,
		}
	}

	return &s, nil
}
