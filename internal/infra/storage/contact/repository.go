package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonScheduler/pkg/psqlbuilder"
)

// Repository репозиторий привязок клиентов к мессенджерам
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория контактов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// FindByCustomer ищет привязку по ID пользователя или email
// Привязка по ID пользователя приоритетнее
func (r *Repository) FindByCustomer(ctx context.Context, email string, userID *int64) (*domain.CustomerContact, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	identity := squirrel.Or{squirrel.Expr("lower(email) = lower(?)", email)}
	orderBy := "id DESC"
	if userID != nil {
		identity = append(identity, squirrel.Eq{"user_id": *userID})
		orderBy = "(user_id IS NOT DISTINCT FROM " + fmt.Sprint(*userID) + ") DESC, id DESC"
	}

	query, args, err := psqlbuilder.Select("id", "email", "user_id", "telegram_chat_id", "line_user_id").
		From("customer_contacts").
		Where(identity).
		OrderBy(orderBy).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByCustomer - build select query: %v", ErrBuildQuery, err)
	}

	var c domain.CustomerContact
	err = executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Email, &c.UserID, &c.TelegramChatID, &c.LineUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindByCustomer - scan contact: %w", ErrScanRow, err)
	}

	return &c, nil
}
