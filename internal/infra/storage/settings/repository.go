package settings

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

const tablePolicy = "deposit_policy"

// singletonID политика депозитов хранится одной строкой
const singletonID = 1

// Repository репозиторий настроек салона
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория настроек
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetDepositPolicy получает текущую политику депозитов
func (r *Repository) GetDepositPolicy(ctx context.Context) (*domain.DepositPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("enabled", "percentage", "waive_after_completed", "updated_at").
		From(tablePolicy).
		Where(squirrel.Eq{"id": singletonID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetDepositPolicy - build select query: %v", ErrBuildQuery, err)
	}

	var policy domain.DepositPolicy
	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&policy.Enabled,
		&policy.Percentage,
		&policy.WaiveAfterCompleted,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetDepositPolicy - scan policy: %w", ErrScanRow, err)
	}
	policy.UpdatedAt = updatedAt.Time

	return &policy, nil
}

// SaveDepositPolicy создает или обновляет политику депозитов
func (r *Repository) SaveDepositPolicy(ctx context.Context, policy *domain.DepositPolicy) (*domain.DepositPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tablePolicy).
		Columns("id", "enabled", "percentage", "waive_after_completed").
		Values(singletonID, policy.Enabled, policy.Percentage, policy.WaiveAfterCompleted).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			percentage = EXCLUDED.percentage,
			waive_after_completed = EXCLUDED.waive_after_completed,
			updated_at = NOW()
		RETURNING updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: SaveDepositPolicy - build upsert query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt); err != nil {
		return nil, fmt.Errorf("%w: SaveDepositPolicy - execute upsert: %w", ErrExecQuery, err)
	}
	policy.UpdatedAt = updatedAt.Time

	return policy, nil
}
