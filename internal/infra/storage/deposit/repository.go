package deposit

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

const (
	tableDeposits = "deposits"

	// unique_violation
	codeUniqueViolation = "23505"
)

var depositColumns = []string{
	"id",
	"appointment_id",
	"amount",
	"currency",
	"status",
	"external_ref",
	"payment_url",
	"expires_at",
	"paid_at",
	"forfeited_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий депозитов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория депозитов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает депозит в статусе pending
// Для одной записи допускается ровно один депозит (unique по appointment_id)
func (r *Repository) Create(ctx context.Context, d *domain.Deposit) (*domain.Deposit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableDeposits).
		Columns("appointment_id", "amount", "currency", "status", "expires_at").
		Values(d.AppointmentID, d.Amount, d.Currency, d.Status, d.ExpiresAt).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&d.ID, &createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation {
			return nil, ErrDepositExists
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time

	return d, nil
}

// GetByID получает депозит по ID (FOR UPDATE внутри транзакции)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Deposit, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

// GetByAppointmentID получает депозит записи
func (r *Repository) GetByAppointmentID(ctx context.Context, appointmentID int64) (*domain.Deposit, error) {
	return r.getOne(ctx, "GetByAppointmentID", squirrel.Eq{"appointment_id": appointmentID})
}

// GetByExternalRef получает депозит по ID checkout-сессии платежного провайдера
func (r *Repository) GetByExternalRef(ctx context.Context, ref string) (*domain.Deposit, error) {
	return r.getOne(ctx, "GetByExternalRef", squirrel.Eq{"external_ref": ref})
}

// AttachCheckout сохраняет ссылку на checkout-сессию и URL оплаты
func (r *Repository) AttachCheckout(ctx context.Context, id int64, externalRef, paymentURL string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableDeposits).
		Set("external_ref", externalRef).
		Set("payment_url", paymentURL).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: AttachCheckout - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: AttachCheckout - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: AttachCheckout - rows affected: %w", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrDepositNotFound
	}

	return nil
}

// Transition выполняет условный переход статуса депозита
// Возвращает false, если депозит уже не в статусе from
func (r *Repository) Transition(ctx context.Context, id int64, from, to domain.DepositStatus, at time.Time) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update(tableDeposits).
		Set("status", to).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "status": string(from)})

	switch to {
	case domain.DepositPaid:
		builder = builder.Set("paid_at", at)
	case domain.DepositForfeited:
		builder = builder.Set("forfeited_at", at)
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

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Eq) (*domain.Deposit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(depositColumns...).
		From(tableDeposits).
		Where(where)
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	var d domain.Deposit
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&d.ID,
		&d.AppointmentID,
		&d.Amount,
		&d.Currency,
		&d.Status,
		&d.ExternalRef,
		&d.PaymentURL,
		&d.ExpiresAt,
		&d.PaidAt,
		&d.ForfeitedAt,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDepositNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan deposit: %w", ErrScanRow, op, err)
	}

	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time

	return &d, nil
}
