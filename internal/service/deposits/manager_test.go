package deposits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/payments"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

type fakeProvider struct {
	requests []payments.CheckoutRequest
	err      error
	event    *payments.PaymentEvent
	parseErr error
}

func (p *fakeProvider) CreateCheckout(_ context.Context, req payments.CheckoutRequest) (*payments.Checkout, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &payments.Checkout{ExternalRef: "cs_test_1", PaymentURL: "https://pay.example/cs_test_1"}, nil
}

func (p *fakeProvider) ParseWebhook(_ []byte, _ string) (*payments.PaymentEvent, error) {
	return p.event, p.parseErr
}

func newManager(t *testing.T, store *memory.Store, provider PaymentProvider) *Manager {
	t.Helper()
	return NewManager(store.Settings, store.Appointments, store.Deposits, provider, Config{Currency: "rub"}, logger.NewNop())
}

func enablePolicy(t *testing.T, store *memory.Store, pct int64, waive int) {
	t.Helper()
	_, err := store.Settings.SaveDepositPolicy(context.Background(), &domain.DepositPolicy{
		Enabled: true, Percentage: pct, WaiveAfterCompleted: waive,
	})
	require.NoError(t, err)
}

func TestCalculateAmount(t *testing.T) {
	assert.Equal(t, int64(600), CalculateAmount(3000, 20))
	assert.Equal(t, int64(1), CalculateAmount(5, 10)) // 0.5 округляется вверх
	assert.Equal(t, int64(0), CalculateAmount(4, 10))
	assert.Equal(t, int64(3000), CalculateAmount(3000, 150))
	assert.Equal(t, int64(0), CalculateAmount(3000, -5))
	assert.Equal(t, int64(0), CalculateAmount(0, 20))
}

func TestRequiresDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("missing policy disables deposits", func(t *testing.T) {
		store := memory.NewStore()
		m := newManager(t, store, &fakeProvider{})

		required, policy, err := m.RequiresDeposit(ctx, Customer{Email: "a@example.com"})
		require.NoError(t, err)
		assert.False(t, required)
		assert.Equal(t, int64(domain.DefaultDepositPercentage), policy.Percentage)
	})

	t.Run("guest always pays", func(t *testing.T) {
		store := memory.NewStore()
		enablePolicy(t, store, 20, 1)
		m := newManager(t, store, &fakeProvider{})

		required, _, err := m.RequiresDeposit(ctx, Customer{Email: "a@example.com"})
		require.NoError(t, err)
		assert.True(t, required)
	})

	t.Run("registered customer waived after completed visit", func(t *testing.T) {
		store := memory.NewStore()
		enablePolicy(t, store, 20, 1)
		m := newManager(t, store, &fakeProvider{})
		customer := Customer{Email: "b@example.com", UserID: ptr.Ptr(int64(7))}

		required, _, err := m.RequiresDeposit(ctx, customer)
		require.NoError(t, err)
		assert.True(t, required)

		store.PutAppointment(domain.Appointment{
			Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), StartTime: "10:00", DurationMinutes: 30,
			CustomerEmail: "b@example.com", CustomerUserID: ptr.Ptr(int64(7)), Status: domain.StatusCompleted,
		})

		required, _, err = m.RequiresDeposit(ctx, customer)
		require.NoError(t, err)
		assert.False(t, required)
	})
}

func TestReserveAndCreateHold(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	provider := &fakeProvider{}
	m := newManager(t, store, provider)

	appt := store.PutAppointment(domain.Appointment{
		Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), StartTime: types.TimeString("10:00"), DurationMinutes: 60,
		CustomerEmail: "c@example.com", Status: domain.StatusPendingPayment, TotalPrice: 3000,
	})
	expires := time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC)

	deposit, err := m.ReserveHold(ctx, appt, 600, expires)
	require.NoError(t, err)
	require.NotNil(t, appt.DepositID)
	assert.Equal(t, deposit.ID, *appt.DepositID)
	assert.Equal(t, domain.DepositPending, deposit.Status)

	stored, err := store.Appointments.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, deposit.ID, *stored.DepositID)

	hold, err := m.CreateHold(ctx, appt, deposit)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_test_1", hold.PaymentURL)

	// повторная попытка использует тот же ключ идемпотентности
	_, err = m.CreateHold(ctx, appt, deposit)
	require.NoError(t, err)
	require.Len(t, provider.requests, 2)
	assert.Equal(t, provider.requests[0].IdempotencyKey, provider.requests[1].IdempotencyKey)
	assert.Equal(t, int64(600), provider.requests[0].Amount)

	byRef, err := m.FindForEvent(ctx, &payments.PaymentEvent{ExternalRef: "cs_test_1"})
	require.NoError(t, err)
	assert.Equal(t, deposit.ID, byRef.ID)
}

func TestCreateHold_ProviderFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	m := newManager(t, store, &fakeProvider{err: errors.New("stripe down")})

	appt := store.PutAppointment(domain.Appointment{
		Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), StartTime: "10:00", DurationMinutes: 60,
		Status: domain.StatusPendingPayment,
	})
	deposit, err := m.ReserveHold(ctx, appt, 600, time.Now())
	require.NoError(t, err)

	_, err = m.CreateHold(ctx, appt, deposit)
	assert.ErrorIs(t, err, ErrPaymentProvider)
}

func TestMarkPaidAndForfeit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	m := newManager(t, store, &fakeProvider{})
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	appt := store.PutAppointment(domain.Appointment{
		Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), StartTime: "10:00", DurationMinutes: 60,
		Status: domain.StatusPendingPayment,
	})
	deposit, err := m.ReserveHold(ctx, appt, 600, at.Add(15*time.Minute))
	require.NoError(t, err)

	ok, err := m.MarkPaid(ctx, deposit.ID, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.MarkPaid(ctx, deposit.ID, at)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Forfeit(ctx, deposit.ID, at)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseWebhook_InvalidSignature(t *testing.T) {
	m := newManager(t, memory.NewStore(), &fakeProvider{parseErr: payments.ErrInvalidSignature})

	_, err := m.ParseWebhook([]byte(`{}`), "bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestFindForEvent_Unknown(t *testing.T) {
	m := newManager(t, memory.NewStore(), &fakeProvider{})

	_, err := m.FindForEvent(context.Background(), &payments.PaymentEvent{EventID: "evt_1", DepositID: ptr.Ptr(int64(99))})
	assert.ErrorIs(t, err, ErrDepositNotFound)

	_, err = m.FindForEvent(context.Background(), &payments.PaymentEvent{EventID: "evt_2"})
	assert.ErrorIs(t, err, ErrDepositNotFound)
}
