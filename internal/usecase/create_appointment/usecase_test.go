package create_appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SalonScheduler/internal/usecase/usecasetest"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

func newUseCase(env *usecasetest.Env) *UseCase {
	return NewUseCase(
		env.Store.Appointments,
		env.Store.Catalog,
		env.Store.Stylists,
		env.Calculator,
		env.Deposits,
		env.Effects,
		env.Store.TxManager,
		nil,
		Config{HoldTimeout: 15 * time.Minute},
		env.Log,
	).WithTimeProvider(env.Clock)
}

func request(start string, stylistID *int64, serviceIDs ...int64) *Request {
	return &Request{
		Date:          usecasetest.Monday,
		StartTime:     types.TimeString(start),
		ServiceIDs:    serviceIDs,
		StylistID:     stylistID,
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
	}
}

func TestExecute_ScheduledWithoutDeposit(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	uc := newUseCase(env)

	resp, err := uc.Execute(context.Background(), request("10:00", ptr.Ptr(int64(10)), usecasetest.ServiceHaircut, usecasetest.ServiceWash))
	require.NoError(t, err)

	a := resp.Appointment
	assert.Equal(t, domain.StatusScheduled, a.Status)
	assert.Equal(t, 90, a.DurationMinutes)
	assert.Equal(t, int64(4000), a.TotalPrice)
	assert.Equal(t, domain.SourceWeb, a.Source)
	assert.Nil(t, a.HoldExpiresAt)
	assert.Nil(t, resp.Deposit)
	assert.Nil(t, resp.PaymentURL)
	assert.Len(t, a.Services, 2)
	assert.Equal(t, []int64{a.ID}, env.Effects.ScheduledIDs())

	// Тот же слот второй раз
	_, err = uc.Execute(context.Background(), request("10:30", ptr.Ptr(int64(10)), usecasetest.ServiceWash))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	// Соседний слот после окончания свободен
	_, err = uc.Execute(context.Background(), request("11:30", ptr.Ptr(int64(10)), usecasetest.ServiceWash))
	assert.NoError(t, err)
}

func TestExecute_AnyStylistAssignsLowestFree(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	env.AddStylist(11)
	env.AddStylist(12, usecasetest.ServiceWash)
	uc := newUseCase(env)

	first, err := uc.Execute(context.Background(), request("10:00", nil, usecasetest.ServiceHaircut))
	require.NoError(t, err)
	require.NotNil(t, first.Appointment.StylistID)
	assert.Equal(t, int64(10), *first.Appointment.StylistID)

	second, err := uc.Execute(context.Background(), request("10:00", nil, usecasetest.ServiceHaircut))
	require.NoError(t, err)
	assert.Equal(t, int64(11), *second.Appointment.StylistID)

	// Мастер 12 не делает стрижки
	_, err = uc.Execute(context.Background(), request("10:00", nil, usecasetest.ServiceHaircut))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_SalonWithoutStylists(t *testing.T) {
	env := usecasetest.NewEnv(t)
	uc := newUseCase(env)

	resp, err := uc.Execute(context.Background(), request("09:00", nil, usecasetest.ServiceHaircut))
	require.NoError(t, err)
	assert.Nil(t, resp.Appointment.StylistID)

	_, err = uc.Execute(context.Background(), request("09:30", nil, usecasetest.ServiceWash))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_DepositHold(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	env.EnableDeposits(t, 20, 1)
	uc := newUseCase(env)

	resp, err := uc.Execute(context.Background(), request("10:00", ptr.Ptr(int64(10)), usecasetest.ServiceHaircut))
	require.NoError(t, err)

	a := resp.Appointment
	assert.Equal(t, domain.StatusPendingPayment, a.Status)
	require.NotNil(t, a.HoldExpiresAt)
	assert.Equal(t, env.Clock.Now().Add(15*time.Minute), *a.HoldExpiresAt)

	require.NotNil(t, resp.Deposit)
	assert.Equal(t, int64(600), resp.Deposit.Amount)
	assert.Equal(t, domain.DepositPending, resp.Deposit.Status)
	require.NotNil(t, resp.PaymentURL)
	assert.Contains(t, *resp.PaymentURL, "https://pay.example/")

	stored := env.Appointment(t, a.ID)
	require.NotNil(t, stored.DepositID)
	assert.Equal(t, resp.Deposit.ID, *stored.DepositID)
	assert.NotNil(t, env.Deposit(t, resp.Deposit.ID).ExternalRef)

	// Подтверждение и уведомления только после оплаты
	assert.Empty(t, env.Effects.ScheduledIDs())

	// Удерживаемый слот занят
	_, err = uc.Execute(context.Background(), request("10:00", ptr.Ptr(int64(10)), usecasetest.ServiceWash))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_ProviderFailureReleasesSlot(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	env.EnableDeposits(t, 20, 1)
	env.Provider.Err = errors.New("stripe is down")
	uc := newUseCase(env)

	_, err := uc.Execute(context.Background(), request("10:00", ptr.Ptr(int64(10)), usecasetest.ServiceHaircut))
	require.ErrorIs(t, err, ErrPaymentProvider)

	list, err := env.Store.Appointments.List(context.Background(), domain.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusCancelled, list[0].Status)
	require.NotNil(t, list[0].CancelledBy)
	assert.Equal(t, domain.CancelledBySystem, *list[0].CancelledBy)
	require.NotNil(t, list[0].DepositID)
	assert.Equal(t, domain.DepositForfeited, env.Deposit(t, *list[0].DepositID).Status)

	// Слот снова свободен
	env.Provider.Err = nil
	_, err = uc.Execute(context.Background(), request("10:00", ptr.Ptr(int64(10)), usecasetest.ServiceHaircut))
	assert.NoError(t, err)
}

func TestExecute_RegisteredCustomerWaived(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	env.EnableDeposits(t, 20, 1)
	env.Store.PutAppointment(domain.Appointment{
		Date: usecasetest.Monday.AddDate(0, 0, -7), StartTime: "10:00", DurationMinutes: 60,
		StylistID: ptr.Ptr(int64(10)), Status: domain.StatusCompleted,
		CustomerEmail: "anna@example.com", CustomerUserID: ptr.Ptr(int64(7)),
	})
	uc := newUseCase(env)

	req := request("10:00", ptr.Ptr(int64(10)), usecasetest.ServiceHaircut)
	req.CustomerUserID = ptr.Ptr(int64(7))

	resp, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, resp.Appointment.Status)
	assert.Nil(t, resp.Deposit)
}

func TestExecute_Errors(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10, usecasetest.ServiceWash)
	env.Store.AddStylist(domain.Stylist{ID: 11, Name: "Inactive", IsActive: false})
	env.Store.AddService(domain.Service{ID: 9, Name: "Retired", DurationMinutes: 30, Price: 100, IsActive: false})
	uc := newUseCase(env)

	tests := []struct {
		name   string
		mutate func(r *Request)
		want   error
	}{
		{"missing services", func(r *Request) { r.ServiceIDs = nil }, ErrInvalidInput},
		{"duplicate services", func(r *Request) { r.ServiceIDs = []int64{1, 1} }, ErrInvalidInput},
		{"bad start time", func(r *Request) { r.StartTime = "25:00" }, ErrInvalidInput},
		{"missing name", func(r *Request) { r.CustomerName = "  " }, ErrInvalidInput},
		{"bad email", func(r *Request) { r.CustomerEmail = "not-an-email" }, ErrInvalidInput},
		{"unknown source", func(r *Request) { r.Source = "fax" }, ErrInvalidInput},
		{"past date", func(r *Request) { r.Date = usecasetest.Monday.AddDate(0, 0, -1) }, ErrInvalidDate},
		{"unknown service", func(r *Request) { r.ServiceIDs = []int64{42} }, ErrServiceNotFound},
		{"inactive service", func(r *Request) { r.ServiceIDs = []int64{9} }, ErrServiceNotFound},
		{"unknown stylist", func(r *Request) { r.StylistID = ptr.Ptr(int64(99)) }, ErrStylistNotFound},
		{"inactive stylist", func(r *Request) { r.StylistID = ptr.Ptr(int64(11)) }, ErrStylistNotFound},
		{"stylist cannot perform", func(r *Request) { r.StylistID = ptr.Ptr(int64(10)) }, ErrStylistCannotPerform},
		{"outside opening hours", func(r *Request) {
			r.StylistID = ptr.Ptr(int64(10))
			r.ServiceIDs = []int64{usecasetest.ServiceWash}
			r.StartTime = "17:00"
		}, ErrSlotNotAvailable},
		{"off the slot grid", func(r *Request) {
			r.StylistID = ptr.Ptr(int64(10))
			r.ServiceIDs = []int64{usecasetest.ServiceWash}
			r.StartTime = "10:10"
		}, ErrSlotNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request("10:00", nil, usecasetest.ServiceHaircut)
			tt.mutate(req)

			_, err := uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExecute_ConcurrentBookingsOfOneSlot(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	uc := newUseCase(env)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), request("14:00", ptr.Ptr(int64(10)), usecasetest.ServiceHaircut))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrSlotNotAvailable):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
}

// contendedRepo занимает слот мастера, пока вызывающий ждет блокировку (мастер, дата)
type contendedRepo struct {
	*memory.AppointmentRepository
	env       *usecasetest.Env
	stylistID int64
	taken     bool
}

func (r *contendedRepo) LockSlotScope(ctx context.Context, stylistID *int64, date time.Time) error {
	if !r.taken && stylistID != nil && *stylistID == r.stylistID {
		r.taken = true
		r.env.Book(date, stylistID, "10:00", 60, domain.StatusScheduled)
	}
	return r.AppointmentRepository.LockSlotScope(ctx, stylistID, date)
}

func newContendedUseCase(env *usecasetest.Env, stylistID int64) *UseCase {
	repo := &contendedRepo{AppointmentRepository: env.Store.Appointments, env: env, stylistID: stylistID}
	return NewUseCase(
		repo,
		env.Store.Catalog,
		env.Store.Stylists,
		env.Calculator,
		env.Deposits,
		env.Effects,
		env.Store.TxManager,
		nil,
		Config{HoldTimeout: 15 * time.Minute},
		env.Log,
	).WithTimeProvider(env.Clock)
}

func TestExecute_AnyStylistRepicksAfterLosingRace(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	env.AddStylist(11)
	uc := newContendedUseCase(env, 10)

	resp, err := uc.Execute(context.Background(), request("10:00", nil, usecasetest.ServiceHaircut))
	require.NoError(t, err)
	require.NotNil(t, resp.Appointment.StylistID)
	assert.Equal(t, int64(11), *resp.Appointment.StylistID)
}

func TestExecute_AnyStylistNoOneLeftAfterRace(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	env.AddStylist(11)
	env.Book(usecasetest.Monday, ptr.Ptr(int64(11)), "10:00", 60, domain.StatusScheduled)
	uc := newContendedUseCase(env, 10)

	_, err := uc.Execute(context.Background(), request("10:00", nil, usecasetest.ServiceHaircut))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}
