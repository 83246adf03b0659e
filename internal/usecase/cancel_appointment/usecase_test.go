package cancel_appointment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/availability"
	"github.com/m04kA/SMC-SalonScheduler/internal/usecase/usecasetest"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
)

func newUseCase(env *usecasetest.Env) *UseCase {
	return NewUseCase(env.Store.Appointments, env.Deposits, env.Calculator, env.Effects, env.Store.TxManager, nil, env.Log).
		WithTimeProvider(env.Clock)
}

func TestExecute_CancelsAndFreesSlot(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	appt := env.Store.PutAppointment(domain.Appointment{
		Date: usecasetest.Monday, StartTime: "10:00", DurationMinutes: 60, StylistID: ptr.Ptr(int64(10)),
		Status: domain.StatusScheduled, CustomerEmail: "anna@example.com", CustomerUserID: ptr.Ptr(int64(7)),
	})
	uc := newUseCase(env)

	resp, err := uc.Execute(context.Background(), &Request{
		AppointmentID: appt.ID,
		Actor:         domain.Actor{Role: domain.RoleCustomer, UserID: ptr.Ptr(int64(7))},
		Reason:        ptr.Ptr("  feeling sick "),
	})
	require.NoError(t, err)
	assert.False(t, resp.AlreadyCancelled)

	a := resp.Appointment
	assert.Equal(t, domain.StatusCancelled, a.Status)
	assert.Equal(t, domain.CancelledByCustomer, *a.CancelledBy)
	assert.Equal(t, "feeling sick", *a.CancellationReason)
	assert.NotNil(t, a.CancelledAt)
	assert.Equal(t, []int64{appt.ID}, env.Effects.NotifiedCancellationIDs())

	slots, err := env.Calculator.ComputeSlots(context.Background(), availabilityQuery(10))
	require.NoError(t, err)
	assert.Contains(t, slots, a.StartTime)

	// Повторная отмена ничего не меняет
	resp, err = uc.Execute(context.Background(), &Request{AppointmentID: appt.ID, Actor: domain.Actor{Role: domain.RoleAdmin}})
	require.NoError(t, err)
	assert.True(t, resp.AlreadyCancelled)
	assert.Equal(t, domain.CancelledByCustomer, *resp.Appointment.CancelledBy)
	assert.Len(t, env.Effects.CancelledIDs(), 1)
}

func TestExecute_ForfeitsPendingDeposit(t *testing.T) {
	env := usecasetest.NewEnv(t)
	ctx := context.Background()
	appt := env.Book(usecasetest.Monday, nil, "10:00", 60, domain.StatusPendingPayment)
	deposit, err := env.Deposits.ReserveHold(ctx, appt, 600, env.Clock.Now().Add(15*time.Minute))
	require.NoError(t, err)
	uc := newUseCase(env)

	resp, err := uc.Execute(ctx, &Request{AppointmentID: appt.ID, Actor: domain.Actor{Role: domain.RoleAdmin}})
	require.NoError(t, err)
	assert.Equal(t, domain.CancelledByAdmin, *resp.Appointment.CancelledBy)
	assert.Nil(t, resp.Appointment.CancellationReason)
	assert.Equal(t, domain.DepositForfeited, env.Deposit(t, deposit.ID).Status)
}

func TestExecute_StylistCancelsOwnAppointment(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.AddStylist(10)
	appt := env.Book(usecasetest.Monday, ptr.Ptr(int64(10)), "10:00", 60, domain.StatusScheduled)
	uc := newUseCase(env)

	_, err := uc.Execute(context.Background(), &Request{
		AppointmentID: appt.ID, Actor: domain.Actor{Role: domain.RoleStylist, StylistID: ptr.Ptr(int64(11))},
	})
	require.ErrorIs(t, err, ErrAccessDenied)

	resp, err := uc.Execute(context.Background(), &Request{
		AppointmentID: appt.ID, Actor: domain.Actor{Role: domain.RoleStylist, StylistID: ptr.Ptr(int64(10))},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CancelledByStylist, *resp.Appointment.CancelledBy)
}

func TestExecute_Rejections(t *testing.T) {
	env := usecasetest.NewEnv(t)
	completed := env.Book(usecasetest.Monday, nil, "09:00", 60, domain.StatusCompleted)
	uc := newUseCase(env)
	admin := domain.Actor{Role: domain.RoleAdmin}

	_, err := uc.Execute(context.Background(), &Request{AppointmentID: completed.ID, Actor: admin})
	assert.ErrorIs(t, err, ErrCannotCancel)

	_, err = uc.Execute(context.Background(), &Request{AppointmentID: 999, Actor: admin})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = uc.Execute(context.Background(), &Request{AppointmentID: 0, Actor: admin})
	assert.ErrorIs(t, err, ErrInvalidInput)

	long := make([]rune, domain.MaxCancellationReasonLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = uc.Execute(context.Background(), &Request{AppointmentID: completed.ID, Actor: admin, Reason: ptr.Ptr(string(long))})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Гость без user id не может отменить запись через API клиента
	_, err = uc.Execute(context.Background(), &Request{AppointmentID: completed.ID, Actor: domain.Actor{Role: domain.RoleCustomer}})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func availabilityQuery(stylistID int64) availability.SlotQuery {
	return availability.SlotQuery{Date: usecasetest.Monday, StylistID: &stylistID, DurationMinutes: 60}
}
