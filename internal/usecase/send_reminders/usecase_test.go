package send_reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/usecase/usecasetest"
)

func newUseCase(env *usecasetest.Env, interval time.Duration) *UseCase {
	return NewUseCase(env.Store.Appointments, env.Effects, Config{
		Lookahead:    24 * time.Hour,
		ClaimTTL:     10 * time.Minute,
		SendInterval: interval,
		Location:     time.UTC,
	}, env.Log).WithTimeProvider(env.Clock)
}

func TestExecute_SendsWithinLookaheadOnce(t *testing.T) {
	env := usecasetest.NewEnv(t)
	ctx := context.Background()

	today := env.Book(usecasetest.Monday, nil, "15:00", 60, domain.StatusScheduled)
	tomorrow := env.Book(usecasetest.Monday.AddDate(0, 0, 1), nil, "07:30", 60, domain.StatusScheduled)
	tooFar := env.Book(usecasetest.Monday.AddDate(0, 0, 1), nil, "09:00", 60, domain.StatusScheduled)
	started := env.Book(usecasetest.Monday, nil, "07:00", 60, domain.StatusScheduled)
	pending := env.Book(usecasetest.Monday, nil, "16:00", 60, domain.StatusPendingPayment)

	uc := newUseCase(env, 0)

	report, err := uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Succeeded)
	assert.ElementsMatch(t, []int64{today.ID, tomorrow.ID}, env.Effects.RemindedIDs())

	assert.NotNil(t, env.Appointment(t, today.ID).ReminderSentAt)
	assert.Nil(t, env.Appointment(t, tooFar.ID).ReminderSentAt)
	assert.Nil(t, env.Appointment(t, started.ID).ReminderSentAt)
	assert.Nil(t, env.Appointment(t, pending.ID).ReminderSentAt)

	// Повторный проход не отправляет дважды
	report, err = uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Len(t, env.Effects.RemindedIDs(), 2)
}

func TestExecute_FailureReleasesClaim(t *testing.T) {
	env := usecasetest.NewEnv(t)
	ctx := context.Background()
	appt := env.Book(usecasetest.Monday, nil, "15:00", 60, domain.StatusScheduled)

	env.Effects.ReminderErr = func(*domain.Appointment) error { return errors.New("all channels failed") }
	uc := newUseCase(env, 0)

	report, err := uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	stored := env.Appointment(t, appt.ID)
	assert.Nil(t, stored.ReminderSentAt)
	assert.Nil(t, stored.ReminderClaimedAt)

	// Следующий проход повторяет отправку
	env.Effects.ReminderErr = nil
	report, err = uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
}

func TestExecute_SkipsFreshClaim(t *testing.T) {
	env := usecasetest.NewEnv(t)
	ctx := context.Background()
	appt := env.Book(usecasetest.Monday, nil, "15:00", 60, domain.StatusScheduled)

	claimed, err := env.Store.Appointments.ClaimReminder(ctx, appt.ID, env.Clock.Now(), env.Clock.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	require.True(t, claimed)

	uc := newUseCase(env, 0)

	report, err := uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, env.Effects.RemindedIDs())

	// Брошенный захват подбирается после ClaimTTL
	env.Clock.Advance(11 * time.Minute)
	report, err = uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
}

func TestExecute_PacesSends(t *testing.T) {
	env := usecasetest.NewEnv(t)
	env.Book(usecasetest.Monday, nil, "15:00", 30, domain.StatusScheduled)
	env.Book(usecasetest.Monday, nil, "15:30", 30, domain.StatusScheduled)
	env.Book(usecasetest.Monday, nil, "16:00", 30, domain.StatusScheduled)

	uc := newUseCase(env, 20*time.Millisecond)

	started := time.Now()
	report, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Succeeded)
	assert.GreaterOrEqual(t, time.Since(started), 40*time.Millisecond)
}
