package sideeffects

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
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/events"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/notifications"
	"github.com/m04kA/SMC-SalonScheduler/internal/worker"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
)

type recorder struct {
	mu        sync.Mutex
	synced    []int64
	removed   []int64
	moved     []move
	notified  []domain.NotificationKind
	published []events.Type
	notifyErr error
}

func (r *recorder) Sync(_ context.Context, a *domain.Appointment, _ *domain.Stylist) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced = append(r.synced, a.ID)
	return ptr.Ptr("evt"), nil
}

type move struct {
	appointmentID int64
	from, to      int64
}

func (r *recorder) Move(_ context.Context, a *domain.Appointment, from, to *domain.Stylist) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := move{appointmentID: a.ID}
	if from != nil {
		m.from = from.ID
	}
	if to != nil {
		m.to = to.ID
	}
	r.moved = append(r.moved, m)
	return ptr.Ptr("evt"), nil
}

func (r *recorder) Remove(_ context.Context, a *domain.Appointment, _ *domain.Stylist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, a.ID)
	return nil
}

func (r *recorder) Notify(_ context.Context, kind domain.NotificationKind, _ *domain.Appointment) (notifications.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, kind)
	return notifications.Result{Sent: r.notifyErr == nil, Channel: domain.ChannelEmail}, r.notifyErr
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, e.Type)
	return nil
}

func newScheduler(t *testing.T) (*Scheduler, *recorder, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	rec := &recorder{}
	log := logger.NewNop()
	s := NewScheduler(worker.Inline{Timeout: time.Second, Log: log}, store.Appointments, store.Stylists, rec, rec, rec, log)
	return s, rec, store
}

func putAppointment(store *memory.Store, stylistID *int64, status domain.AppointmentStatus) *domain.Appointment {
	return store.PutAppointment(domain.Appointment{
		Date:            time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		DurationMinutes: 60,
		StylistID:       stylistID,
		Status:          status,
		CustomerEmail:   "c@example.com",
	})
}

func TestScheduled_RunsAllEffects(t *testing.T) {
	s, rec, store := newScheduler(t)
	stylist := store.AddStylist(domain.Stylist{Name: "Anna", IsActive: true})
	appt := putAppointment(store, ptr.Ptr(stylist.ID), domain.StatusScheduled)

	s.Scheduled(appt)

	assert.Equal(t, []int64{appt.ID}, rec.synced)
	assert.Equal(t, []domain.NotificationKind{domain.NotificationConfirmation}, rec.notified)
	assert.Equal(t, []events.Type{events.TypeScheduled}, rec.published)
}

func TestScheduled_SkipsCalendarForCancelled(t *testing.T) {
	s, rec, store := newScheduler(t)
	appt := putAppointment(store, nil, domain.StatusCancelled)

	s.Scheduled(appt)

	assert.Empty(t, rec.synced)
}

func TestCancelled(t *testing.T) {
	s, rec, store := newScheduler(t)
	appt := putAppointment(store, nil, domain.StatusCancelled)

	s.Cancelled(appt, false)
	assert.Equal(t, []int64{appt.ID}, rec.removed)
	assert.Empty(t, rec.notified)
	assert.Equal(t, []events.Type{events.TypeCancelled}, rec.published)

	s.Cancelled(appt, true)
	assert.Equal(t, []domain.NotificationKind{domain.NotificationCancellation}, rec.notified)
}

func TestNotificationFailureDoesNotPanic(t *testing.T) {
	s, rec, store := newScheduler(t)
	rec.notifyErr = errors.New("smtp down")
	appt := putAppointment(store, nil, domain.StatusScheduled)

	s.Rescheduled(appt, nil)

	assert.Equal(t, []domain.NotificationKind{domain.NotificationReschedule}, rec.notified)
	assert.Equal(t, []events.Type{events.TypeRescheduled}, rec.published)

	err := s.Reminder(context.Background(), appt)
	require.Error(t, err)
}

type fullExecutor struct{}

func (fullExecutor) Submit(worker.Task) error { return worker.ErrQueueFull }

func TestSubmitFailureIsLogged(t *testing.T) {
	store := memory.NewStore()
	rec := &recorder{}
	s := NewScheduler(fullExecutor{}, store.Appointments, store.Stylists, rec, rec, rec, logger.NewNop())

	s.Completed(&domain.Appointment{ID: 1})

	assert.Empty(t, rec.published)
}

func TestRescheduled_Calendar(t *testing.T) {
	t.Run("same stylist updates event", func(t *testing.T) {
		s, rec, store := newScheduler(t)
		anna := store.AddStylist(domain.Stylist{Name: "Anna", IsActive: true})
		appt := putAppointment(store, ptr.Ptr(anna.ID), domain.StatusScheduled)

		s.Rescheduled(appt, ptr.Ptr(anna.ID))

		assert.Equal(t, []int64{appt.ID}, rec.synced)
		assert.Empty(t, rec.moved)
	})

	t.Run("new stylist moves event", func(t *testing.T) {
		s, rec, store := newScheduler(t)
		anna := store.AddStylist(domain.Stylist{Name: "Anna", IsActive: true})
		bob := store.AddStylist(domain.Stylist{Name: "Bob", IsActive: true})
		appt := putAppointment(store, ptr.Ptr(bob.ID), domain.StatusScheduled)

		s.Rescheduled(appt, ptr.Ptr(anna.ID))

		assert.Empty(t, rec.synced)
		assert.Equal(t, []move{{appointmentID: appt.ID, from: anna.ID, to: bob.ID}}, rec.moved)
		assert.Equal(t, []domain.NotificationKind{domain.NotificationReschedule}, rec.notified)
	})
}
