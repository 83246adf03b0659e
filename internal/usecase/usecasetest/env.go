// Package usecasetest окружение для тестов usecase поверх in-memory хранилища
package usecasetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/payments"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/availability"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/deposits"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// Monday 2026-03-02, понедельник
var Monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// Услуги справочника
const (
	ServiceHaircut int64 = 1 // 60 минут, 3000
	ServiceColor   int64 = 2 // 90 минут, 5000
	ServiceWash    int64 = 3 // 30 минут, 1000
)

// Clock управляемое время
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now текущее время
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set устанавливает время
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance сдвигает время вперед
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Effects запоминает поставленные побочные эффекты
type Effects struct {
	mu          sync.Mutex
	scheduled   []int64
	rescheduled []int64
	cancelled   []int64
	notified    []int64
	completed   []int64
	reminded    []int64
	ReminderErr func(a *domain.Appointment) error
}

// Scheduled реализует постановку эффектов подтверждения
func (e *Effects) Scheduled(a *domain.Appointment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduled = append(e.scheduled, a.ID)
}

// Rescheduled реализует постановку эффектов переноса
func (e *Effects) Rescheduled(a *domain.Appointment, _ *int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rescheduled = append(e.rescheduled, a.ID)
}

// Cancelled реализует постановку эффектов отмены
func (e *Effects) Cancelled(a *domain.Appointment, notifyCustomer bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled = append(e.cancelled, a.ID)
	if notifyCustomer {
		e.notified = append(e.notified, a.ID)
	}
}

// Completed реализует постановку эффектов завершения
func (e *Effects) Completed(a *domain.Appointment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed = append(e.completed, a.ID)
}

// Reminder синхронная отправка напоминания
func (e *Effects) Reminder(_ context.Context, a *domain.Appointment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ReminderErr != nil {
		if err := e.ReminderErr(a); err != nil {
			return err
		}
	}
	e.reminded = append(e.reminded, a.ID)
	return nil
}

// ScheduledIDs записи с эффектами подтверждения
func (e *Effects) ScheduledIDs() []int64 { return e.snapshot(&e.scheduled) }

// RescheduledIDs записи с эффектами переноса
func (e *Effects) RescheduledIDs() []int64 { return e.snapshot(&e.rescheduled) }

// CancelledIDs записи с эффектами отмены
func (e *Effects) CancelledIDs() []int64 { return e.snapshot(&e.cancelled) }

// NotifiedCancellationIDs отмены с уведомлением клиента
func (e *Effects) NotifiedCancellationIDs() []int64 { return e.snapshot(&e.notified) }

// CompletedIDs завершенные записи
func (e *Effects) CompletedIDs() []int64 { return e.snapshot(&e.completed) }

// RemindedIDs записи с отправленным напоминанием
func (e *Effects) RemindedIDs() []int64 { return e.snapshot(&e.reminded) }

func (e *Effects) snapshot(ids *[]int64) []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int64(nil), (*ids)...)
}

// Provider фейковый платежный провайдер
type Provider struct {
	mu       sync.Mutex
	Err      error
	Event    *payments.PaymentEvent
	ParseErr error
	Requests []payments.CheckoutRequest
}

// CreateCheckout создает фейковую checkout-сессию
func (p *Provider) CreateCheckout(_ context.Context, req payments.CheckoutRequest) (*payments.Checkout, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, req)
	if p.Err != nil {
		return nil, p.Err
	}
	ref := fmt.Sprintf("cs_test_%d", req.DepositID)
	return &payments.Checkout{ExternalRef: ref, PaymentURL: "https://pay.example/" + ref}, nil
}

// ParseWebhook возвращает заданное событие
func (p *Provider) ParseWebhook(_ []byte, _ string) (*payments.PaymentEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Event, p.ParseErr
}

// Env собранное окружение
type Env struct {
	Store      *memory.Store
	Clock      *Clock
	Calculator *availability.Calculator
	Deposits   *deposits.Manager
	Provider   *Provider
	Effects    *Effects
	Log        *logger.Logger
}

// NewEnv салон открыт 09:00-17:00 ежедневно, шаг 30 минут, время - понедельник 08:00 UTC
func NewEnv(t testing.TB) *Env {
	t.Helper()

	store := memory.NewStore()
	clock := &Clock{now: Monday.Add(8 * time.Hour)}
	store.SetClock(clock.Now)
	log := logger.NewNop()

	require.NoError(t, store.Schedules.ReplaceWeeklySchedule(context.Background(), OpenWeek(nil, "09:00", "17:00")))

	store.AddService(domain.Service{ID: ServiceHaircut, Name: "Haircut", DurationMinutes: 60, Price: 3000, IsActive: true})
	store.AddService(domain.Service{ID: ServiceColor, Name: "Color", DurationMinutes: 90, Price: 5000, IsActive: true})
	store.AddService(domain.Service{ID: ServiceWash, Name: "Wash", DurationMinutes: 30, Price: 1000, IsActive: true})

	calc := availability.NewCalculator(store.Schedules, store.Appointments, store.Stylists, nil, nil,
		availability.Config{StepMinutes: 30, Location: time.UTC}, log).WithTimeProvider(clock)

	provider := &Provider{}
	manager := deposits.NewManager(store.Settings, store.Appointments, store.Deposits, provider,
		deposits.Config{Currency: "rub"}, log)

	return &Env{
		Store:      store,
		Clock:      clock,
		Calculator: calc,
		Deposits:   manager,
		Provider:   provider,
		Effects:    &Effects{},
		Log:        log,
	}
}

// OpenWeek расписание, открытое каждый день в указанные часы
func OpenWeek(stylistID *int64, open, close string) *domain.WeeklySchedule {
	days := make([]domain.DaySchedule, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		days = append(days, domain.DaySchedule{
			Weekday:   wd,
			IsOpen:    true,
			OpenTime:  types.TimeString(open),
			CloseTime: types.TimeString(close),
		})
	}
	return &domain.WeeklySchedule{StylistID: stylistID, Days: days}
}

// AddStylist добавляет активного мастера; без услуг мастер выполняет все
func (e *Env) AddStylist(id int64, serviceIDs ...int64) *domain.Stylist {
	return e.Store.AddStylist(domain.Stylist{
		ID:         id,
		Name:       fmt.Sprintf("Stylist %d", id),
		IsActive:   true,
		ServiceIDs: serviceIDs,
	})
}

// EnableDeposits включает политику депозитов
func (e *Env) EnableDeposits(t testing.TB, percentage int64, waiveAfterCompleted int) {
	t.Helper()
	_, err := e.Store.Settings.SaveDepositPolicy(context.Background(), &domain.DepositPolicy{
		Enabled:             true,
		Percentage:          percentage,
		WaiveAfterCompleted: waiveAfterCompleted,
	})
	require.NoError(t, err)
}

// Book сохраняет запись напрямую в хранилище
func (e *Env) Book(date time.Time, stylistID *int64, start string, minutes int, status domain.AppointmentStatus) *domain.Appointment {
	return e.Store.PutAppointment(domain.Appointment{
		Date:            date,
		StartTime:       types.TimeString(start),
		DurationMinutes: minutes,
		StylistID:       stylistID,
		Status:          status,
		Source:          domain.SourceWeb,
		CustomerName:    "Anna",
		CustomerEmail:   "anna@example.com",
		CreatedAt:       e.Clock.Now(),
		UpdatedAt:       e.Clock.Now(),
	})
}

// Appointment читает запись из хранилища
func (e *Env) Appointment(t testing.TB, id int64) *domain.Appointment {
	t.Helper()
	a, err := e.Store.Appointments.GetByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

// Deposit читает депозит из хранилища
func (e *Env) Deposit(t testing.TB, id int64) *domain.Deposit {
	t.Helper()
	d, err := e.Store.Deposits.GetByID(context.Background(), id)
	require.NoError(t, err)
	return d
}
