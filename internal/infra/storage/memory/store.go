package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// Store in-memory реализация хранилища расписания
// Используется в тестах и при локальном запуске без Postgres
type Store struct {
	state *state

	Appointments *AppointmentRepository
	Schedules    *ScheduleRepository
	Stylists     *StylistRepository
	Deposits     *DepositRepository
	Catalog      *CatalogRepository
	Settings     *SettingsRepository
	Contacts     *ContactRepository
	TxManager    *TxManager
}

type state struct {
	mu sync.Mutex

	appointments map[int64]*domain.Appointment
	deposits     map[int64]*domain.Deposit
	stylists     map[int64]*domain.Stylist
	schedules    map[int64]*domain.WeeklySchedule // 0 = салон
	blocks       map[int64]*domain.BlockedPeriod
	services     map[int64]*domain.Service
	contacts     []*domain.CustomerContact
	policy       *domain.DepositPolicy

	nextID int64
	now    func() time.Time

	// ключи, измененные текущей транзакцией; nil вне транзакции
	journal map[entity]map[int64]struct{}
}

type entity int

const (
	entityAppointment entity = iota
	entityDeposit
	entityStylist
	entitySchedule
	entityBlock
	entityPolicy
)

// NewStore создает пустое хранилище
func NewStore() *Store {
	st := &state{
		appointments: make(map[int64]*domain.Appointment),
		deposits:     make(map[int64]*domain.Deposit),
		stylists:     make(map[int64]*domain.Stylist),
		schedules:    make(map[int64]*domain.WeeklySchedule),
		blocks:       make(map[int64]*domain.BlockedPeriod),
		services:     make(map[int64]*domain.Service),
		now:          time.Now,
	}

	return &Store{
		state:        st,
		Appointments: &AppointmentRepository{st: st},
		Schedules:    &ScheduleRepository{st: st},
		Stylists:     &StylistRepository{st: st},
		Deposits:     &DepositRepository{st: st},
		Catalog:      &CatalogRepository{st: st},
		Settings:     &SettingsRepository{st: st},
		Contacts:     &ContactRepository{st: st},
		TxManager:    &TxManager{st: st},
	}
}

// SetClock подменяет источник времени для created_at/updated_at
func (s *Store) SetClock(now func() time.Time) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.now = now
}

// AddService добавляет услугу в справочник
func (s *Store) AddService(svc domain.Service) *domain.Service {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if svc.ID == 0 {
		svc.ID = s.state.id()
	}
	s.state.services[svc.ID] = &svc
	return &svc
}

// AddStylist добавляет мастера
func (s *Store) AddStylist(st domain.Stylist) *domain.Stylist {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if st.ID == 0 {
		st.ID = s.state.id()
	}
	st.CreatedAt = s.state.now()
	st.UpdatedAt = st.CreatedAt
	s.state.stylists[st.ID] = copyStylist(&st)
	return copyStylist(&st)
}

// AddContact добавляет привязку клиента к мессенджерам
func (s *Store) AddContact(c domain.CustomerContact) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	c.ID = s.state.id()
	s.state.contacts = append(s.state.contacts, &c)
}

// PutAppointment сохраняет запись как есть (для подготовки тестовых данных)
func (s *Store) PutAppointment(a domain.Appointment) *domain.Appointment {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.state.id()
	}
	s.state.appointments[a.ID] = copyAppointment(&a)
	return copyAppointment(&a)
}

func (st *state) id() int64 {
	st.nextID++
	return st.nextID
}

// touch отмечает ключ, измененный транзакцией; вызывается под st.mu
// Записи вне транзакции (например, из фоновых задач) в журнал не попадают
func (st *state) touch(ctx context.Context, kind entity, id int64) {
	if st.journal == nil || ctx.Value(txKey{}) == nil {
		return
	}
	keys, ok := st.journal[kind]
	if !ok {
		keys = make(map[int64]struct{})
		st.journal[kind] = keys
	}
	keys[id] = struct{}{}
}

type txKey struct{}

// TxManager сериализует транзакции и откатывает изменения при ошибке
type TxManager struct {
	st   *state
	txMu sync.Mutex
}

// Do выполняет fn в транзакции
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.DoSerializable(ctx, fn)
}

// DoSerializable выполняет fn эксклюзивно
// При ошибке откатываются только ключи, измененные внутри fn
func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.st.begin()
	err := fn(context.WithValue(ctx, txKey{}, true))
	m.st.finish(snapshot, err != nil)
	return err
}

type stateSnapshot struct {
	appointments map[int64]*domain.Appointment
	deposits     map[int64]*domain.Deposit
	stylists     map[int64]*domain.Stylist
	schedules    map[int64]*domain.WeeklySchedule
	blocks       map[int64]*domain.BlockedPeriod
	policy       *domain.DepositPolicy
}

func (st *state) begin() stateSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.journal = make(map[entity]map[int64]struct{})

	snap := stateSnapshot{
		appointments: make(map[int64]*domain.Appointment, len(st.appointments)),
		deposits:     make(map[int64]*domain.Deposit, len(st.deposits)),
		stylists:     make(map[int64]*domain.Stylist, len(st.stylists)),
		schedules:    make(map[int64]*domain.WeeklySchedule, len(st.schedules)),
		blocks:       make(map[int64]*domain.BlockedPeriod, len(st.blocks)),
	}
	for id, a := range st.appointments {
		snap.appointments[id] = copyAppointment(a)
	}
	for id, d := range st.deposits {
		cp := *d
		snap.deposits[id] = &cp
	}
	for id, s := range st.stylists {
		snap.stylists[id] = copyStylist(s)
	}
	for id, ws := range st.schedules {
		snap.schedules[id] = copySchedule(ws)
	}
	for id, b := range st.blocks {
		cp := *b
		snap.blocks[id] = &cp
	}
	if st.policy != nil {
		cp := *st.policy
		snap.policy = &cp
	}
	return snap
}

// finish закрывает журнал; при rollback возвращает измененные ключи к снимку
func (st *state) finish(snap stateSnapshot, rollback bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	journal := st.journal
	st.journal = nil
	if !rollback {
		return
	}

	for id := range journal[entityAppointment] {
		restoreKey(st.appointments, snap.appointments, id)
	}
	for id := range journal[entityDeposit] {
		restoreKey(st.deposits, snap.deposits, id)
	}
	for id := range journal[entityStylist] {
		restoreKey(st.stylists, snap.stylists, id)
	}
	for id := range journal[entitySchedule] {
		restoreKey(st.schedules, snap.schedules, id)
	}
	for id := range journal[entityBlock] {
		restoreKey(st.blocks, snap.blocks, id)
	}
	if _, ok := journal[entityPolicy]; ok {
		st.policy = snap.policy
	}
}

func restoreKey[T any](current, snap map[int64]*T, id int64) {
	if v, ok := snap[id]; ok {
		current[id] = v
		return
	}
	delete(current, id)
}

func copyAppointment(a *domain.Appointment) *domain.Appointment {
	cp := *a
	cp.Services = append([]domain.AppointmentService(nil), a.Services...)
	return &cp
}

func copyStylist(s *domain.Stylist) *domain.Stylist {
	cp := *s
	cp.ServiceIDs = append([]int64(nil), s.ServiceIDs...)
	if s.Calendar != nil {
		cal := *s.Calendar
		cp.Calendar = &cal
	}
	return &cp
}

func copySchedule(ws *domain.WeeklySchedule) *domain.WeeklySchedule {
	cp := *ws
	cp.Days = append([]domain.DaySchedule(nil), ws.Days...)
	return &cp
}

func scopeKey(stylistID *int64) int64 {
	if stylistID == nil {
		return 0
	}
	return *stylistID
}
