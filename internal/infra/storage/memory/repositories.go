package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	catalogRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/catalog"
	contactRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/contact"
	depositRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/deposit"
	scheduleRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/schedule"
	settingsRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/settings"
	stylistRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/stylist"
)

// ScheduleRepository in-memory репозиторий расписаний и блокировок
type ScheduleRepository struct {
	st *state
}

// GetWeeklySchedule получает недельное расписание салона или мастера
func (r *ScheduleRepository) GetWeeklySchedule(_ context.Context, stylistID *int64) (*domain.WeeklySchedule, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	ws, ok := r.st.schedules[scopeKey(stylistID)]
	if !ok {
		return &domain.WeeklySchedule{StylistID: stylistID, Days: make([]domain.DaySchedule, 0)}, nil
	}
	return copySchedule(ws), nil
}

// ReplaceWeeklySchedule заменяет недельное расписание целиком
func (r *ScheduleRepository) ReplaceWeeklySchedule(ctx context.Context, schedule *domain.WeeklySchedule) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	cp := copySchedule(schedule)
	sort.Slice(cp.Days, func(i, j int) bool { return cp.Days[i].Weekday < cp.Days[j].Weekday })
	cp.UpdatedAt = r.st.now()
	r.st.touch(ctx, entitySchedule, scopeKey(schedule.StylistID))
	r.st.schedules[scopeKey(schedule.StylistID)] = cp
	schedule.UpdatedAt = cp.UpdatedAt

	return nil
}

// ListBlockedPeriods получает блокировки, пересекающие [From, To)
func (r *ScheduleRepository) ListBlockedPeriods(_ context.Context, filter domain.BlockedPeriodFilter) ([]*domain.BlockedPeriod, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	from := domain.WallClock(filter.From)
	to := domain.WallClock(filter.To)

	result := make([]*domain.BlockedPeriod, 0)
	for _, b := range r.st.blocks {
		if !domain.WallClock(b.StartsAt).Before(to) || !domain.WallClock(b.EndsAt).After(from) {
			continue
		}
		if !filter.All {
			if filter.StylistID == nil && b.StylistID != nil {
				continue
			}
			if filter.StylistID != nil && !b.AppliesTo(filter.StylistID) {
				continue
			}
		}
		cp := *b
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartsAt.Equal(result[j].StartsAt) {
			return result[i].StartsAt.Before(result[j].StartsAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// CreateBlockedPeriod создает блокировку
func (r *ScheduleRepository) CreateBlockedPeriod(ctx context.Context, block *domain.BlockedPeriod) (*domain.BlockedPeriod, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	block.ID = r.st.id()
	r.st.touch(ctx, entityBlock, block.ID)
	block.CreatedAt = r.st.now()
	cp := *block
	r.st.blocks[block.ID] = &cp

	return block, nil
}

// DeleteBlockedPeriod удаляет блокировку и возвращает удаленную запись
func (r *ScheduleRepository) DeleteBlockedPeriod(ctx context.Context, id int64) (*domain.BlockedPeriod, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	b, ok := r.st.blocks[id]
	if !ok {
		return nil, scheduleRepo.ErrBlockedPeriodNotFound
	}
	r.st.touch(ctx, entityBlock, id)
	delete(r.st.blocks, id)

	return b, nil
}

// StylistRepository in-memory репозиторий мастеров
type StylistRepository struct {
	st *state
}

// GetByID получает мастера по ID
func (r *StylistRepository) GetByID(_ context.Context, id int64) (*domain.Stylist, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	s, ok := r.st.stylists[id]
	if !ok {
		return nil, stylistRepo.ErrStylistNotFound
	}
	return copyStylist(s), nil
}

// List получает мастеров, упорядоченных по ID
func (r *StylistRepository) List(_ context.Context, onlyActive bool) ([]*domain.Stylist, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	result := make([]*domain.Stylist, 0, len(r.st.stylists))
	for _, s := range r.st.stylists {
		if onlyActive && !s.IsActive {
			continue
		}
		result = append(result, copyStylist(s))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

// UpdateCalendarToken сохраняет обновленный токен календаря
func (r *StylistRepository) UpdateCalendarToken(ctx context.Context, id int64, accessToken, refreshToken string, expiry time.Time) error {
	return r.update(ctx, id, func(s *domain.Stylist) {
		if s.Calendar == nil {
			s.Calendar = &domain.CalendarConnection{}
		}
		s.Calendar.AccessToken = accessToken
		s.Calendar.RefreshToken = refreshToken
		s.Calendar.TokenExpiry = expiry
	})
}

// SetCalendarNeedsReconnect выставляет признак необходимости переподключения календаря
func (r *StylistRepository) SetCalendarNeedsReconnect(ctx context.Context, id int64, needsReconnect bool) error {
	return r.update(ctx, id, func(s *domain.Stylist) {
		if s.Calendar != nil {
			s.Calendar.NeedsReconnect = needsReconnect
		}
	})
}

func (r *StylistRepository) update(ctx context.Context, id int64, fn func(s *domain.Stylist)) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	s, ok := r.st.stylists[id]
	if !ok {
		return stylistRepo.ErrStylistNotFound
	}
	r.st.touch(ctx, entityStylist, id)
	fn(s)
	s.UpdatedAt = r.st.now()
	return nil
}

// DepositRepository in-memory репозиторий депозитов
type DepositRepository struct {
	st *state
}

// Create сохраняет депозит; на запись допускается только один депозит
func (r *DepositRepository) Create(ctx context.Context, d *domain.Deposit) (*domain.Deposit, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, existing := range r.st.deposits {
		if existing.AppointmentID == d.AppointmentID {
			return nil, depositRepo.ErrDepositExists
		}
	}

	d.ID = r.st.id()
	r.st.touch(ctx, entityDeposit, d.ID)
	d.CreatedAt = r.st.now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	r.st.deposits[d.ID] = &cp

	return d, nil
}

// GetByID получает депозит по ID
func (r *DepositRepository) GetByID(_ context.Context, id int64) (*domain.Deposit, error) {
	return r.find(func(d *domain.Deposit) bool { return d.ID == id })
}

// GetByAppointmentID получает депозит записи
func (r *DepositRepository) GetByAppointmentID(_ context.Context, appointmentID int64) (*domain.Deposit, error) {
	return r.find(func(d *domain.Deposit) bool { return d.AppointmentID == appointmentID })
}

// GetByExternalRef получает депозит по идентификатору checkout-сессии
func (r *DepositRepository) GetByExternalRef(_ context.Context, ref string) (*domain.Deposit, error) {
	return r.find(func(d *domain.Deposit) bool { return d.ExternalRef != nil && *d.ExternalRef == ref })
}

// AttachCheckout сохраняет данные checkout-сессии
func (r *DepositRepository) AttachCheckout(ctx context.Context, id int64, externalRef, paymentURL string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	d, ok := r.st.deposits[id]
	if !ok {
		return depositRepo.ErrDepositNotFound
	}
	r.st.touch(ctx, entityDeposit, id)
	d.ExternalRef = &externalRef
	d.PaymentURL = &paymentURL
	d.UpdatedAt = r.st.now()

	return nil
}

// Transition выполняет условный переход статуса депозита
func (r *DepositRepository) Transition(ctx context.Context, id int64, from, to domain.DepositStatus, at time.Time) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	d, ok := r.st.deposits[id]
	if !ok || d.Status != from {
		return false, nil
	}

	r.st.touch(ctx, entityDeposit, id)
	d.Status = to
	d.UpdatedAt = at
	switch to {
	case domain.DepositPaid:
		d.PaidAt = &at
	case domain.DepositForfeited:
		d.ForfeitedAt = &at
	}

	return true, nil
}

func (r *DepositRepository) find(match func(d *domain.Deposit) bool) (*domain.Deposit, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, d := range r.st.deposits {
		if match(d) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, depositRepo.ErrDepositNotFound
}

// CatalogRepository in-memory справочник услуг
type CatalogRepository struct {
	st *state
}

// GetServicesByIDs получает услуги в порядке запрошенных ID
func (r *CatalogRepository) GetServicesByIDs(_ context.Context, ids []int64) ([]*domain.Service, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	result := make([]*domain.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := r.st.services[id]
		if !ok {
			return nil, fmt.Errorf("%w: id=%d", catalogRepo.ErrServiceNotFound, id)
		}
		cp := *svc
		result = append(result, &cp)
	}

	return result, nil
}

// SettingsRepository in-memory хранилище политики депозитов
type SettingsRepository struct {
	st *state
}

// GetDepositPolicy получает политику депозитов
func (r *SettingsRepository) GetDepositPolicy(_ context.Context) (*domain.DepositPolicy, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if r.st.policy == nil {
		return nil, settingsRepo.ErrPolicyNotFound
	}
	cp := *r.st.policy
	return &cp, nil
}

// SaveDepositPolicy создает или обновляет политику депозитов
func (r *SettingsRepository) SaveDepositPolicy(ctx context.Context, policy *domain.DepositPolicy) (*domain.DepositPolicy, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	r.st.touch(ctx, entityPolicy, 0)
	policy.UpdatedAt = r.st.now()
	cp := *policy
	r.st.policy = &cp

	return policy, nil
}

// ContactRepository in-memory хранилище привязок к мессенджерам
type ContactRepository struct {
	st *state
}

// FindByCustomer ищет привязку по ID пользователя или email
func (r *ContactRepository) FindByCustomer(_ context.Context, email string, userID *int64) (*domain.CustomerContact, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var byEmail *domain.CustomerContact
	for i := len(r.st.contacts) - 1; i >= 0; i-- {
		c := r.st.contacts[i]
		if userID != nil && c.UserID != nil && *c.UserID == *userID {
			cp := *c
			return &cp, nil
		}
		if byEmail == nil && c.Email != nil && strings.EqualFold(*c.Email, email) {
			byEmail = c
		}
	}

	if byEmail == nil {
		return nil, contactRepo.ErrContactNotFound
	}
	cp := *byEmail
	return &cp, nil
}
