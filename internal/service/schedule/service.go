package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/schedule"
	settingsRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/settings"
	stylistRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/stylist"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/deposits"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule/models"
)

// maxInvalidatedDays длиннее блокировки сбрасывают кэш целиком
const maxInvalidatedDays = 62

// границы выборки блокировок без периода
var (
	listFrom = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	listTo   = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Service административная поверхность: расписания, блокировки, политика депозитов
// Доступ проверяется middleware (только администратор)
type Service struct {
	scheduleRepo ScheduleRepository
	stylistRepo  StylistRepository
	settingsRepo SettingsRepository
	slots        SlotInvalidator
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(
	scheduleRepo ScheduleRepository,
	stylistRepo StylistRepository,
	settingsRepo SettingsRepository,
	slots SlotInvalidator,
	logger Logger,
) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		stylistRepo:  stylistRepo,
		settingsRepo: settingsRepo,
		slots:        slots,
		logger:       logger,
	}
}

// GetWeeklySchedule получает недельное расписание салона или мастера
func (s *Service) GetWeeklySchedule(ctx context.Context, stylistID *int64) (*models.WeeklyScheduleResponse, error) {
	if err := s.ensureStylist(ctx, stylistID); err != nil {
		return nil, err
	}

	ws, err := s.scheduleRepo.GetWeeklySchedule(ctx, stylistID)
	if err != nil {
		s.logger.Error("GetWeeklySchedule: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetWeeklySchedule - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainSchedule(ws), nil
}

// UpdateWeeklySchedule заменяет недельное расписание
// Для мастера дни, которых нет в запросе, берутся из расписания салона
func (s *Service) UpdateWeeklySchedule(ctx context.Context, req *models.UpdateWeeklyScheduleRequest) (*models.WeeklyScheduleResponse, error) {
	s.logger.Info("UpdateWeeklySchedule: stylist=%v, days=%d", req.StylistID, len(req.Days))

	if err := s.ensureStylist(ctx, req.StylistID); err != nil {
		return nil, err
	}

	ws, err := req.ToDomainSchedule()
	if err != nil {
		s.logger.Warn("UpdateWeeklySchedule: invalid time: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validateSchedule(ws); err != nil {
		s.logger.Warn("UpdateWeeklySchedule: validation failed: %v", err)
		return nil, err
	}

	if err := s.scheduleRepo.ReplaceWeeklySchedule(ctx, ws); err != nil {
		s.logger.Error("UpdateWeeklySchedule: repository error: %v", err)
		return nil, fmt.Errorf("%w: UpdateWeeklySchedule - repository error: %v", ErrInternal, err)
	}

	// недельное расписание влияет на все даты
	s.slots.InvalidateAll(ctx)

	return s.GetWeeklySchedule(ctx, req.StylistID)
}

// ListBlockedPeriods получает блокировки; без периода возвращает все
// С указанным мастером возвращаются его блокировки и блокировки салона
func (s *Service) ListBlockedPeriods(ctx context.Context, req *models.ListBlockedPeriodsRequest) (*models.BlockedPeriodListResponse, error) {
	filter := domain.BlockedPeriodFilter{
		From:      listFrom,
		To:        listTo,
		StylistID: req.StylistID,
		All:       req.StylistID == nil,
	}
	if req.From != nil || req.To != nil {
		if req.From == nil || req.To == nil || !req.From.Before(*req.To) {
			return nil, fmt.Errorf("%w: both from and to are required, from < to", ErrInvalidInput)
		}
		filter.From = *req.From
		filter.To = *req.To
	}

	blocks, err := s.scheduleRepo.ListBlockedPeriods(ctx, filter)
	if err != nil {
		s.logger.Error("ListBlockedPeriods: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListBlockedPeriods - repository error: %v", ErrInternal, err)
	}

	resp := &models.BlockedPeriodListResponse{BlockedPeriods: make([]models.BlockedPeriodResponse, 0, len(blocks))}
	for _, b := range blocks {
		resp.BlockedPeriods = append(resp.BlockedPeriods, models.FromDomainBlockedPeriod(b))
	}
	return resp, nil
}

// CreateBlockedPeriod создает блокировку салона или мастера
func (s *Service) CreateBlockedPeriod(ctx context.Context, req *models.CreateBlockedPeriodRequest) (*models.BlockedPeriodResponse, error) {
	s.logger.Info("CreateBlockedPeriod: stylist=%v, %s - %s", req.StylistID,
		req.StartsAt.Format(models.BlockTimeFormat), req.EndsAt.Format(models.BlockTimeFormat))

	if !req.StartsAt.Before(req.EndsAt) {
		return nil, fmt.Errorf("%w: startsAt must be before endsAt", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Reason) > domain.MaxBlockReasonLength {
		return nil, fmt.Errorf("%w: reason is too long", ErrInvalidInput)
	}
	if err := s.ensureStylist(ctx, req.StylistID); err != nil {
		return nil, err
	}

	created, err := s.scheduleRepo.CreateBlockedPeriod(ctx, &domain.BlockedPeriod{
		StylistID: req.StylistID,
		StartsAt:  domain.WallClock(req.StartsAt),
		EndsAt:    domain.WallClock(req.EndsAt),
		Reason:    req.Reason,
	})
	if err != nil {
		s.logger.Error("CreateBlockedPeriod: repository error: %v", err)
		return nil, fmt.Errorf("%w: CreateBlockedPeriod - repository error: %v", ErrInternal, err)
	}

	s.invalidateRange(ctx, created.StartsAt, created.EndsAt)

	s.logger.Info("CreateBlockedPeriod: created blocked period id=%d", created.ID)
	resp := models.FromDomainBlockedPeriod(created)
	return &resp, nil
}

// DeleteBlockedPeriod удаляет блокировку
func (s *Service) DeleteBlockedPeriod(ctx context.Context, id int64) error {
	deleted, err := s.scheduleRepo.DeleteBlockedPeriod(ctx, id)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrBlockedPeriodNotFound) {
			s.logger.Warn("DeleteBlockedPeriod: blocked period id=%d not found", id)
			return ErrBlockedPeriodNotFound
		}
		s.logger.Error("DeleteBlockedPeriod: repository error for id=%d: %v", id, err)
		return fmt.Errorf("%w: DeleteBlockedPeriod - repository error: %v", ErrInternal, err)
	}

	s.invalidateRange(ctx, deleted.StartsAt, deleted.EndsAt)

	s.logger.Info("DeleteBlockedPeriod: deleted blocked period id=%d", id)
	return nil
}

// GetDepositPolicy получает политику депозитов; без сохраненной политики депозиты выключены
func (s *Service) GetDepositPolicy(ctx context.Context) (*models.DepositPolicyResponse, error) {
	policy, err := s.settingsRepo.GetDepositPolicy(ctx)
	if errors.Is(err, settingsRepo.ErrPolicyNotFound) {
		return models.FromDomainPolicy(deposits.DefaultPolicy()), nil
	}
	if err != nil {
		s.logger.Error("GetDepositPolicy: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetDepositPolicy - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainPolicy(policy), nil
}

// UpdateDepositPolicy сохраняет политику депозитов
func (s *Service) UpdateDepositPolicy(ctx context.Context, req *models.UpdateDepositPolicyRequest) (*models.DepositPolicyResponse, error) {
	s.logger.Info("UpdateDepositPolicy: enabled=%t, percentage=%d, waiveAfterCompleted=%d",
		req.Enabled, req.Percentage, req.WaiveAfterCompleted)

	if req.Percentage < 0 || req.Percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be within 0..100", ErrInvalidInput)
	}
	if req.WaiveAfterCompleted < 0 {
		return nil, fmt.Errorf("%w: waiveAfterCompleted must not be negative", ErrInvalidInput)
	}

	saved, err := s.settingsRepo.SaveDepositPolicy(ctx, &domain.DepositPolicy{
		Enabled:             req.Enabled,
		Percentage:          req.Percentage,
		WaiveAfterCompleted: req.WaiveAfterCompleted,
	})
	if err != nil {
		s.logger.Error("UpdateDepositPolicy: repository error: %v", err)
		return nil, fmt.Errorf("%w: UpdateDepositPolicy - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainPolicy(saved), nil
}

// GetCalendarConnections статусы календарей всех мастеров
func (s *Service) GetCalendarConnections(ctx context.Context) (*models.CalendarConnectionListResponse, error) {
	stylists, err := s.stylistRepo.List(ctx, false)
	if err != nil {
		s.logger.Error("GetCalendarConnections: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetCalendarConnections - repository error: %v", ErrInternal, err)
	}

	resp := &models.CalendarConnectionListResponse{
		Connections: make([]models.CalendarConnectionResponse, 0, len(stylists)),
	}
	for _, st := range stylists {
		resp.Connections = append(resp.Connections, models.FromDomainStylist(st))
	}
	return resp, nil
}

func (s *Service) ensureStylist(ctx context.Context, stylistID *int64) error {
	if stylistID == nil {
		return nil
	}
	if _, err := s.stylistRepo.GetByID(ctx, *stylistID); err != nil {
		if errors.Is(err, stylistRepo.ErrStylistNotFound) {
			s.logger.Warn("ensureStylist: stylist id=%d not found", *stylistID)
			return ErrStylistNotFound
		}
		return fmt.Errorf("%w: ensureStylist - repository error: %v", ErrInternal, err)
	}
	return nil
}

// invalidateRange сбрасывает кэш слотов на все даты, которые задевает блокировка
func (s *Service) invalidateRange(ctx context.Context, from, to time.Time) {
	first := domain.DateOnly(from)
	last := domain.DateOnly(to.Add(-time.Nanosecond))

	if last.Sub(first) > maxInvalidatedDays*24*time.Hour {
		s.slots.InvalidateAll(ctx)
		return
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		s.slots.InvalidateDate(ctx, d)
	}
}

func validateSchedule(ws *domain.WeeklySchedule) error {
	seen := make(map[time.Weekday]bool, len(ws.Days))
	for _, d := range ws.Days {
		if d.Weekday < time.Sunday || d.Weekday > time.Saturday {
			return fmt.Errorf("%w: weekday %d is out of range 0..6", ErrInvalidInput, d.Weekday)
		}
		if seen[d.Weekday] {
			return fmt.Errorf("%w: weekday %d is defined twice", ErrInvalidInput, d.Weekday)
		}
		seen[d.Weekday] = true

		if !d.IsOpen {
			continue
		}
		if _, ok := d.Window(); !ok {
			return fmt.Errorf("%w: %s opening time must be before closing time", ErrInvalidInput, d.Weekday)
		}
	}
	return nil
}
