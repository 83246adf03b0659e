package models

import (
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// BlockTimeFormat формат границ блокировки (настенное время салона)
const BlockTimeFormat = "2006-01-02T15:04"

// Request модели

// DayScheduleDTO расписание дня недели (0 = воскресенье)
type DayScheduleDTO struct {
	Weekday   int    `json:"weekday"`
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime,omitempty"`  // "09:00"
	CloseTime string `json:"closeTime,omitempty"` // "18:00"
}

// UpdateWeeklyScheduleRequest замена недельного расписания салона или мастера
type UpdateWeeklyScheduleRequest struct {
	StylistID *int64           `json:"stylistId,omitempty"` // nil = салон
	Days      []DayScheduleDTO `json:"days"`
}

// CreateBlockedPeriodRequest запрос на создание блокировки
type CreateBlockedPeriodRequest struct {
	StylistID *int64    // nil = весь салон
	StartsAt  time.Time // настенное время
	EndsAt    time.Time
	Reason    string
}

// ListBlockedPeriodsRequest выборка блокировок
type ListBlockedPeriodsRequest struct {
	From      *time.Time
	To        *time.Time
	StylistID *int64
}

// UpdateDepositPolicyRequest запрос на изменение политики депозитов
type UpdateDepositPolicyRequest struct {
	Enabled             bool  `json:"enabled"`
	Percentage          int64 `json:"percentage"`
	WaiveAfterCompleted int   `json:"waiveAfterCompleted"`
}

// Response модели

// WeeklyScheduleResponse недельное расписание
type WeeklyScheduleResponse struct {
	StylistID *int64           `json:"stylistId,omitempty"`
	Days      []DayScheduleDTO `json:"days"`
	UpdatedAt *time.Time       `json:"updatedAt,omitempty"`
}

// BlockedPeriodResponse блокировка
type BlockedPeriodResponse struct {
	ID        int64     `json:"id"`
	StylistID *int64    `json:"stylistId,omitempty"`
	StartsAt  string    `json:"startsAt"`
	EndsAt    string    `json:"endsAt"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlockedPeriodListResponse список блокировок
type BlockedPeriodListResponse struct {
	BlockedPeriods []BlockedPeriodResponse `json:"blockedPeriods"`
}

// DepositPolicyResponse политика депозитов
type DepositPolicyResponse struct {
	Enabled             bool       `json:"enabled"`
	Percentage          int64      `json:"percentage"`
	WaiveAfterCompleted int        `json:"waiveAfterCompleted"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
}

// CalendarConnectionResponse статус календаря мастера
type CalendarConnectionResponse struct {
	StylistID      int64      `json:"stylistId"`
	StylistName    string     `json:"stylistName"`
	IsActive       bool       `json:"isActive"`
	Connected      bool       `json:"connected"`
	NeedsReconnect bool       `json:"needsReconnect"`
	CalendarID     *string    `json:"calendarId,omitempty"`
	TokenExpiry    *time.Time `json:"tokenExpiry,omitempty"`
}

// CalendarConnectionListResponse статусы календарей всех мастеров
type CalendarConnectionListResponse struct {
	Connections []CalendarConnectionResponse `json:"connections"`
}

// Методы конвертации

// ToDomainSchedule конвертирует запрос в domain модель
func (r *UpdateWeeklyScheduleRequest) ToDomainSchedule() (*domain.WeeklySchedule, error) {
	ws := &domain.WeeklySchedule{
		StylistID: r.StylistID,
		Days:      make([]domain.DaySchedule, 0, len(r.Days)),
	}
	for _, d := range r.Days {
		day := domain.DaySchedule{Weekday: time.Weekday(d.Weekday), IsOpen: d.IsOpen}
		if d.IsOpen {
			open, err := types.NewTimeStringFromString(d.OpenTime)
			if err != nil {
				return nil, err
			}
			closeTime, err := types.NewTimeStringFromString(d.CloseTime)
			if err != nil {
				return nil, err
			}
			day.OpenTime, day.CloseTime = open, closeTime
		}
		ws.Days = append(ws.Days, day)
	}
	return ws, nil
}

// FromDomainSchedule конвертирует расписание в DTO
func FromDomainSchedule(ws *domain.WeeklySchedule) *WeeklyScheduleResponse {
	resp := &WeeklyScheduleResponse{
		StylistID: ws.StylistID,
		Days:      make([]DayScheduleDTO, 0, len(ws.Days)),
	}
	for _, d := range ws.Days {
		resp.Days = append(resp.Days, DayScheduleDTO{
			Weekday:   int(d.Weekday),
			IsOpen:    d.IsOpen,
			OpenTime:  d.OpenTime.String(),
			CloseTime: d.CloseTime.String(),
		})
	}
	if !ws.UpdatedAt.IsZero() {
		updated := ws.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// FromDomainBlockedPeriod конвертирует блокировку в DTO
func FromDomainBlockedPeriod(b *domain.BlockedPeriod) BlockedPeriodResponse {
	return BlockedPeriodResponse{
		ID:        b.ID,
		StylistID: b.StylistID,
		StartsAt:  b.StartsAt.Format(BlockTimeFormat),
		EndsAt:    b.EndsAt.Format(BlockTimeFormat),
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}
}

// FromDomainPolicy конвертирует политику в DTO
func FromDomainPolicy(p *domain.DepositPolicy) *DepositPolicyResponse {
	resp := &DepositPolicyResponse{
		Enabled:             p.Enabled,
		Percentage:          p.Percentage,
		WaiveAfterCompleted: p.WaiveAfterCompleted,
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// FromDomainStylist конвертирует статус календаря мастера в DTO
func FromDomainStylist(s *domain.Stylist) CalendarConnectionResponse {
	resp := CalendarConnectionResponse{
		StylistID:   s.ID,
		StylistName: s.Name,
		IsActive:    s.IsActive,
		Connected:   s.HasCalendar(),
	}
	if s.Calendar != nil {
		resp.NeedsReconnect = s.Calendar.NeedsReconnect
		if s.Calendar.CalendarID != "" {
			id := s.Calendar.CalendarID
			resp.CalendarID = &id
		}
		if !s.Calendar.TokenExpiry.IsZero() {
			expiry := s.Calendar.TokenExpiry
			resp.TokenExpiry = &expiry
		}
	}
	return resp
}
