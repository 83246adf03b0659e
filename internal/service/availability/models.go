package availability

import (
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// SlotQuery параметры расчета слотов
type SlotQuery struct {
	Date            time.Time // календарная дата в часовом поясе салона
	StylistID       *int64    // nil = любой подходящий мастер
	DurationMinutes int
	ServiceIDs      []int64
	// ExcludeAppointmentID не учитывается как занятость (перенос записи)
	ExcludeAppointmentID *int64
	// SkipStylistIDs не рассматриваются при выборе любого мастера
	SkipStylistIDs []int64
}

// Config параметры расчета
type Config struct {
	StepMinutes      int
	MinNoticeMinutes int
	Location         *time.Location
}

// dayData снимок расписания на дату
type dayData struct {
	salon        *domain.WeeklySchedule
	blocks       []*domain.BlockedPeriod
	appointments []*domain.Appointment
}

// target мастер, для которого считаются слоты; stylist == nil означает уровень салона
type target struct {
	stylist *domain.Stylist
}

func (t target) stylistID() *int64 {
	if t.stylist == nil {
		return nil
	}
	return &t.stylist.ID
}
