package domain

import (
	"time"

	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

const minutesPerDay = 24 * 60

// DaySchedule opening hours for one weekday
type DaySchedule struct {
	Weekday   time.Weekday
	IsOpen    bool
	OpenTime  types.TimeString
	CloseTime types.TimeString
}

// Window returns the open interval of the day; false for closed or zero-length days
func (d DaySchedule) Window() (Interval, bool) {
	if !d.IsOpen || d.OpenTime.IsZero() || d.CloseTime.IsZero() {
		return Interval{}, false
	}
	w := Interval{Start: d.OpenTime.Minutes(), End: d.CloseTime.Minutes()}
	if w.Start < 0 || w.End < 0 || w.IsEmpty() {
		return Interval{}, false
	}
	return w, true
}

// WeeklySchedule salon (StylistID == nil) or stylist working hours
// A stylist schedule may define only some weekdays; the rest fall back to the salon
type WeeklySchedule struct {
	StylistID *int64
	Days      []DaySchedule
	UpdatedAt time.Time
}

// Day returns the schedule for a weekday if defined
func (w *WeeklySchedule) Day(weekday time.Weekday) (DaySchedule, bool) {
	if w == nil {
		return DaySchedule{}, false
	}
	for _, d := range w.Days {
		if d.Weekday == weekday {
			return d, true
		}
	}
	return DaySchedule{}, false
}

// EffectiveDay resolves the opening hours for a date: stylist override first, salon default otherwise
func EffectiveDay(salon, stylist *WeeklySchedule, date time.Time) DaySchedule {
	weekday := date.Weekday()
	if d, ok := stylist.Day(weekday); ok {
		return d
	}
	if d, ok := salon.Day(weekday); ok {
		return d
	}
	return DaySchedule{Weekday: weekday, IsOpen: false}
}

// BlockedPeriod removes availability regardless of the weekly schedule
// StartsAt/EndsAt are salon wall-clock values
type BlockedPeriod struct {
	ID        int64
	StylistID *int64 // nil = salon-wide
	StartsAt  time.Time
	EndsAt    time.Time
	Reason    string
	CreatedAt time.Time
}

// IsSalonWide returns true for blocks affecting every stylist
func (b *BlockedPeriod) IsSalonWide() bool {
	return b.StylistID == nil
}

// AppliesTo returns true if the block affects the given stylist (nil = salon-level query)
func (b *BlockedPeriod) AppliesTo(stylistID *int64) bool {
	if b.StylistID == nil {
		return true
	}
	return stylistID != nil && *b.StylistID == *stylistID
}

// ClipToDate returns the part of the block falling on date, in minutes of the day
func (b *BlockedPeriod) ClipToDate(date time.Time) (Interval, bool) {
	dayStart := WallClock(time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC))
	dayEnd := dayStart.Add(minutesPerDay * time.Minute)

	start := WallClock(b.StartsAt)
	end := WallClock(b.EndsAt)

	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}
	if !start.Before(end) {
		return Interval{}, false
	}

	return Interval{
		Start: int(start.Sub(dayStart) / time.Minute),
		End:   int((end.Sub(dayStart) + time.Minute - 1) / time.Minute),
	}, true
}

// BlockedPeriodFilter фильтр выборки блокировок
type BlockedPeriodFilter struct {
	From      time.Time // Пересекает [From, To)
	To        time.Time
	StylistID *int64 // Блокировки мастера и салона; nil = только салона
	All       bool   // Все блокировки (для админки)
}

// WallClock drops the location of t keeping its wall-clock reading
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DateOnly truncates t to its calendar date, keeping the location
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
