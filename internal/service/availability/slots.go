package availability

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// freeStarts перечисляет начала слотов внутри окна, не пересекающиеся с занятыми интервалами
// earliestMinute - минимальное допустимое начало (минуты суток), для сегодняшней даты
func freeStarts(window domain.Interval, busy []domain.Interval, step, duration, earliestMinute int) []int {
	result := make([]int, 0)

	for start := window.Start; start+duration <= window.End; start += step {
		if start < earliestMinute {
			continue
		}

		candidate := domain.Interval{Start: start, End: start + duration}
		if overlapsAny(candidate, busy) {
			continue
		}

		result = append(result, start)
	}

	return result
}

// overlapsAny проверяет пересечение с любым из интервалов
// Граничащие интервалы (10:00-11:00 и 11:00-11:30) не пересекаются
func overlapsAny(candidate domain.Interval, busy []domain.Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// busyIntervals собирает блокировки и активные записи мастера на дату
// Пересекающиеся блокировки не суммируются: проверка пересечения работает с объединением
func busyIntervals(day *dayData, date time.Time, stylistID *int64, exclude *int64) []domain.Interval {
	busy := make([]domain.Interval, 0, len(day.blocks)+len(day.appointments))

	for _, b := range day.blocks {
		if !b.AppliesTo(stylistID) {
			continue
		}
		if interval, ok := b.ClipToDate(date); ok {
			busy = append(busy, interval)
		}
	}

	for _, a := range day.appointments {
		if !a.IsActive() || !sameScope(a.StylistID, stylistID) {
			continue
		}
		if exclude != nil && a.ID == *exclude {
			continue
		}
		busy = append(busy, a.Interval())
	}

	return busy
}

// earliestStart возвращает минимальное начало слота (минуты суток) для даты
// -1 означает, что дата целиком в прошлом
func earliestStart(date, now time.Time, minNoticeMinutes int) int {
	threshold := now.Add(time.Duration(minNoticeMinutes) * time.Minute)

	dateKey := dayNumber(date)
	thresholdKey := dayNumber(threshold)

	switch {
	case dateKey > thresholdKey:
		return 0
	case dateKey < thresholdKey:
		return -1
	}

	minute := threshold.Hour()*60 + threshold.Minute()
	if threshold.Second() > 0 || threshold.Nanosecond() > 0 {
		minute++
	}
	return minute
}

// isDateInPast проверяет, что дата раньше сегодняшнего дня салона
func isDateInPast(date, now time.Time) bool {
	return dayNumber(date) < dayNumber(now)
}

// dayNumber порядковый номер календарного дня без учета часового пояса
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func sameScope(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// mergeStarts объединяет списки начал без повторов в порядке возрастания
func mergeStarts(lists ...[]int) []int {
	seen := make(map[int]struct{})
	result := make([]int, 0)
	for _, list := range lists {
		for _, start := range list {
			if _, ok := seen[start]; ok {
				continue
			}
			seen[start] = struct{}{}
			result = append(result, start)
		}
	}
	sort.Ints(result)
	return result
}

func containsStart(starts []int, start int) bool {
	i := sort.SearchInts(starts, start)
	return i < len(starts) && starts[i] == start
}
