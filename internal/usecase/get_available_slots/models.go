package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	Date            time.Time // Дата (без времени, в часовом поясе салона)
	DurationMinutes int       // 0 = сумма длительностей ServiceIDs
	ServiceIDs      []int64   // Услуги; ограничивают выбор мастеров
	StylistID       *int64    // nil = любой подходящий мастер
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date            time.Time
	StylistID       *int64
	DurationMinutes int
	Slots           []types.TimeString // Начала свободных слотов по возрастанию
}
