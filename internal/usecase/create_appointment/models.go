package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// Request модель запроса на создание записи
type Request struct {
	Date           time.Time        // Дата записи (в часовом поясе салона)
	StartTime      types.TimeString // Время начала ("10:00")
	ServiceIDs     []int64          // Выбранные услуги
	StylistID      *int64           // nil = любой свободный мастер
	CustomerName   string
	CustomerEmail  string
	CustomerUserID *int64 // nil = клиент без регистрации
	Source         domain.BookingSource
}

// Response модель ответа с созданной записью
type Response struct {
	Appointment *domain.Appointment
	Deposit     *domain.Deposit // nil, если депозит не требуется
	PaymentURL  *string         // Ссылка на оплату депозита
}
