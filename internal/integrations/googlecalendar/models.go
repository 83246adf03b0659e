package googlecalendar

import "time"

// Token OAuth-токены календаря мастера
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Connection календарь мастера
type Connection struct {
	CalendarID string
	Token      Token
}

// Event данные события записи
type Event struct {
	AppointmentID int64
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	TimeZone      string
}

// Result результат вызова; RefreshedToken != nil, если токен был обновлен и его нужно сохранить
type Result struct {
	EventID        string
	RefreshedToken *Token
}
