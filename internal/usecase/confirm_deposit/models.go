package confirm_deposit

// Outcome результат обработки сигнала об оплате
type Outcome string

const (
	// OutcomeConfirmed депозит оплачен, запись подтверждена
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeAlreadyConfirmed повторный сигнал, ничего не изменилось
	OutcomeAlreadyConfirmed Outcome = "already_confirmed"
	// OutcomeHoldExpired оплата пришла после истечения холда, запись не восстанавливается
	OutcomeHoldExpired Outcome = "hold_expired"
	// OutcomeIgnored событие не относится к известному депозиту
	OutcomeIgnored Outcome = "ignored"
)

// Request модель запроса: тело и подпись webhook провайдера
type Request struct {
	Payload   []byte
	Signature string
}

// Response модель ответа
type Response struct {
	Outcome       Outcome
	EventID       string
	DepositID     *int64
	AppointmentID *int64
}
