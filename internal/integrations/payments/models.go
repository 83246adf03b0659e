package payments

const (
	metadataDepositID     = "deposit_id"
	metadataAppointmentID = "appointment_id"

	eventCheckoutCompleted = "checkout.session.completed"
	eventPaymentSucceeded  = "payment_intent.succeeded"
)

// CheckoutRequest параметры checkout-сессии депозита
type CheckoutRequest struct {
	DepositID     int64
	AppointmentID int64
	Amount        int64 // minor units
	Currency      string
	Description   string
	CustomerEmail string
	// IdempotencyKey повторный запрос с тем же ключом не создает вторую сессию
	IdempotencyKey string
}

// Checkout созданная checkout-сессия
type Checkout struct {
	ExternalRef string
	PaymentURL  string
}

// EventKind результат разбора webhook
type EventKind string

const (
	// EventPaid депозит оплачен
	EventPaid EventKind = "paid"
	// EventIgnored событие не относится к оплате депозита
	EventIgnored EventKind = "ignored"
)

// PaymentEvent проверенное событие провайдера
type PaymentEvent struct {
	Kind        EventKind
	EventID     string
	EventType   string
	ExternalRef string // checkout session id, если есть
	DepositID   *int64 // из metadata
}
