package deposits

// Customer идентичность клиента для решения о депозите
type Customer struct {
	Email  string
	UserID *int64 // nil = незарегистрированный клиент
}

// Hold результат создания холда
type Hold struct {
	DepositID  int64
	PaymentURL string
}

// Config параметры депозитов
type Config struct {
	Currency string
}
