package domain

import "time"

// DepositStatus represents the status of a deposit hold
type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositPaid      DepositStatus = "paid"
	DepositForfeited DepositStatus = "forfeited"
)

// Deposit represents a deposit collected to hold an appointment slot
type Deposit struct {
	ID            int64
	AppointmentID int64
	Amount        int64 // minor units
	Currency      string
	Status        DepositStatus
	ExternalRef   *string // checkout session id
	PaymentURL    *string
	ExpiresAt     time.Time
	PaidAt        *time.Time
	ForfeitedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsPending returns true while payment is awaited
func (d *Deposit) IsPending() bool {
	return d.Status == DepositPending
}

// IsPaid returns true once payment is confirmed
func (d *Deposit) IsPaid() bool {
	return d.Status == DepositPaid
}

// DepositPolicy deposit requirement settings edited by admins
type DepositPolicy struct {
	Enabled             bool
	Percentage          int64 // 0..100
	WaiveAfterCompleted int   // completed visits after which a registered customer is exempt
	UpdatedAt           time.Time
}
