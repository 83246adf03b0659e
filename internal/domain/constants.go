package domain

import "time"

// Default configuration values
const (
	DefaultSlotStepMinutes     = 30
	DefaultHoldTimeout         = 15 * time.Minute
	DefaultCompleteGrace       = time.Hour
	DefaultReminderLookahead   = 24 * time.Hour
	DefaultReminderClaimTTL    = 10 * time.Minute
	DefaultMinNoticeMinutes    = 0
	DefaultDepositPercentage   = 20
	DefaultWaiveAfterCompleted = 1
)

// Business validation constants
const (
	MinSlotStepMinutes          = 5
	MaxAppointmentMinutes       = 12 * 60
	MaxServicesPerAppointment   = 10
	MaxCustomerNameLength       = 200
	MaxCancellationReasonLength = 500
	MaxBlockReasonLength        = 500
)

// Time format constants
const (
	TimeFormat     = "15:04"               // HH:MM
	DateFormat     = "2006-01-02"          // YYYY-MM-DD
	DateTimeFormat = "2006-01-02 15:04:05" // naive wall clock
)

// ActiveStatuses statuses that occupy a slot
var ActiveStatuses = []AppointmentStatus{
	StatusPendingPayment,
	StatusScheduled,
	StatusCompleted,
}

// CancellableStatuses statuses a cancellation may start from
var CancellableStatuses = []AppointmentStatus{
	StatusPendingPayment,
	StatusScheduled,
}

// HoldExpiredReason cancellation reason set by the hold expiry sweep
const HoldExpiredReason = "deposit hold expired"
