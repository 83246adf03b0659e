package domain

// SweepName identifies a periodic sweep
type SweepName string

const (
	SweepExpireHolds          SweepName = "expire-holds"
	SweepCompleteAppointments SweepName = "complete-appointments"
	SweepSendReminders        SweepName = "send-reminders"
	SweepResyncCalendar       SweepName = "resync-calendar"
	SweepAll                  SweepName = "all"
)

// Sweeps lists the individual sweeps in run order
var Sweeps = []SweepName{
	SweepExpireHolds,
	SweepCompleteAppointments,
	SweepSendReminders,
	SweepResyncCalendar,
}

// IsValid returns true for known sweep names including "all"
func (n SweepName) IsValid() bool {
	if n == SweepAll {
		return true
	}
	for _, s := range Sweeps {
		if s == n {
			return true
		}
	}
	return false
}

// SweepReport counts of one sweep run
type SweepReport struct {
	Sweep     SweepName
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Locked    bool // another run holds the lock; nothing was processed
}
