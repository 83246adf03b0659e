package domain

// Role caller role passed by the gateway
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStylist  Role = "stylist"
	RoleAdmin    Role = "admin"
)

// IsValid returns true for known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleStylist, RoleAdmin:
		return true
	default:
		return false
	}
}

// Actor authenticated caller
type Actor struct {
	UserID    *int64
	Role      Role
	StylistID *int64 // set for stylists
}

// IsAdmin returns true for salon administrators
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsAssignedStylist returns true if the caller is the stylist of the appointment
func (a Actor) IsAssignedStylist(appt *Appointment) bool {
	return a.Role == RoleStylist && a.StylistID != nil && appt.StylistID != nil && *a.StylistID == *appt.StylistID
}

// IsOwner returns true if the caller booked the appointment
func (a Actor) IsOwner(appt *Appointment) bool {
	return a.UserID != nil && appt.IsOwnedBy(*a.UserID)
}

// CanManage returns true if the caller may read, move or cancel the appointment
func (a Actor) CanManage(appt *Appointment) bool {
	return a.IsAdmin() || a.IsAssignedStylist(appt) || a.IsOwner(appt)
}

// CancelledBy maps the caller to the cancellation initiator recorded on the appointment
func (a Actor) CancelledBy(appt *Appointment) CancelledBy {
	switch {
	case a.IsAdmin():
		return CancelledByAdmin
	case a.IsAssignedStylist(appt):
		return CancelledByStylist
	default:
		return CancelledByCustomer
	}
}
