package domain

import "time"

// Stylist represents a salon stylist
type Stylist struct {
	ID         int64
	Name       string
	Email      *string
	IsActive   bool
	ServiceIDs []int64 // empty = performs every service
	Calendar   *CalendarConnection
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CalendarConnection external calendar linkage of a stylist
type CalendarConnection struct {
	CalendarID     string
	AccessToken    string
	RefreshToken   string
	TokenExpiry    time.Time
	NeedsReconnect bool
}

// HasCalendar returns true if the stylist has a usable calendar linkage
func (s *Stylist) HasCalendar() bool {
	return s.Calendar != nil && s.Calendar.CalendarID != "" && s.Calendar.RefreshToken != ""
}

// CanPerform returns true if the stylist performs every given service
func (s *Stylist) CanPerform(serviceIDs []int64) bool {
	if len(s.ServiceIDs) == 0 {
		return true
	}
	for _, id := range serviceIDs {
		if !containsID(s.ServiceIDs, id) {
			return false
		}
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
