package domain

// ServiceCategory groups salon services
type ServiceCategory struct {
	ID   int64
	Name string
}

// Service is a bookable salon service
type Service struct {
	ID              int64
	CategoryID      int64
	Name            string
	DurationMinutes int
	Price           int64 // minor units
	IsActive        bool
}
