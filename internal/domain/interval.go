package domain

// Interval half-open interval [Start, End) in minutes of the day
type Interval struct {
	Start int
	End   int
}

// Overlaps returns true if two half-open intervals intersect
// Touching intervals (10:00-11:00 and 11:00-12:00) do not overlap
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// IsEmpty returns true for zero-length intervals
func (i Interval) IsEmpty() bool {
	return i.End <= i.Start
}

// Contains returns true if other lies fully inside i
func (i Interval) Contains(other Interval) bool {
	return i.Start <= other.Start && other.End <= i.End
}
