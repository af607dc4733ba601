package models

// Property is a rentable unit whose timeline the bookings belong to.
type Property struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	Active    bool   `json:"active"`
	SortOrder int64  `json:"sort_order"`
}

// Snapshot is the in-memory view of the data set handed to the availability
// engine. It is rebuilt from storage on every query; the engine never caches
// or mutates it.
type Snapshot struct {
	Properties []Property
	Bookings   []Booking
}

// BookingsFor returns the snapshot's bookings for one property,
// preserving stored order.
func (s *Snapshot) BookingsFor(propertyID string) []Booking {
	var out []Booking
	for _, b := range s.Bookings {
		if b.PropertyID == propertyID {
			out = append(out, b)
		}
	}
	return out
}
