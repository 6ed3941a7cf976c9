package models

// Booking statuses. New bookings always start out confirmed.
const (
	BookingConfirmed = "Confirmed"
	BookingPending   = "Pending"
)

// BookingDateLayout is the format bookings stamp their creation date with.
const BookingDateLayout = "2006-01-02"

// Booking is stored under /Bookings/{userId}/{bookingId}. Its ID is
// generated fresh per booking, independent of the event id, so the same
// event can be booked more than once. Bookings are immutable after creation.
type Booking struct {
	ID          string  `json:"bookingId"`
	EventID     string  `json:"eventId"`
	UserID      string  `json:"userId"`
	EventTitle  string  `json:"eventTitle"`
	Price       float64 `json:"price"`
	BookingDate string  `json:"bookingDate"`
	Status      string  `json:"status"`
}
