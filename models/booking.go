package models

import "time"

// Booking statuses as understood by the upstream backend.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// ValidBookingStatus reports whether status is one the upstream accepts.
func ValidBookingStatus(status string) bool {
	switch status {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// Booking is a lead record owned by the upstream backend. The gateway only
// displays and mutates bookings through the upstream API; it never persists
// them.
type Booking struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	Service       string    `json:"service"`
	PreferredTime string    `json:"preferred_time,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// BookingRequest carries the lead fields required to create a booking.
// Name, Phone and Service are mandatory; the rest are optional.
type BookingRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	Service       string `json:"service"`
	PreferredTime string `json:"preferred_time,omitempty"`
}
