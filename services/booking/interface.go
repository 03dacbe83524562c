package booking

import (
	"context"

	"salesagent/models"
)

// Backend creates bookings upstream.
type Backend interface {
	CreateBooking(ctx context.Context, req models.BookingRequest) (string, error)
}

// AdminBackend is the slice of the upstream API the lead book needs.
type AdminBackend interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id, status string) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}
