package booking

import (
	"context"
	"errors"
	"sync"

	"salesagent/models"

	"go.uber.org/zap"
)

var (
	// ErrRowBusy guards a second action on a row whose previous action is
	// still in flight. Different rows proceed independently.
	ErrRowBusy = errors.New("another action is in progress for this booking")
	// ErrDeleteNotConfirmed guards the destructive delete.
	ErrDeleteNotConfirmed = errors.New("delete requires explicit confirmation")
	// ErrUnknownStatus rejects a status the upstream would not accept.
	ErrUnknownStatus = errors.New("unknown booking status")
)

// LeadBook is the in-memory booking collection behind the admin surface.
// Every fetch fully replaces the collection; mutations are applied locally
// only after the upstream confirms them, so the table never shows state that
// diverges from backend truth.
type LeadBook struct {
	mu       sync.Mutex
	backend  AdminBackend
	logger   *zap.Logger
	bookings []models.Booking
	busy     map[string]bool
}

func NewLeadBook(backend AdminBackend, logger *zap.Logger) *LeadBook {
	return &LeadBook{
		backend: backend,
		logger:  logger,
		busy:    make(map[string]bool),
	}
}

// Refresh fetches the full booking list and replaces the local collection.
// On failure the previous collection is left untouched.
func (lb *LeadBook) Refresh(ctx context.Context) ([]models.Booking, error) {
	bookings, err := lb.backend.ListBookings(ctx)
	if err != nil {
		lb.logger.Warn("bookings fetch failed", zap.Error(err))
		return nil, err
	}
	lb.mu.Lock()
	lb.bookings = bookings
	lb.mu.Unlock()
	return lb.Bookings(), nil
}

// Bookings returns a copy of the current collection.
func (lb *LeadBook) Bookings() []models.Booking {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	cp := make([]models.Booking, len(lb.bookings))
	copy(cp, lb.bookings)
	return cp
}

// UpdateStatus changes one booking's status upstream, then mirrors the
// updated record locally. The local entry is only touched after upstream
// success.
func (lb *LeadBook) UpdateStatus(ctx context.Context, id, status string) (*models.Booking, error) {
	if !models.ValidBookingStatus(status) {
		return nil, ErrUnknownStatus
	}
	if err := lb.markBusy(id); err != nil {
		return nil, err
	}
	defer lb.clearBusy(id)

	updated, err := lb.backend.UpdateBookingStatus(ctx, id, status)
	if err != nil {
		lb.logger.Warn("status update failed", zap.String("booking_id", id), zap.Error(err))
		return nil, err
	}

	lb.mu.Lock()
	for i := range lb.bookings {
		if lb.bookings[i].ID == id {
			lb.bookings[i] = *updated
			break
		}
	}
	lb.mu.Unlock()
	return updated, nil
}

// Delete removes one booking. The confirmed flag must come from an explicit
// user confirmation; without it no network call is made. The local entry is
// removed only after upstream success.
func (lb *LeadBook) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}
	if err := lb.markBusy(id); err != nil {
		return err
	}
	defer lb.clearBusy(id)

	if err := lb.backend.DeleteBooking(ctx, id); err != nil {
		lb.logger.Warn("booking delete failed", zap.String("booking_id", id), zap.Error(err))
		return err
	}

	lb.mu.Lock()
	kept := lb.bookings[:0]
	for _, b := range lb.bookings {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	lb.bookings = kept
	lb.mu.Unlock()
	return nil
}

func (lb *LeadBook) markBusy(id string) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.busy[id] {
		return ErrRowBusy
	}
	lb.busy[id] = true
	return nil
}

func (lb *LeadBook) clearBusy(id string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	delete(lb.busy, id)
}
