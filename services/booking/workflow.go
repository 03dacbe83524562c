// Package booking holds the lead-capture workflow and the admin-side lead
// book. Bookings themselves live upstream; nothing here persists.
package booking

import (
	"context"
	"errors"
	"strings"
	"sync"

	"salesagent/models"

	"go.uber.org/zap"
)

// WorkflowState tracks the lead-capture form lifecycle.
type WorkflowState int

const (
	// WorkflowForm is collecting lead fields.
	WorkflowForm WorkflowState = iota
	// WorkflowSubmitting has one booking request in flight.
	WorkflowSubmitting
	// WorkflowConfirmed holds a backend-issued booking id. The only way back
	// to the form is closing and reopening the workflow.
	WorkflowConfirmed
)

var (
	// ErrMissingFields rejects a submission locally, before any network call.
	ErrMissingFields = errors.New("name, phone, and service are required")
	// ErrSubmitInFlight rejects a second submission while one is pending.
	ErrSubmitInFlight = errors.New("a booking submission is already in flight")
	// ErrAlreadyConfirmed rejects resubmission of a confirmed workflow.
	ErrAlreadyConfirmed = errors.New("booking already confirmed")
)

// SubmitFailedMessage is the fixed generic error shown on upstream failure.
const SubmitFailedMessage = "Booking failed. Please try again."

// Workflow is one lead-capture form instance.
type Workflow struct {
	mu        sync.Mutex
	state     WorkflowState
	form      models.BookingRequest
	bookingID string
	lastError string

	backend Backend
	logger  *zap.Logger
}

func NewWorkflow(backend Backend, logger *zap.Logger) *Workflow {
	return &Workflow{backend: backend, logger: logger}
}

// Submit validates the lead fields locally, then attempts the booking. On
// failure the form is preserved verbatim for resubmission and a fixed generic
// error is recorded; on success the workflow is confirmed with the backend
// booking id.
func (w *Workflow) Submit(ctx context.Context, form models.BookingRequest) (string, error) {
	if strings.TrimSpace(form.Name) == "" ||
		strings.TrimSpace(form.Phone) == "" ||
		strings.TrimSpace(form.Service) == "" {
		w.mu.Lock()
		w.form = form
		w.lastError = "Name, Phone, and Service are required."
		w.mu.Unlock()
		return "", ErrMissingFields
	}

	w.mu.Lock()
	switch w.state {
	case WorkflowSubmitting:
		w.mu.Unlock()
		return "", ErrSubmitInFlight
	case WorkflowConfirmed:
		w.mu.Unlock()
		return "", ErrAlreadyConfirmed
	}
	w.state = WorkflowSubmitting
	w.form = form
	w.lastError = ""
	w.mu.Unlock()

	id, err := w.backend.CreateBooking(ctx, form)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.logger.Warn("booking submission failed", zap.Error(err))
		// Back to the form; no field is cleared.
		w.state = WorkflowForm
		w.lastError = SubmitFailedMessage
		return "", err
	}
	w.state = WorkflowConfirmed
	w.bookingID = id
	return id, nil
}

// State returns the workflow state.
func (w *Workflow) State() WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// BookingID returns the confirmed booking id, empty until confirmed.
func (w *Workflow) BookingID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bookingID
}

// Form returns the lead fields as last submitted.
func (w *Workflow) Form() models.BookingRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// LastError returns the user-visible error from the last submission, empty
// when none.
func (w *Workflow) LastError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastError
}

// Reset returns the workflow to a blank form, as when the modal is closed and
// reopened.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = WorkflowForm
	w.form = models.BookingRequest{}
	w.bookingID = ""
	w.lastError = ""
}
