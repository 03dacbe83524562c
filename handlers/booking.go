package handlers

import (
	"errors"
	"net/http"
	"sync"

	"salesagent/models"
	"salesagent/services/booking"
	"salesagent/services/conversation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler runs the lead-capture workflow. Each chat session gets its
// own workflow instance so a confirmed booking stays confirmed until the
// visitor closes and reopens the form; submissions without a session run
// through a throwaway workflow.
type BookingHandler struct {
	Sessions *conversation.Store
	Backend  booking.Backend
	Logger   *zap.Logger

	mu    sync.Mutex
	flows map[string]*booking.Workflow
}

func NewBookingHandler(sessions *conversation.Store, backend booking.Backend, logger *zap.Logger) *BookingHandler {
	h := &BookingHandler{
		Sessions: sessions,
		Backend:  backend,
		Logger:   logger,
		flows:    make(map[string]*booking.Workflow),
	}
	sessions.OnEvict(h.releaseFlow)
	return h
}

// flowFor returns the workflow bound to a live session. Empty or unknown
// session ids get a throwaway workflow instead, so arbitrary ids never pin
// state in the flows map.
func (h *BookingHandler) flowFor(sessionID string) *booking.Workflow {
	if sessionID == "" {
		return booking.NewWorkflow(h.Backend, h.Logger)
	}
	if _, ok := h.Sessions.Get(sessionID); !ok {
		return booking.NewWorkflow(h.Backend, h.Logger)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.flows[sessionID]; ok {
		return w
	}
	w := booking.NewWorkflow(h.Backend, h.Logger)
	h.flows[sessionID] = w
	return w
}

// releaseFlow drops the workflow for a session that no longer exists.
func (h *BookingHandler) releaseFlow(sessionID string) {
	h.mu.Lock()
	delete(h.flows, sessionID)
	h.mu.Unlock()
}

type bookInput struct {
	SessionID     string `json:"session_id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Service       string `json:"service"`
	PreferredTime string `json:"preferred_time"`
}

// Book submits the lead-capture form.
func (h *BookingHandler) Book(c *gin.Context) {
	var input bookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	flow := h.flowFor(input.SessionID)
	id, err := flow.Submit(c.Request.Context(), models.BookingRequest{
		Name:          input.Name,
		Phone:         input.Phone,
		Email:         input.Email,
		Service:       input.Service,
		PreferredTime: input.PreferredTime,
	})
	switch {
	case errors.Is(err, booking.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, Phone, and Service are required."})
		return
	case errors.Is(err, booking.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "A booking is already being submitted."})
		return
	case errors.Is(err, booking.ErrAlreadyConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking already confirmed.", "booking_id": flow.BookingID()})
		return
	case err != nil:
		writeUpstreamError(c, err, booking.SubmitFailedMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "booked", "booking_id": id})
}

// CloseBooking hides the booking workflow for a session and resets its form,
// so reopening starts fresh.
func (h *BookingHandler) CloseBooking(c *gin.Context) {
	sessionID := c.Param("id")
	sess, ok := h.Sessions.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	sess.CloseBooking()
	h.releaseFlow(sessionID)

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "booking_open": false})
}

// OpenBooking surfaces the booking workflow directly (header "Book" button).
func (h *BookingHandler) OpenBooking(c *gin.Context) {
	sess, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	sess.OpenBooking()
	c.JSON(http.StatusOK, gin.H{"session_id": sess.ID(), "booking_open": true})
}
