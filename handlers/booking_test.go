package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salesagent/models"
	"salesagent/services/conversation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type bookingCreatorStub struct {
	calls int
	err   error
}

func (s *bookingCreatorStub) CreateBooking(_ context.Context, _ models.BookingRequest) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "BK-7", nil
}

func newBookingRouter(backend *bookingCreatorStub) (*gin.Engine, *conversation.Store, *BookingHandler) {
	gin.SetMode(gin.TestMode)
	store := conversation.NewStore("welcome", time.Hour)
	h := NewBookingHandler(store, backend, zap.NewNop())
	r := gin.New()
	r.POST("/api/book", h.Book)
	r.POST("/api/session/:id/booking/open", h.OpenBooking)
	r.POST("/api/session/:id/booking/close", h.CloseBooking)
	return r, store, h
}

func (h *BookingHandler) flowCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.flows)
}

func TestBookSubmitsValidForm(t *testing.T) {
	backend := &bookingCreatorStub{}
	r, _, _ := newBookingRouter(backend)

	w := postJSON(t, r, "/api/book", gin.H{
		"name": "Asha", "phone": "111", "service": "Demo",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status    string `json:"status"`
		BookingID string `json:"booking_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "booked", body.Status)
	assert.Equal(t, "BK-7", body.BookingID)
}

func TestBookRejectsMissingFields(t *testing.T) {
	backend := &bookingCreatorStub{}
	r, _, _ := newBookingRouter(backend)

	w := postJSON(t, r, "/api/book", gin.H{"name": "Asha"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, backend.calls)
}

func TestBookUpstreamFailureIs502WithGenericMessage(t *testing.T) {
	backend := &bookingCreatorStub{err: errors.New("dial tcp: connection refused")}
	r, _, _ := newBookingRouter(backend)

	w := postJSON(t, r, "/api/book", gin.H{
		"name": "Asha", "phone": "111", "service": "Demo",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Booking failed. Please try again.", body["error"])
}

func TestBookSessionWorkflowStaysConfirmedUntilClosed(t *testing.T) {
	backend := &bookingCreatorStub{}
	r, store, _ := newBookingRouter(backend)
	store.GetOrCreate("tab-1", models.LanguageAuto)

	form := gin.H{"session_id": "tab-1", "name": "Asha", "phone": "111", "service": "Demo"}
	w := postJSON(t, r, "/api/book", form)
	require.Equal(t, http.StatusOK, w.Code)

	// Resubmitting the same session's workflow is rejected.
	w = postJSON(t, r, "/api/book", form)
	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "BK-7", body["booking_id"])
	assert.Equal(t, 1, backend.calls)

	// Closing the workflow resets it; a new submission goes through.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/session/tab-1/booking/close", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, "/api/book", form)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, backend.calls)
}

func TestUnknownSessionIDsDoNotPinWorkflows(t *testing.T) {
	backend := &bookingCreatorStub{}
	r, _, h := newBookingRouter(backend)

	// Rejected submissions with made-up ids must not retain anything.
	for i := 0; i < 50; i++ {
		w := postJSON(t, r, "/api/book", gin.H{"session_id": fmt.Sprintf("ghost-%d", i)})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Equal(t, 0, h.flowCount())

	// A valid form with an unknown id books through a throwaway workflow.
	w := postJSON(t, r, "/api/book", gin.H{
		"session_id": "ghost-x", "name": "Asha", "phone": "111", "service": "Demo",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, h.flowCount())
	assert.Equal(t, 1, backend.calls)
}

func TestWorkflowsReleasedWhenSessionsSwept(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := conversation.NewStore("welcome", 10*time.Millisecond)
	h := NewBookingHandler(store, &bookingCreatorStub{}, zap.NewNop())

	store.GetOrCreate("tab-1", models.LanguageAuto)
	require.NotNil(t, h.flowFor("tab-1"))
	require.Equal(t, 1, h.flowCount())

	stop := make(chan struct{})
	defer close(stop)
	store.StartSweeper(time.Millisecond, stop)

	require.Eventually(t, func() bool {
		return h.flowCount() == 0
	}, time.Second, time.Millisecond)
	assert.Equal(t, 0, store.Len())
}

func TestOpenAndCloseBookingToggleVisibility(t *testing.T) {
	backend := &bookingCreatorStub{}
	r, store, _ := newBookingRouter(backend)
	sess := store.GetOrCreate("tab-1", models.LanguageAuto)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/session/tab-1/booking/open", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sess.BookingVisible())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/session/tab-1/booking/close", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sess.BookingVisible())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/session/nope/booking/open", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
