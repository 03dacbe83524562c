package booking

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"sync"
	"testing"
	"time"

	"salesagent/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAdminBackend struct {
	mu sync.Mutex

	listResult []models.Booking
	listErr    error
	listCalls  int

	updateErr    error
	updateCalls  int
	updateBlock  map[string]chan struct{}
	updatedQueue []models.Booking

	deleteErr   error
	deleteCalls int
}

func (f *fakeAdminBackend) ListBookings(_ context.Context) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	cp := make([]models.Booking, len(f.listResult))
	copy(cp, f.listResult)
	return cp, nil
}

func (f *fakeAdminBackend) UpdateBookingStatus(_ context.Context, id, status string) (*models.Booking, error) {
	f.mu.Lock()
	f.updateCalls++
	err := f.updateErr
	block := f.updateBlock[id]
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &models.Booking{ID: id, Name: "Asha", Status: status}, nil
}

func (f *fakeAdminBackend) DeleteBooking(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func seedBookings() []models.Booking {
	return []models.Booking{
		{ID: "BK-41", Name: "Ravi", Phone: "111", Service: "Consultation", Status: models.BookingPending},
		{ID: "BK-42", Name: "Asha", Phone: "222", Service: "Demo", Status: models.BookingPending},
		{ID: "BK-43", Name: "Meera", Phone: "333", Service: "Onboarding", Status: models.BookingConfirmed},
	}
}

func newTestLeadBook(backend *fakeAdminBackend) *LeadBook {
	return NewLeadBook(backend, zap.NewNop())
}

func TestRefreshFullyReplacesCollection(t *testing.T) {
	backend := &fakeAdminBackend{listResult: seedBookings()}
	lb := newTestLeadBook(backend)

	got, err := lb.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// A shorter list replaces, never merges.
	backend.mu.Lock()
	backend.listResult = seedBookings()[:1]
	backend.mu.Unlock()
	got, err = lb.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "BK-41", got[0].ID)
}

func TestRefreshFailureKeepsPreviousCollection(t *testing.T) {
	backend := &fakeAdminBackend{listResult: seedBookings()}
	lb := newTestLeadBook(backend)

	_, err := lb.Refresh(context.Background())
	require.NoError(t, err)

	backend.mu.Lock()
	backend.listErr = errors.New("upstream down")
	backend.mu.Unlock()
	_, err = lb.Refresh(context.Background())
	assert.Error(t, err)
	assert.Len(t, lb.Bookings(), 3)
}

func TestUpdateStatusMirrorsUpstreamRecord(t *testing.T) {
	backend := &fakeAdminBackend{listResult: seedBookings()}
	lb := newTestLeadBook(backend)
	_, err := lb.Refresh(context.Background())
	require.NoError(t, err)

	updated, err := lb.UpdateStatus(context.Background(), "BK-42", models.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)

	var others int
	for _, b := range lb.Bookings() {
		switch b.ID {
		case "BK-42":
			assert.Equal(t, models.BookingConfirmed, b.Status)
		case "BK-41":
			assert.Equal(t, models.BookingPending, b.Status)
			others++
		case "BK-43":
			assert.Equal(t, models.BookingConfirmed, b.Status)
			others++
		}
	}
	assert.Equal(t, 2, others, "unrelated rows untouched")
}

func TestUpdateStatusRejectsUnknownStatusLocally(t *testing.T) {
	backend := &fakeAdminBackend{}
	lb := newTestLeadBook(backend)

	_, err := lb.UpdateStatus(context.Background(), "BK-42", "archived")
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Equal(t, 0, backend.updateCalls)
}

func TestUpdateStatusFailureLeavesLocalRowAlone(t *testing.T) {
	backend := &fakeAdminBackend{listResult: seedBookings(), updateErr: errors.New("conflict")}
	lb := newTestLeadBook(backend)
	_, err := lb.Refresh(context.Background())
	require.NoError(t, err)

	_, err = lb.UpdateStatus(context.Background(), "BK-42", models.BookingCancelled)
	assert.Error(t, err)
	for _, b := range lb.Bookings() {
		if b.ID == "BK-42" {
			assert.Equal(t, models.BookingPending, b.Status)
		}
	}
}

func TestBusyRowRejectsSecondActionOtherRowsProceed(t *testing.T) {
	backend := &fakeAdminBackend{
		listResult:  seedBookings(),
		updateBlock: map[string]chan struct{}{"BK-42": make(chan struct{})},
	}
	lb := newTestLeadBook(backend)
	_, err := lb.Refresh(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := lb.UpdateStatus(context.Background(), "BK-42", models.BookingConfirmed)
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		return lb.busy["BK-42"]
	}, time.Second, time.Millisecond)

	_, err = lb.UpdateStatus(context.Background(), "BK-42", models.BookingCancelled)
	assert.ErrorIs(t, err, ErrRowBusy)
	err = lb.Delete(context.Background(), "BK-42", true)
	assert.ErrorIs(t, err, ErrRowBusy)

	// A different row is not held up.
	_, err = lb.UpdateStatus(context.Background(), "BK-41", models.BookingConfirmed)
	assert.NoError(t, err)

	close(backend.updateBlock["BK-42"])
	<-done

	// The row frees up after the first action settles.
	_, err = lb.UpdateStatus(context.Background(), "BK-42", models.BookingCancelled)
	assert.NoError(t, err)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	backend := &fakeAdminBackend{listResult: seedBookings()}
	lb := newTestLeadBook(backend)
	_, err := lb.Refresh(context.Background())
	require.NoError(t, err)

	err = lb.Delete(context.Background(), "BK-42", false)
	assert.ErrorIs(t, err, ErrDeleteNotConfirmed)
	assert.Equal(t, 0, backend.deleteCalls)
	assert.Len(t, lb.Bookings(), 3)

	require.NoError(t, lb.Delete(context.Background(), "BK-42", true))
	got := lb.Bookings()
	assert.Len(t, got, 2)
	for _, b := range got {
		assert.NotEqual(t, "BK-42", b.ID)
	}
}

func TestDeleteFailureKeepsLocalRow(t *testing.T) {
	backend := &fakeAdminBackend{listResult: seedBookings(), deleteErr: errors.New("gone already")}
	lb := newTestLeadBook(backend)
	_, err := lb.Refresh(context.Background())
	require.NoError(t, err)

	err = lb.Delete(context.Background(), "BK-42", true)
	assert.Error(t, err)
	assert.Len(t, lb.Bookings(), 3)
}

func TestExportCSVRoundTrip(t *testing.T) {
	created := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	backend := &fakeAdminBackend{listResult: []models.Booking{
		{
			ID: "BK-1", Name: "Asha, Jr.", Phone: "+91 98765", Email: "asha@example.com",
			Service: "Demo", PreferredTime: "Tomorrow 3pm", Status: models.BookingPending,
			CreatedAt: created,
		},
		{ID: "BK-2", Name: "Ravi \"R\"", Phone: "222", Service: "Consultation", Status: models.BookingConfirmed},
	}}
	lb := newTestLeadBook(backend)
	_, err := lb.Refresh(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, lb.ExportCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{"BK-1", "Asha, Jr.", "+91 98765", "asha@example.com", "Demo", "Tomorrow 3pm", models.BookingPending, "2026-08-29T10:30:00Z"}, records[1])
	assert.Equal(t, "Ravi \"R\"", records[2][1], "quoting survives the round trip")
	assert.Equal(t, "", records[2][7], "zero created_at exports empty")
}
