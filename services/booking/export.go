package booking

import (
	"encoding/csv"
	"io"
	"time"
)

var exportHeader = []string{"id", "name", "phone", "email", "service", "preferred_time", "status", "created_at"}

// ExportCSV writes the current in-memory collection as CSV. This is a pure
// local transformation: no network call, no upstream refresh.
func (lb *LeadBook) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, b := range lb.Bookings() {
		created := ""
		if !b.CreatedAt.IsZero() {
			created = b.CreatedAt.Format(time.RFC3339)
		}
		row := []string{b.ID, b.Name, b.Phone, b.Email, b.Service, b.PreferredTime, b.Status, created}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
