package handlers

import (
	"errors"
	"net/http"
	"time"

	"salesagent/config"
	"salesagent/services/booking"
	"salesagent/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// adminTokenTTL bounds how long an unlocked admin panel stays unlocked.
const adminTokenTTL = 12 * time.Hour

// AdminHandler encapsulates the passphrase gate and the lead-book operations
// behind it.
type AdminHandler struct {
	Leads  *booking.LeadBook
	Tokens utils.AdminTokenStore
	Logger *zap.Logger
}

func NewAdminHandler(leads *booking.LeadBook, tokens utils.AdminTokenStore, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Leads: leads, Tokens: tokens, Logger: logger}
}

type unlockInput struct {
	Passphrase string `json:"passphrase"`
}

// Unlock exchanges the shared passphrase for an expiring bearer token. This
// is a low-stakes gate, not a security boundary.
func (ah *AdminHandler) Unlock(c *gin.Context) {
	var input unlockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if !utils.CheckPassphrase(config.AppConfig.AdminPassphrase, input.Passphrase) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid passphrase"})
		return
	}

	token, err := utils.GenerateAdminToken(adminTokenTTL)
	if err != nil {
		ah.Logger.Error("admin token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	if err := ah.Tokens.Save(c.Request.Context(), token, adminTokenTTL); err != nil {
		ah.Logger.Error("admin token save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(adminTokenTTL.Seconds())})
}

// Lock revokes the presented token immediately.
func (ah *AdminHandler) Lock(c *gin.Context) {
	token := c.GetString("adminToken")
	if err := ah.Tokens.Revoke(c.Request.Context(), token); err != nil {
		ah.Logger.Error("admin token revoke failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "locked"})
}

// ListBookings refreshes the lead book from upstream and returns it.
func (ah *AdminHandler) ListBookings(c *gin.Context) {
	bookings, err := ah.Leads.Refresh(c.Request.Context())
	if err != nil {
		writeUpstreamError(c, err, "Failed to load bookings.")
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// UpdateBookingStatus changes one booking's status.
func (ah *AdminHandler) UpdateBookingStatus(c *gin.Context) {
	id := c.Param("id")
	status := c.Query("status")
	if status == "" {
		var body struct {
			Status string `json:"status"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			status = body.Status
		}
	}
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	updated, err := ah.Leads.UpdateStatus(c.Request.Context(), id, status)
	switch {
	case errors.Is(err, booking.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + status})
		return
	case errors.Is(err, booking.ErrRowBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "another action is in progress for this booking"})
		return
	case err != nil:
		writeUpstreamError(c, err, "Status update failed.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "booking": updated})
}

// DeleteBooking removes one booking. Requires confirm=true.
func (ah *AdminHandler) DeleteBooking(c *gin.Context) {
	id := c.Param("id")
	confirmed := c.Query("confirm") == "true"

	err := ah.Leads.Delete(c.Request.Context(), id, confirmed)
	switch {
	case errors.Is(err, booking.ErrDeleteNotConfirmed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "delete requires confirm=true"})
		return
	case errors.Is(err, booking.ErrRowBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "another action is in progress for this booking"})
		return
	case err != nil:
		writeUpstreamError(c, err, "Delete failed.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "booking_id": id})
}

// ExportBookingsCSV streams the in-memory collection as a CSV download. No
// upstream call is made.
func (ah *AdminHandler) ExportBookingsCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="bookings.csv"`)
	if err := ah.Leads.ExportCSV(c.Writer); err != nil {
		ah.Logger.Error("csv export failed", zap.Error(err))
	}
}
