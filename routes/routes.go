package routes

import (
	"net/http"
	"time"

	"salesagent/config"
	"salesagent/handlers"
	"salesagent/middleware"
	"salesagent/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers the conversational surface.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/chat", hb.Chat.ChatTurn)

	session := r.Group("/api/session")
	{
		session.GET("/:id/transcript", hb.Chat.Transcript)
		session.POST("/:id/clear", hb.Chat.ClearConversation)
		session.GET("/:id/draft", hb.Chat.Draft)
		session.POST("/:id/voice", hb.Voice.Transcribe)
		session.POST("/:id/booking/open", hb.Booking.OpenBooking)
		session.POST("/:id/booking/close", hb.Booking.CloseBooking)
	}
}

// RegisterIngestRoutes registers knowledge-base ingestion endpoints.
func RegisterIngestRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.POST("/ingest/pdf", hb.Ingest.IngestPDF)
		api.POST("/ingest/url", hb.Ingest.IngestURL)
		api.POST("/ingest/text", hb.Ingest.IngestText)
		api.DELETE("/vectorstore/reset", hb.Ingest.ResetVectorStore)
	}
}

// RegisterBookingRoutes registers the public lead-capture endpoint.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/book", hb.Booking.Book)
}

// RegisterAdminRoutes sets up the passphrase gate and the endpoints behind it.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/admin/unlock", hb.Admin.Unlock)

	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminAuthMiddleware(hb.AdminTokens))
		adminGroup.POST("/lock", hb.Admin.Lock)
		adminGroup.GET("/bookings/export.csv", hb.Admin.ExportBookingsCSV)
	}

	bookings := r.Group("/api/bookings")
	{
		bookings.Use(middleware.AdminAuthMiddleware(hb.AdminTokens))
		bookings.GET("", hb.Admin.ListBookings)
		bookings.PATCH("/:id/status", hb.Admin.UpdateBookingStatus)
		bookings.DELETE("/:id", hb.Admin.DeleteBooking)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"agent":  config.AppConfig.AgentName,
			"health": utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
// Unmatched /api POST/DELETE requests fall through to the generic proxy.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterChatRoutes(r, hb)
	RegisterIngestRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)

	r.NoRoute(hb.Proxy.Forward)
}
