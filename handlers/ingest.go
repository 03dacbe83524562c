package handlers

import (
	"errors"
	"net/http"

	"salesagent/models"
	"salesagent/services/ingestion"
	"salesagent/services/upstream"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IngestHandler exposes the knowledge-base ingestion surface.
type IngestHandler struct {
	Dispatcher *ingestion.Dispatcher
	Logger     *zap.Logger
}

func NewIngestHandler(dispatcher *ingestion.Dispatcher, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{Dispatcher: dispatcher, Logger: logger}
}

// IngestPDF accepts a multipart PDF upload and forwards it for indexing.
func (h *IngestHandler) IngestPDF(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	result := h.Dispatcher.IngestPDF(c.Request.Context(), header.Filename, file)
	writeIngestResult(c, result)
}

// IngestURL indexes a scraped web page. The url query parameter is required.
func (h *IngestHandler) IngestURL(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}
	result := h.Dispatcher.IngestURL(c.Request.Context(), rawURL)
	writeIngestResult(c, result)
}

// IngestText indexes pasted text. The text query parameter is required;
// source defaults upstream-side semantics are preserved.
func (h *IngestHandler) IngestText(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text query parameter is required"})
		return
	}
	result := h.Dispatcher.IngestText(c.Request.Context(), text, c.Query("source"))
	writeIngestResult(c, result)
}

// ResetVectorStore wipes the knowledge base. Requires confirm=true; without
// it, no upstream call is made.
func (h *IngestHandler) ResetVectorStore(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"
	err := h.Dispatcher.ResetKnowledgeBase(c.Request.Context(), confirmed)
	if errors.Is(err, ingestion.ErrNotConfirmed) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reset requires confirm=true"})
		return
	}
	if err != nil {
		writeUpstreamError(c, err, "Reset failed.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Vector store cleared"})
}

// writeIngestResult maps an IngestResult to a response: local rejections are
// 400, upstream business errors keep their status, transport failures are a
// fixed 502.
func writeIngestResult(c *gin.Context, result models.IngestResult) {
	if result.OK {
		c.JSON(http.StatusOK, gin.H{
			"kind":           result.Kind,
			"message":        result.Message,
			"chunks_created": result.ChunksCreated,
		})
		return
	}
	if result.Err == nil {
		// Rejected locally, before any upstream call.
		c.JSON(http.StatusBadRequest, gin.H{"error": result.Message})
		return
	}
	var se *upstream.StatusError
	if errors.As(result.Err, &se) {
		c.JSON(se.Code, gin.H{"error": result.Message})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": result.Message})
}

// writeUpstreamError emits an upstream business error with its original
// status, or a fixed 502 for transport failures.
func writeUpstreamError(c *gin.Context, err error, message string) {
	var se *upstream.StatusError
	if errors.As(err, &se) {
		c.JSON(se.Code, gin.H{"error": message, "details": se.Body})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": message, "details": err.Error()})
}
