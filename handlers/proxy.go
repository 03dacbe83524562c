package handlers

import (
	"io"
	"net/http"
	"strings"

	"salesagent/services/upstream"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProxyHandler is the generic catch-all forwarder for /api routes not served
// by a dedicated handler. The upstream status code passes through verbatim;
// any transport or parse failure becomes a fixed 502 and never propagates as
// a panic.
type ProxyHandler struct {
	Upstream *upstream.Client
	Logger   *zap.Logger
}

func NewProxyHandler(client *upstream.Client, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{Upstream: client, Logger: logger}
}

// Forward handles an unmatched /api request. Only POST and DELETE are
// forwarded; other methods fall through to a 404.
func (h *ProxyHandler) Forward(c *gin.Context) {
	path := strings.TrimPrefix(c.Request.URL.Path, "/api/")
	if path == c.Request.URL.Path || path == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodDelete {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	// An absent body is forwarded as no body at all, not as an empty string.
	var body io.Reader
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		body = c.Request.Body
	}

	status, payload, err := h.Upstream.Forward(
		c.Request.Context(),
		c.Request.Method,
		path,
		c.Request.URL.RawQuery,
		c.GetHeader("Content-Type"),
		body,
	)
	if err != nil {
		h.Logger.Warn("proxy forward failed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(status, payload)
}
