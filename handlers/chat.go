package handlers

import (
	"errors"
	"net/http"
	"strings"

	"salesagent/services/conversation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler serves the conversational surface: chat turns, transcript
// snapshots, conversation reset and the voice draft buffer.
type ChatHandler struct {
	Sessions *conversation.Store
	Engine   *conversation.Engine
	Logger   *zap.Logger
}

func NewChatHandler(sessions *conversation.Store, engine *conversation.Engine, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{Sessions: sessions, Engine: engine, Logger: logger}
}

type chatTurnInput struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id"`
	Language   string `json:"language"`
	QuickReply bool   `json:"quick_reply"`
}

// ChatTurn runs one chat turn through the state machine.
func (h *ChatHandler) ChatTurn(c *gin.Context) {
	var input chatTurnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	// Reject blank submissions before any session is minted or stored.
	if strings.TrimSpace(input.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sess := h.Sessions.GetOrCreate(input.SessionID, input.Language)

	submit := h.Engine.Submit
	if input.QuickReply {
		submit = h.Engine.SubmitQuickReply
	}
	msg, err := submit(c.Request.Context(), sess, input.Message)
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	case errors.Is(err, conversation.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "a message is already being processed for this session"})
		return
	case errors.Is(err, conversation.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": "session is gone"})
		return
	case err != nil:
		h.Logger.Error("chat turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat turn failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":   sess.ID(),
		"message":      msg,
		"booking_open": sess.BookingVisible(),
	})
}

// Transcript returns the ordered message list and derived UI flags.
func (h *ChatHandler) Transcript(c *gin.Context) {
	sess, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":            sess.ID(),
		"messages":              sess.Transcript(),
		"booking_open":          sess.BookingVisible(),
		"quick_replies_visible": sess.QuickRepliesVisible(),
	})
}

// ClearConversation resets the transcript to a single welcome message. The
// session id is unchanged.
func (h *ChatHandler) ClearConversation(c *gin.Context) {
	sess, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	sess.Clear()
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID(),
		"messages":   sess.Transcript(),
	})
}

// Draft returns the current voice-fed input buffer.
func (h *ChatHandler) Draft(c *gin.Context) {
	sess, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sess.ID(), "draft": sess.Draft()})
}
