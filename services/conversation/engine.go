package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"salesagent/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FallbackAnswer is the fixed assistant reply appended when the upstream is
// unreachable. There is no automatic retry; the user resubmits.
const FallbackAnswer = "Sorry, I'm having trouble connecting right now. Please try again."

// DefaultPromptDelay is how long after the assistant message lands before the
// booking workflow is surfaced, so the message renders first.
const DefaultPromptDelay = 800 * time.Millisecond

var (
	// ErrEmptyMessage rejects blank submissions before any network call.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy rejects a submission while another chat request is in flight.
	ErrBusy = errors.New("a chat request is already in flight")
	// ErrSessionClosed marks a response that arrived after session teardown.
	ErrSessionClosed = errors.New("session is closed")
)

// Engine drives the conversation state machine for all sessions. It enforces
// at most one in-flight chat request per session, which guarantees assistant
// messages land in submission order.
type Engine struct {
	Backend     ChatBackend
	Logger      *zap.Logger
	PromptDelay time.Duration
}

func NewEngine(backend ChatBackend, logger *zap.Logger) *Engine {
	return &Engine{Backend: backend, Logger: logger, PromptDelay: DefaultPromptDelay}
}

// Submit runs one chat turn: append the user message, clear the draft buffer,
// call the upstream, append the assistant reply. Returns the assistant
// message, or ErrEmptyMessage/ErrBusy without touching the transcript.
func (e *Engine) Submit(ctx context.Context, s *Session, text string) (models.Message, error) {
	return e.submit(ctx, s, text, true)
}

// SubmitQuickReply behaves exactly like Submit but bypasses the draft buffer:
// a tapped suggestion must not wipe text the user was composing.
func (e *Engine) SubmitQuickReply(ctx context.Context, s *Session, text string) (models.Message, error) {
	return e.submit(ctx, s, text, false)
}

func (e *Engine) submit(ctx context.Context, s *Session, text string, clearDraft bool) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.Message{}, ErrSessionClosed
	}
	if s.state == StateSending {
		s.mu.Unlock()
		return models.Message{}, ErrBusy
	}
	s.state = StateSending
	s.messages = append(s.messages, models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	if clearDraft {
		s.draft = ""
	}
	s.lastActive = time.Now()
	sessionID := s.idLocked()
	language := s.language
	s.mu.Unlock()

	resp, err := e.Backend.Chat(ctx, models.ChatRequest{
		Message:   text,
		SessionID: sessionID,
		Language:  language,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	// The busy marker clears no matter how the turn ended.
	s.state = StateIdle
	if s.closed {
		return models.Message{}, ErrSessionClosed
	}

	var bot models.Message
	if err != nil {
		e.Logger.Warn("chat upstream failure",
			zap.String("session_id", sessionID),
			zap.Error(err))
		bot = models.Message{
			ID:        uuid.New().String(),
			Role:      models.RoleAssistant,
			Content:   FallbackAnswer,
			Timestamp: time.Now(),
			Intent:    "query",
		}
	} else {
		bot = models.Message{
			ID:        uuid.New().String(),
			Role:      models.RoleAssistant,
			Content:   resp.Answer,
			Timestamp: time.Now(),
			Sources:   resp.Sources,
			Intent:    resp.Intent,
		}
		// The upstream flag is the only booking trigger; message text is
		// never inspected here.
		if resp.BookingTriggered {
			s.scheduleBookingPromptLocked(e.promptDelay())
		}
	}
	s.messages = append(s.messages, bot)
	return bot, nil
}

func (e *Engine) promptDelay() time.Duration {
	if e.PromptDelay > 0 {
		return e.PromptDelay
	}
	return DefaultPromptDelay
}
