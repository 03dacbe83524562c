package conversation

import (
	"sync"
	"time"

	"salesagent/models"

	"github.com/google/uuid"
)

// State is the per-session chat request state.
type State int

const (
	// StateIdle means no chat request is in flight.
	StateIdle State = iota
	// StateSending means exactly one chat request is in flight; new
	// submissions are rejected, not queued.
	StateSending
)

// Session is one browser-tab-scoped conversational context. It owns the
// ordered transcript, the draft input buffer fed by voice transcripts, and
// the booking-prompt timer. All access goes through the session mutex.
type Session struct {
	mu sync.Mutex

	id       string
	language string
	welcome  string

	state          State
	messages       []models.Message
	draft          string
	bookingVisible bool
	bookingTimer   *time.Timer
	closed         bool
	lastActive     time.Time
}

func newSession(language, welcome string) *Session {
	if !models.ValidLanguage(language) {
		language = models.LanguageAuto
	}
	return &Session{
		language:   language,
		welcome:    welcome,
		messages:   []models.Message{welcomeMessage(welcome)},
		lastActive: time.Now(),
	}
}

func welcomeMessage(content string) models.Message {
	return models.Message{
		ID:        "welcome",
		Role:      models.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
		Intent:    "query",
	}
}

// ID returns the session identifier, minting it lazily on first access.
// Once minted it never changes for the lifetime of the session.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idLocked()
}

func (s *Session) idLocked() string {
	if s.id == "" {
		s.id = uuid.New().String()
	}
	return s.id
}

// Language returns the session language preference.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage updates the language preference. Unknown values are ignored.
func (s *Session) SetLanguage(lang string) {
	if !models.ValidLanguage(lang) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = lang
}

// Transcript returns a copy of the ordered message list.
func (s *Session) Transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.Message, len(s.messages))
	copy(cp, s.messages)
	return cp
}

// Draft returns the current input buffer.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// AppendVoiceTranscript appends a recognized transcript to the draft buffer,
// separated by a single space when the buffer is non-empty. Empty transcripts
// are ignored.
func (s *Session) AppendVoiceTranscript(transcript string) {
	if transcript == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft != "" {
		s.draft += " "
	}
	s.draft += transcript
	s.lastActive = time.Now()
}

// Clear resets the transcript to a single fresh welcome message and empties
// the draft buffer. The session id is kept; a pending booking prompt is
// cancelled. Valid in any state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []models.Message{welcomeMessage(s.welcome)}
	s.draft = ""
	s.cancelBookingPromptLocked()
	s.bookingVisible = false
	s.lastActive = time.Now()
}

// BookingVisible reports whether the booking workflow should be surfaced.
func (s *Session) BookingVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookingVisible
}

// OpenBooking surfaces the booking workflow immediately (direct "Book"
// action, not backend-triggered).
func (s *Session) OpenBooking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookingVisible = true
}

// CloseBooking hides the booking workflow and cancels a pending prompt.
func (s *Session) CloseBooking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelBookingPromptLocked()
	s.bookingVisible = false
}

// QuickRepliesVisible reports whether quick-reply suggestions should show:
// only while the conversation holds at most the welcome message and one
// exchange's opening.
func (s *Session) QuickRepliesVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages) <= 2
}

// CurrentState returns the chat request state.
func (s *Session) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close marks the session as gone. Late-arriving responses and pending
// timers become no-ops; nothing mutates a closed session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelBookingPromptLocked()
}

func (s *Session) scheduleBookingPromptLocked(delay time.Duration) {
	s.cancelBookingPromptLocked()
	s.bookingTimer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.bookingVisible = true
	})
}

func (s *Session) cancelBookingPromptLocked() {
	if s.bookingTimer != nil {
		s.bookingTimer.Stop()
		s.bookingTimer = nil
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive)
}
