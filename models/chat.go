package models

import "time"

// Message roles within a transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn. Messages are immutable once appended to a
// transcript; the only way to remove one is a full conversation reset.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []string  `json:"sources,omitempty"`
	Intent    string    `json:"intent,omitempty"`
}

// ChatRequest is the payload forwarded to the upstream chat endpoint.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
}

// ChatResponse is the upstream reply to one chat turn. BookingTriggered is an
// opaque signal owned by the upstream; the gateway honors it but never infers
// booking intent from message text.
type ChatResponse struct {
	Answer           string   `json:"answer"`
	Sources          []string `json:"sources"`
	Intent           string   `json:"intent"`
	BookingTriggered bool     `json:"booking_triggered"`
}

// Supported language preferences for a session.
const (
	LanguageAuto  = "auto"
	LanguageEN    = "en"
	LanguageHindi = "hi"
)

// ValidLanguage reports whether lang is a supported language preference.
func ValidLanguage(lang string) bool {
	switch lang {
	case LanguageAuto, LanguageEN, LanguageHindi:
		return true
	}
	return false
}
