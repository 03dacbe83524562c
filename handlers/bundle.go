package handlers

import "salesagent/utils"

// HandlerBundle groups the assembled handlers for route registration.
type HandlerBundle struct {
	Chat    *ChatHandler
	Ingest  *IngestHandler
	Booking *BookingHandler
	Admin   *AdminHandler
	Voice   *VoiceHandler
	Proxy   *ProxyHandler

	AdminTokens utils.AdminTokenStore
}
