package conversation

import (
	"context"

	"salesagent/models"
)

// ChatBackend answers one chat turn. The upstream client implements it; tests
// substitute stubs.
type ChatBackend interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}
