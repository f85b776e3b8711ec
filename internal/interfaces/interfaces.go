package interfaces

import (
	"context"

	"docuchat/backend/internal/model"
	"docuchat/backend/internal/service"
)

// ChatService defines the contract the API layer depends on. Depending on
// the interface instead of the concrete service keeps handlers mockable.
type ChatService interface {
	CreateSession() string
	Transcript(sessionID string) ([]model.Message, error)
	Reset(sessionID string) error
	DeleteSession(sessionID string) error
	StreamTurn(ctx context.Context, sessionID string, in *service.TurnInput, out chan<- model.StreamChunk)
}
