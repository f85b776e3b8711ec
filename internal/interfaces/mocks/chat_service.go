package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docuchat/backend/internal/model"
	"docuchat/backend/internal/service"
)

// ChatService is a testify mock for interfaces.ChatService.
type ChatService struct {
	mock.Mock
}

func (m *ChatService) CreateSession() string {
	args := m.Called()
	return args.String(0)
}

func (m *ChatService) Transcript(sessionID string) ([]model.Message, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *ChatService) Reset(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *ChatService) DeleteSession(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *ChatService) StreamTurn(ctx context.Context, sessionID string, in *service.TurnInput, out chan<- model.StreamChunk) {
	m.Called(ctx, sessionID, in, out)
}

func NewChatService(t interface {
	mock.TestingT
	Cleanup(func())
}) *ChatService {
	m := &ChatService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
