package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docuchat/backend/internal/llm"
)

// Provider is a testify mock for llm.Provider.
type Provider struct {
	mock.Mock
}

func (m *Provider) CountTokens(ctx context.Context, req *llm.GenerateRequest) (int, error) {
	args := m.Called(ctx, req)
	return args.Int(0), args.Error(1)
}

func (m *Provider) GenerateStream(ctx context.Context, req *llm.GenerateRequest, ch chan<- llm.StreamChunk) error {
	args := m.Called(ctx, req, ch)
	return args.Error(0)
}

// NewProvider creates the mock and registers expectation assertions as test
// cleanup, mirroring what mockery generates.
func NewProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *Provider {
	m := &Provider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
