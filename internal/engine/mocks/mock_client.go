package mocks

import (
	"context"

	"legalis/internal/engine"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Send(ctx context.Context, prompt string, attachment *engine.Attachment) (string, error) {
	args := m.Called(ctx, prompt, attachment)
	return args.String(0), args.Error(1)
}
