package mocks

import (
	"context"

	"github.com/boriskezikov/greenapp.client-provider/internal/event"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

var _ event.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, ev event.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
