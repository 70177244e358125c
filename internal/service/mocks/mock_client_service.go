package mocks

import (
	"context"

	"github.com/boriskezikov/greenapp.client-provider/internal/model"
	"github.com/boriskezikov/greenapp.client-provider/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockClientService struct {
	mock.Mock
}

var _ service.ClientService = (*MockClientService)(nil)

func (m *MockClientService) Create(ctx context.Context, req service.CreateClientRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientService) Edit(ctx context.Context, req service.EditClientRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockClientService) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientService) Find(ctx context.Context, req service.FindClientsRequest) ([]model.Client, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Client), args.Error(1)
}

func (m *MockClientService) FindAttachments(ctx context.Context, clientID int64) ([]model.Attachment, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attachment), args.Error(1)
}
