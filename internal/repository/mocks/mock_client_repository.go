package mocks

import (
	"context"
	"database/sql"

	"github.com/boriskezikov/greenapp.client-provider/internal/model"
	"github.com/boriskezikov/greenapp.client-provider/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockClientRepository struct {
	mock.Mock
}

var _ repository.ClientRepository = (*MockClientRepository)(nil)

func (m *MockClientRepository) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientRepository) FindList(ctx context.Context, f repository.FindFilter) ([]model.Client, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Client), args.Error(1)
}

func (m *MockClientRepository) FindAttachmentByID(ctx context.Context, id int64) (*model.Attachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attachment), args.Error(1)
}

func (m *MockClientRepository) FindAttachmentsByClientID(ctx context.Context, clientID int64) ([]model.Attachment, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attachment), args.Error(1)
}

func (m *MockClientRepository) Insert(ctx context.Context, c *model.Client) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) InsertTx(ctx context.Context, tx *sql.Tx, c *model.Client) (int64, error) {
	args := m.Called(ctx, tx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) Attach(ctx context.Context, a *model.Attachment) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) AttachTx(ctx context.Context, tx *sql.Tx, a *model.Attachment) (int64, error) {
	args := m.Called(ctx, tx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) Detach(ctx context.Context, clientID int64) ([]int64, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockClientRepository) DetachTx(ctx context.Context, tx *sql.Tx, clientID int64) ([]int64, error) {
	args := m.Called(ctx, tx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, c *model.Client) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) UpdateTx(ctx context.Context, tx *sql.Tx, c *model.Client) (int64, error) {
	args := m.Called(ctx, tx, c)
	return args.Get(0).(int64), args.Error(1)
}
