package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boriskezikov/greenapp.client-provider/internal/event"
	eventMocks "github.com/boriskezikov/greenapp.client-provider/internal/event/mocks"
	"github.com/boriskezikov/greenapp.client-provider/internal/model"
	"github.com/boriskezikov/greenapp.client-provider/internal/repository"
	repoMocks "github.com/boriskezikov/greenapp.client-provider/internal/repository/mocks"
)

func newService(t *testing.T) (ClientService, sqlmock.Sqlmock, *repoMocks.MockClientRepository, *eventMocks.MockPublisher) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mRepo := new(repoMocks.MockClientRepository)
	mPub := new(eventMocks.MockPublisher)
	svc := NewClientService(db, mRepo, mPub, zap.NewNop())
	return svc, dbMock, mRepo, mPub
}

func TestAttachPhotoRequest_Validate(t *testing.T) {
	valid := AttachPhotoRequest{
		ClientID:      5,
		ContentType:   "image/png",
		ContentLength: 3,
		Content:       []byte{1, 2, 3},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(r *AttachPhotoRequest)
		wantMsg string
	}{
		{"missing client id", func(r *AttachPhotoRequest) { r.ClientID = 0 }, "Client id cannot be null"},
		{"missing content type", func(r *AttachPhotoRequest) { r.ContentType = "" }, "Content-Type cannot be null"},
		{"missing content", func(r *AttachPhotoRequest) { r.Content = nil }, "Content cannot be null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantMsg, vErr.Message)
		})
	}
}

func TestClientService_Create(t *testing.T) {
	ctx := context.Background()

	newClient := model.Client{
		Login:   "alee",
		Name:    "Ann",
		Surname: "Lee",
		Type:    model.TypeIndividual,
	}

	t.Run("without attachment publishes ClientCreated and commits", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		dbMock.ExpectBegin()
		mRepo.On("InsertTx", mock.Anything, mock.Anything, &newClient).Return(int64(42), nil)
		mPub.On("Publish", mock.Anything, event.Event{Name: event.ClientCreated, ClientID: 42}).Return(nil)
		dbMock.ExpectCommit()

		id, err := svc.Create(ctx, CreateClientRequest{Client: newClient})

		assert.NoError(t, err)
		assert.Equal(t, int64(42), id)
		mRepo.AssertNotCalled(t, "AttachTx", mock.Anything, mock.Anything, mock.Anything)
		mRepo.AssertExpectations(t)
		mPub.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("attachment is bound to the generated id", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		dbMock.ExpectBegin()
		mRepo.On("InsertTx", mock.Anything, mock.Anything, mock.Anything).Return(int64(42), nil)
		mRepo.On("AttachTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *model.Attachment) bool {
			return a.ClientID == 42 && a.ContentType == "image/png"
		})).Return(int64(7), nil)
		mPub.On("Publish", mock.Anything, event.Event{Name: event.ClientCreated, ClientID: 42}).Return(nil)
		dbMock.ExpectCommit()

		id, err := svc.Create(ctx, CreateClientRequest{
			Client: newClient,
			Attachment: &AttachPhotoRequest{
				ContentType:   "image/png",
				ContentLength: 3,
				Content:       []byte{1, 2, 3},
			},
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(42), id)
		mRepo.AssertExpectations(t)
		mPub.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("attachment validation failure rolls back the insert", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		dbMock.ExpectBegin()
		mRepo.On("InsertTx", mock.Anything, mock.Anything, mock.Anything).Return(int64(42), nil)
		// the event branch is started concurrently and may finish either way
		mPub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
		dbMock.ExpectRollback()

		_, err := svc.Create(ctx, CreateClientRequest{
			Client: newClient,
			Attachment: &AttachPhotoRequest{
				ContentLength: 3,
				Content:       []byte{1, 2, 3},
			},
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "Content-Type cannot be null", vErr.Message)
		mRepo.AssertNotCalled(t, "AttachTx", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("insert failure aborts before any branch starts", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		dbMock.ExpectBegin()
		mRepo.On("InsertTx", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), sql.ErrConnDone)
		dbMock.ExpectRollback()

		_, err := svc.Create(ctx, CreateClientRequest{Client: newClient})

		assert.ErrorIs(t, err, ErrTransactionAborted)
		mPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("broker failure rolls back the storage branch", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		dbMock.ExpectBegin()
		mRepo.On("InsertTx", mock.Anything, mock.Anything, mock.Anything).Return(int64(42), nil)
		mPub.On("Publish", mock.Anything, mock.Anything).Return(event.ErrBrokerUnavailable)
		dbMock.ExpectRollback()

		_, err := svc.Create(ctx, CreateClientRequest{Client: newClient})

		assert.ErrorIs(t, err, event.ErrBrokerUnavailable)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestClientService_Edit(t *testing.T) {
	ctx := context.Background()
	born := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)

	current := model.Client{
		ID:        5,
		Login:     "alee",
		Name:      "Ann",
		Surname:   "Lee",
		BirthDate: born,
		Type:      model.TypeIndividual,
		Updated:   time.Now(),
		Created:   time.Now().Add(-time.Hour),
	}

	t.Run("not found fails fast without opening a transaction", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		mRepo.On("FindByID", mock.Anything, int64(404)).Return(nil, sql.ErrNoRows)

		err := svc.Edit(ctx, EditClientRequest{Client: model.Client{ID: 404}})

		assert.ErrorIs(t, err, ErrClientNotFound)
		assert.Contains(t, err.Error(), "id = 404")
		mPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("field-equal client completes as a no-op", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		mRepo.On("FindByID", mock.Anything, int64(5)).Return(&current, nil)

		incoming := current
		incoming.Updated = time.Time{}
		incoming.Created = time.Time{}

		err := svc.Edit(ctx, EditClientRequest{Client: incoming})

		assert.NoError(t, err)
		mRepo.AssertNotCalled(t, "UpdateTx", mock.Anything, mock.Anything, mock.Anything)
		mPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		// no Begin was ever expected; any transaction here is a defect
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("changed surname with detach and new attachment", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		mRepo.On("FindByID", mock.Anything, int64(5)).Return(&current, nil)

		incoming := current
		incoming.Surname = "Li"

		dbMock.ExpectBegin()
		mRepo.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(c *model.Client) bool {
			return c.ID == 5 && c.Surname == "Li"
		})).Return(int64(1), nil)
		mRepo.On("DetachTx", mock.Anything, mock.Anything, int64(5)).Return([]int64{31}, nil)
		mRepo.On("AttachTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *model.Attachment) bool {
			return a.ClientID == 5
		})).Return(int64(32), nil)
		mPub.On("Publish", mock.Anything, event.Event{Name: event.ClientUpdated, ClientID: 5}).Return(nil)
		dbMock.ExpectCommit()

		err := svc.Edit(ctx, EditClientRequest{
			Client: incoming,
			Detach: true,
			Attachment: &AttachPhotoRequest{
				ContentType:   "image/png",
				ContentLength: 3,
				Content:       []byte{1, 2, 3},
			},
		})

		assert.NoError(t, err)
		mRepo.AssertExpectations(t)
		mPub.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("attachment validation failure rolls back the update", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		mRepo.On("FindByID", mock.Anything, int64(5)).Return(&current, nil)

		incoming := current
		incoming.Surname = "Li"

		dbMock.ExpectBegin()
		mRepo.On("UpdateTx", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
		mPub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
		dbMock.ExpectRollback()

		err := svc.Edit(ctx, EditClientRequest{
			Client: incoming,
			Attachment: &AttachPhotoRequest{
				ContentLength: 3,
				Content:       []byte{1, 2, 3},
			},
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "Content-Type cannot be null", vErr.Message)
		mRepo.AssertNotCalled(t, "AttachTx", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("update failure aborts the transaction", func(t *testing.T) {
		svc, dbMock, mRepo, mPub := newService(t)

		mRepo.On("FindByID", mock.Anything, int64(5)).Return(&current, nil)

		incoming := current
		incoming.Name = "Anna"

		dbMock.ExpectBegin()
		mRepo.On("UpdateTx", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), sql.ErrConnDone)
		mPub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
		dbMock.ExpectRollback()

		err := svc.Edit(ctx, EditClientRequest{Client: incoming})

		assert.ErrorIs(t, err, ErrTransactionAborted)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestClientService_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc, _, mRepo, _ := newService(t)

		attID := int64(31)
		mRepo.On("FindByID", mock.Anything, int64(5)).
			Return(&model.Client{ID: 5, Login: "alee", AttachmentID: &attID}, nil)

		c, err := svc.FindByID(ctx, 5)

		assert.NoError(t, err)
		require.NotNil(t, c)
		require.NotNil(t, c.AttachmentID)
		assert.Equal(t, int64(31), *c.AttachmentID)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _, mRepo, _ := newService(t)

		mRepo.On("FindByID", mock.Anything, int64(404)).Return(nil, sql.ErrNoRows)

		c, err := svc.FindByID(ctx, 404)

		assert.ErrorIs(t, err, ErrClientNotFound)
		assert.Contains(t, err.Error(), "id = 404")
		assert.Nil(t, c)
	})
}

func TestClientService_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults applied", func(t *testing.T) {
		svc, _, mRepo, _ := newService(t)

		mRepo.On("FindList", mock.Anything, repository.FindFilter{Offset: 0, Limit: 20}).
			Return([]model.Client{}, nil)

		got, err := svc.Find(ctx, FindClientsRequest{Limit: 0, Offset: -3})

		assert.NoError(t, err)
		assert.Empty(t, got)
		mRepo.AssertExpectations(t)
	})

	t.Run("filters forwarded", func(t *testing.T) {
		svc, _, mRepo, _ := newService(t)

		typ := model.TypeCorporate
		mRepo.On("FindList", mock.Anything, repository.FindFilter{Type: &typ, Offset: 0, Limit: 2}).
			Return([]model.Client{{ID: 1}, {ID: 2}}, nil)

		got, err := svc.Find(ctx, FindClientsRequest{Type: &typ, Limit: 2})

		assert.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(2), got[1].ID)
	})
}

func TestClientService_FindAttachments(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc, _, mRepo, _ := newService(t)

		mRepo.On("FindAttachmentsByClientID", mock.Anything, int64(5)).
			Return([]model.Attachment{{ID: 31, ClientID: 5}}, nil)

		got, err := svc.FindAttachments(ctx, 5)

		assert.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("empty is not found", func(t *testing.T) {
		svc, _, mRepo, _ := newService(t)

		mRepo.On("FindAttachmentsByClientID", mock.Anything, int64(9)).
			Return([]model.Attachment{}, nil)

		got, err := svc.FindAttachments(ctx, 9)

		assert.ErrorIs(t, err, ErrAttachmentsNotFound)
		assert.Contains(t, err.Error(), "id = 9")
		assert.Nil(t, got)
	})
}
