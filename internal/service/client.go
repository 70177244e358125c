package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boriskezikov/greenapp.client-provider/internal/database"
	"github.com/boriskezikov/greenapp.client-provider/internal/event"
	"github.com/boriskezikov/greenapp.client-provider/internal/model"
	"github.com/boriskezikov/greenapp.client-provider/internal/repository"
)

var (
	// ErrClientNotFound is returned when the referenced client does not exist.
	ErrClientNotFound = errors.New("client not found")
	// ErrAttachmentsNotFound is returned when an attachment lookup matches nothing.
	ErrAttachmentsNotFound = errors.New("attachments not found")
	// ErrTransactionAborted wraps any storage failure inside a write scope;
	// every statement issued within the scope has been rolled back.
	ErrTransactionAborted = errors.New("transaction aborted")
)

// ValidationError reports malformed or incomplete input. It is detected
// before any storage mutation becomes visible.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AttachPhotoRequest is the optional binary payload of a create or edit call.
// ClientID is bound by the orchestrator once the owning client id is known.
type AttachPhotoRequest struct {
	ClientID      int64
	ContentType   string
	ContentLength int64
	Content       []byte
}

// Validate checks the fields required before persisting the attachment.
func (r *AttachPhotoRequest) Validate() error {
	if r.ClientID == 0 {
		return &ValidationError{Message: "Client id cannot be null"}
	}
	if r.ContentType == "" {
		return &ValidationError{Message: "Content-Type cannot be null"}
	}
	if r.Content == nil {
		return &ValidationError{Message: "Content cannot be null"}
	}
	return nil
}

func (r *AttachPhotoRequest) toModel() *model.Attachment {
	return &model.Attachment{
		ClientID:      r.ClientID,
		ContentType:   r.ContentType,
		ContentLength: r.ContentLength,
		Content:       r.Content,
	}
}

// CreateClientRequest carries the new client and its optional attachment.
type CreateClientRequest struct {
	Client     model.Client
	Attachment *AttachPhotoRequest
}

// EditClientRequest carries the new field values for an existing client, an
// optional replacement attachment, and the detach flag.
type EditClientRequest struct {
	Client     model.Client
	Attachment *AttachPhotoRequest
	Detach     bool
}

// FindClientsRequest holds the optional equality filters and the pagination
// window for the list operation.
type FindClientsRequest struct {
	Name    *string
	Surname *string
	Login   *string
	Type    *model.ClientType
	Offset  int64
	Limit   int64
}

const defaultFindLimit = 20

// ClientService defines the public use cases over clients and attachments.
type ClientService interface {
	// Create inserts the client and its optional attachment in one
	// transaction and publishes a ClientCreated event; it returns the
	// storage-assigned id.
	Create(ctx context.Context, req CreateClientRequest) (int64, error)

	// Edit loads the current client, completes as a no-op when nothing
	// user-editable changed, and otherwise applies update, detach and
	// attach in one transaction alongside a ClientUpdated event.
	Edit(ctx context.Context, req EditClientRequest) error

	// FindByID returns the client with its attachment id when present.
	FindByID(ctx context.Context, id int64) (*model.Client, error)

	// Find returns the filtered client page; an empty page is a valid answer.
	Find(ctx context.Context, req FindClientsRequest) ([]model.Client, error)

	// FindAttachments returns the client's attachments; an empty result
	// is ErrAttachmentsNotFound.
	FindAttachments(ctx context.Context, clientID int64) ([]model.Attachment, error)
}

type clientService struct {
	db   *sql.DB
	repo repository.ClientRepository
	pub  event.Publisher
	log  *zap.Logger
}

// NewClientService constructs a new ClientService.
func NewClientService(db *sql.DB, repo repository.ClientRepository, pub event.Publisher, log *zap.Logger) ClientService {
	return &clientService{db: db, repo: repo, pub: pub, log: log}
}

// Create inserts the client first so the generated id is computed exactly
// once, then runs the attachment branch and the event branch concurrently.
// Both branches are joined before commit; any failure rolls the whole
// transaction back, leaving no client row behind.
func (s *clientService) Create(ctx context.Context, req CreateClientRequest) (int64, error) {
	s.log.Info("createClient.in", zap.String("login", req.Client.Login))

	var id int64
	err := database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		newID, err := s.repo.InsertTx(ctx, tx, &req.Client)
		if err != nil {
			return fmt.Errorf("%w: insert client: %v", ErrTransactionAborted, err)
		}
		id = newID

		g, gctx := errgroup.WithContext(ctx)
		if req.Attachment != nil {
			att := *req.Attachment
			att.ClientID = newID
			g.Go(func() error {
				if err := att.Validate(); err != nil {
					return err
				}
				if _, err := s.repo.AttachTx(gctx, tx, att.toModel()); err != nil {
					return fmt.Errorf("%w: attach: %v", ErrTransactionAborted, err)
				}
				return nil
			})
		}
		g.Go(func() error {
			return s.pub.Publish(gctx, event.Event{Name: event.ClientCreated, ClientID: newID})
		})
		return g.Wait()
	})
	if err != nil {
		s.log.Warn("createClient.failed", zap.Error(err))
		return 0, err
	}

	s.log.Info("createClient.out", zap.Int64("id", id))
	return id, nil
}

// Edit is a fetch / diff / apply state machine. The fetch fails fast with
// ErrClientNotFound before any transaction is opened; a field-equal client is
// a complete no-op — no statement issued, no event published.
func (s *clientService) Edit(ctx context.Context, req EditClientRequest) error {
	id := req.Client.ID
	s.log.Info("editClient.in", zap.Int64("id", id))

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: no such client exist with id = %d", ErrClientNotFound, id)
		}
		return err
	}

	if req.Client.EditableEquals(*current) {
		s.log.Info("editClient.noop", zap.Int64("id", id))
		return nil
	}

	err = database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		g, gctx := errgroup.WithContext(ctx)

		// All storage statements run on one exclusively-owned handle, so
		// they form a single sequential branch joined with the publish.
		g.Go(func() error {
			if _, err := s.repo.UpdateTx(gctx, tx, &req.Client); err != nil {
				return fmt.Errorf("%w: update client: %v", ErrTransactionAborted, err)
			}
			if req.Detach {
				if _, err := s.repo.DetachTx(gctx, tx, id); err != nil {
					return fmt.Errorf("%w: detach: %v", ErrTransactionAborted, err)
				}
			}
			if req.Attachment != nil {
				att := *req.Attachment
				att.ClientID = id
				if err := att.Validate(); err != nil {
					return err
				}
				if _, err := s.repo.AttachTx(gctx, tx, att.toModel()); err != nil {
					return fmt.Errorf("%w: attach: %v", ErrTransactionAborted, err)
				}
			}
			return nil
		})
		g.Go(func() error {
			return s.pub.Publish(gctx, event.Event{Name: event.ClientUpdated, ClientID: id})
		})
		return g.Wait()
	})
	if err != nil {
		s.log.Warn("editClient.failed", zap.Int64("id", id), zap.Error(err))
		return err
	}

	s.log.Info("editClient.out", zap.Int64("id", id))
	return nil
}

// FindByID returns the client merged with its attachment id when one exists.
func (s *clientService) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no such client exist with id = %d", ErrClientNotFound, id)
		}
		return nil, err
	}
	return c, nil
}

// Find lists clients matching the supplied filters only.
func (s *clientService) Find(ctx context.Context, req FindClientsRequest) ([]model.Client, error) {
	if req.Limit <= 0 {
		req.Limit = defaultFindLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	return s.repo.FindList(ctx, repository.FindFilter{
		Name:    req.Name,
		Surname: req.Surname,
		Login:   req.Login,
		Type:    req.Type,
		Offset:  req.Offset,
		Limit:   req.Limit,
	})
}

// FindAttachments returns the client's attachments, treating an empty result
// as a failure to distinguish it from the checked "client has no attachment"
// paths.
func (s *clientService) FindAttachments(ctx context.Context, clientID int64) ([]model.Attachment, error) {
	items, err := s.repo.FindAttachmentsByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no attachments found for client with id = %d", ErrAttachmentsNotFound, clientID)
	}
	return items, nil
}
