package repository

import (
	"context"
	"database/sql"

	"github.com/boriskezikov/greenapp.client-provider/internal/model"
)

// ClientRepository defines data access for clients and their attachments using
// SQL queries only. No business logic here — strictly persistence operations.
//
// Write primitives come in pairs: the plain form opens its own implicit
// transaction, the Tx form participates in the caller's transaction. The
// caller-supplied *sql.Tx is an exclusively-owned handle; it must not be
// used by more than one goroutine at a time.
type ClientRepository interface {
	// FindByID returns the client row merged with the id of its dependent
	// attachment when one exists. Returns sql.ErrNoRows when the client
	// does not exist.
	FindByID(ctx context.Context, id int64) (*model.Client, error)

	// FindList returns clients matching the conjunction of the supplied
	// filters, restricted to id > filter.Offset, ascending by id, capped
	// to filter.Limit rows. An empty result is not an error.
	FindList(ctx context.Context, f FindFilter) ([]model.Client, error)

	// FindAttachmentByID returns a single attachment row.
	FindAttachmentByID(ctx context.Context, id int64) (*model.Attachment, error)

	// FindAttachmentsByClientID returns every attachment owned by the client.
	// An empty slice is returned as-is; the caller decides whether that is
	// a failure.
	FindAttachmentsByClientID(ctx context.Context, clientID int64) ([]model.Attachment, error)

	// Insert creates a new client row and returns the storage-assigned id.
	Insert(ctx context.Context, c *model.Client) (int64, error)
	InsertTx(ctx context.Context, tx *sql.Tx, c *model.Client) (int64, error)

	// Attach inserts an attachment row bound to a.ClientID and returns the
	// generated attachment id.
	Attach(ctx context.Context, a *model.Attachment) (int64, error)
	AttachTx(ctx context.Context, tx *sql.Tx, a *model.Attachment) (int64, error)

	// Detach deletes all attachment rows for the client and returns the
	// ids that were deleted.
	Detach(ctx context.Context, clientID int64) ([]int64, error)
	DetachTx(ctx context.Context, tx *sql.Tx, clientID int64) ([]int64, error)

	// Update rewrites all mutable client fields by id and returns the
	// number of rows affected.
	Update(ctx context.Context, c *model.Client) (int64, error)
	UpdateTx(ctx context.Context, tx *sql.Tx, c *model.Client) (int64, error)
}

// FindFilter holds the optional equality predicates and the pagination window
// for FindList. Nil pointer fields omit their predicate entirely.
type FindFilter struct {
	Name    *string
	Surname *string
	Login   *string
	Type    *model.ClientType
	Offset  int64
	Limit   int64
}
