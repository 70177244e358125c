package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/boriskezikov/greenapp.client-provider/internal/database"
	"github.com/boriskezikov/greenapp.client-provider/internal/model"
	"github.com/boriskezikov/greenapp.client-provider/internal/repository"
)

// ClientPostgres is a PostgreSQL implementation of repository.ClientRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ClientPostgres struct {
	db *sql.DB
}

// NewClientPostgres creates a new ClientPostgres repository.
func NewClientPostgres(db *sql.DB) *ClientPostgres {
	return &ClientPostgres{db: db}
}

var _ repository.ClientRepository = (*ClientPostgres)(nil)

// FindByID fetches the client row and merges in the id of its dependent
// attachment (zero or one) from a second query.
func (r *ClientPostgres) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	const q = `
		SELECT id, name, surname, login, description, CAST(type AS VARCHAR), birth_date, updated, created
		FROM client
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)

	var (
		c         model.Client
		desc      sql.NullString
		typ       string
		birthDate sql.NullTime
	)
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Surname,
		&c.Login,
		&desc,
		&typ,
		&birthDate,
		&c.Updated,
		&c.Created,
	); err != nil {
		return nil, err
	}
	c.Description = desc.String
	c.Type = model.ClientType(typ)
	if birthDate.Valid {
		c.BirthDate = birthDate.Time
	}

	const qAtt = `SELECT id FROM attachment WHERE client_id = $1`
	var attID int64
	err := r.db.QueryRowContext(ctx, qAtt, id).Scan(&attID)
	switch {
	case err == nil:
		c.AttachmentID = &attID
	case errors.Is(err, sql.ErrNoRows):
		// client simply has no attachment
	default:
		return nil, err
	}

	return &c, nil
}

// FindList returns the filtered, offset-keyed, limit-capped client page in
// ascending id order. The projection carries id, name, surname, login and type only.
func (r *ClientPostgres) FindList(ctx context.Context, f repository.FindFilter) ([]model.Client, error) {
	q, args := buildFindListQuery(f)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Client, 0)
	for rows.Next() {
		var (
			c   model.Client
			typ string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Surname, &c.Login, &typ); err != nil {
			return nil, err
		}
		c.Type = model.ClientType(typ)
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindAttachmentByID fetches a single attachment row.
func (r *ClientPostgres) FindAttachmentByID(ctx context.Context, id int64) (*model.Attachment, error) {
	const q = `SELECT id, client_id, content, type, length FROM attachment WHERE id = $1`
	var a model.Attachment
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.ClientID, &a.Content, &a.ContentType, &a.ContentLength)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAttachmentsByClientID fetches every attachment owned by the client.
func (r *ClientPostgres) FindAttachmentsByClientID(ctx context.Context, clientID int64) ([]model.Attachment, error) {
	const q = `SELECT id, client_id, content, type, length FROM attachment WHERE client_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Attachment, 0)
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Content, &a.ContentType, &a.ContentLength); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Insert creates the client row inside its own implicit transaction.
func (r *ClientPostgres) Insert(ctx context.Context, c *model.Client) (int64, error) {
	var id int64
	err := database.WithinImplicitTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		id, err = r.InsertTx(ctx, tx, c)
		return err
	})
	return id, err
}

// InsertTx creates the client row inside the caller's transaction and returns
// the storage-assigned id.
func (r *ClientPostgres) InsertTx(ctx context.Context, tx *sql.Tx, c *model.Client) (int64, error) {
	const stmt = `
		INSERT INTO client (name, surname, login, description, type, birth_date)
		VALUES ($1, $2, $3, $4, $5::client_type, $6)
		RETURNING id
	`
	var id int64
	if err := tx.QueryRowContext(ctx, stmt, insertClientArgs(c)...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Attach inserts the attachment row inside its own implicit transaction.
func (r *ClientPostgres) Attach(ctx context.Context, a *model.Attachment) (int64, error) {
	var id int64
	err := database.WithinImplicitTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		id, err = r.AttachTx(ctx, tx, a)
		return err
	})
	return id, err
}

// AttachTx inserts the attachment row bound to a.ClientID inside the caller's
// transaction and returns the generated attachment id.
func (r *ClientPostgres) AttachTx(ctx context.Context, tx *sql.Tx, a *model.Attachment) (int64, error) {
	const stmt = `
		INSERT INTO attachment (client_id, type, length, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	if err := tx.QueryRowContext(ctx, stmt, attachArgs(a)...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Detach deletes the client's attachments inside its own implicit transaction.
func (r *ClientPostgres) Detach(ctx context.Context, clientID int64) ([]int64, error) {
	var ids []int64
	err := database.WithinImplicitTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		ids, err = r.DetachTx(ctx, tx, clientID)
		return err
	})
	return ids, err
}

// DetachTx deletes all attachment rows for the client inside the caller's
// transaction and returns the deleted ids.
func (r *ClientPostgres) DetachTx(ctx context.Context, tx *sql.Tx, clientID int64) ([]int64, error) {
	const stmt = `DELETE FROM attachment WHERE client_id = $1 RETURNING id`
	rows, err := tx.QueryContext(ctx, stmt, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Update rewrites the client's mutable fields inside its own implicit transaction.
func (r *ClientPostgres) Update(ctx context.Context, c *model.Client) (int64, error) {
	var affected int64
	err := database.WithinImplicitTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		affected, err = r.UpdateTx(ctx, tx, c)
		return err
	})
	return affected, err
}

// UpdateTx rewrites the client's mutable fields inside the caller's
// transaction and returns the row count affected.
func (r *ClientPostgres) UpdateTx(ctx context.Context, tx *sql.Tx, c *model.Client) (int64, error) {
	const stmt = `
		UPDATE client
		SET name = $1, surname = $2, login = $3, description = $4, birth_date = $5, updated = now()
		WHERE id = $6
	`
	res, err := tx.ExecContext(ctx, stmt, updateClientArgs(c)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
