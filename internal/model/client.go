package model

import (
	"bytes"
	"fmt"
	"time"
)

// ClientType is the closed set of client categories. It is stored in PostgreSQL
// as the client_type enumeration and must be cast on write.
type ClientType string

const (
	TypeIndividual ClientType = "INDIVIDUAL"
	TypeCorporate  ClientType = "CORPORATE"
)

// ParseClientType validates a raw string against the closed set.
func ParseClientType(s string) (ClientType, error) {
	switch ClientType(s) {
	case TypeIndividual, TypeCorporate:
		return ClientType(s), nil
	}
	return "", fmt.Errorf("unknown client type: %q", s)
}

// Client is the primary record of the system.
// ID, Updated and Created are storage-assigned and absent on creation input.
// AttachmentID is merged in by find-by-id when a dependent attachment exists.
type Client struct {
	ID           int64      `json:"id,omitempty"`
	Login        string     `json:"login"`
	Name         string     `json:"name"`
	Surname      string     `json:"surname"`
	BirthDate    time.Time  `json:"birthDate,omitempty"`
	Description  string     `json:"description,omitempty"`
	AttachmentID *int64     `json:"attachmentId,omitempty"`
	Type         ClientType `json:"type"`
	Updated      time.Time  `json:"updated,omitempty"`
	Created      time.Time  `json:"created,omitempty"`
}

// EditableEquals reports whether two clients carry the same user-editable
// fields. ID, AttachmentID and the storage-assigned timestamps are ignored,
// so it answers "would an update be a no-op".
func (c Client) EditableEquals(other Client) bool {
	return c.Login == other.Login &&
		c.Name == other.Name &&
		c.Surname == other.Surname &&
		c.Description == other.Description &&
		c.Type == other.Type &&
		sameDate(c.BirthDate, other.BirthDate)
}

func sameDate(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() == b.IsZero()
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Attachment is the optional binary payload owned by exactly one client.
// A client has at most one attachment in the edit flow; replacement is
// detach-before-attach.
type Attachment struct {
	ID            int64  `json:"id,omitempty"`
	ClientID      int64  `json:"clientId"`
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
	Content       []byte `json:"content"`
}

// ContentEquals compares attachments by content bytes only.
func (a Attachment) ContentEquals(other Attachment) bool {
	return bytes.Equal(a.Content, other.Content)
}
