package event

import (
	"context"
	"encoding/json"
	"errors"
)

// Event names for client state changes.
const (
	ClientCreated = "ClientCreated"
	ClientUpdated = "ClientUpdated"
)

// ErrBrokerUnavailable is returned once every publish retry is exhausted.
var ErrBrokerUnavailable = errors.New("event broker unavailable")

// Event names an occurrence and carries the affected client id. Events are
// transient; they are published, never stored. The wire format is the
// canonical JSON of this struct, e.g. {"name":"ClientCreated","clientId":42}.
type Event struct {
	Name     string `json:"name"`
	ClientID int64  `json:"clientId"`
}

// Encode renders the event in its canonical wire format.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher dispatches a domain event to the configured broker topic.
// Delivery is at-least-once: a reported success means at least one delivery,
// and callers must tolerate duplicates.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
