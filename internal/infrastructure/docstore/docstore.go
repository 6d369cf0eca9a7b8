// Package docstore defines the document store contract the reconciliation
// core is built on: keyed JSON documents per collection, equality queries,
// partial updates with set-membership field ops, and a live change feed.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names used by the application.
const (
	CollectionUsers       = "users"
	CollectionPosts       = "posts"
	CollectionCredentials = "credentials"
)

// CreatedAtField is the document field every backend uses to order its
// collections (descending). Documents persist it as an ISO-8601 string.
const CreatedAtField = "createdAt"

var (
	// ErrNotFound indicates a requested document is missing.
	ErrNotFound = errors.New("document not found")
)

// EventType tags a change event.
type EventType string

const (
	EventAdded    EventType = "added"
	EventModified EventType = "modified"
	EventRemoved  EventType = "removed"
)

// Event describes one addition, modification or removal in a collection.
// Data carries the full document (with its "id" field embedded) for added
// and modified events; it is nil for removed events.
type Event struct {
	Type       EventType       `json:"type"`
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Handler consumes change events. Handlers are invoked sequentially per
// subscription, in emission order.
type Handler func(Event)

// Update describes a partial document update. Set overwrites fields;
// SetAdd/SetRemove treat a string-array field as a set and are idempotent:
// adding a present member or removing an absent one is a no-op, not an
// error.
type Update struct {
	Set       map[string]any
	SetAdd    map[string]string
	SetRemove map[string]string
}

// Store is the document store contract. Mutations return once the remote
// write is confirmed; their effects surface locally only through the
// change feed.
type Store interface {
	// Insert persists a new document and returns its assigned id.
	Insert(ctx context.Context, collection string, doc any) (string, error)

	// InsertWithID persists a new document under a caller-chosen id
	// (used when the document key must equal the auth identity).
	InsertWithID(ctx context.Context, collection, id string, doc any) error

	// Update applies a partial update to an existing document.
	Update(ctx context.Context, collection, id string, update Update) error

	// Delete removes a document. Deleting an absent id is an error.
	Delete(ctx context.Context, collection, id string) error

	// GetByID unmarshals a document (id embedded) into dest.
	GetByID(ctx context.Context, collection, id string, dest any) error

	// Query returns the documents whose field equals value, as raw JSON
	// with ids embedded.
	Query(ctx context.Context, collection, field string, value string) ([]json.RawMessage, error)

	// Subscribe opens a live change feed for a collection. The handler
	// first receives the current contents as added events in ascending
	// createdAt order (so that front-insertion reconciliation yields a
	// newest-first mirror), then live events in emission order. Delivery
	// stops when ctx is cancelled.
	Subscribe(ctx context.Context, collection string, h Handler) error
}

// embedID returns doc's JSON with the "id" field set, the shape change
// events and reads expose to the store boundary.
func embedID(id string, doc []byte) (json.RawMessage, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, err
	}
	m["id"] = id
	return json.Marshal(m)
}
