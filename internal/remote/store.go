// Package remote defines the document store capability the sync core is
// built against: per-document CRUD, equality-filtered ordered queries, and a
// subscription primitive that pushes the full matching document set on every
// change. Implementations: an HTTP client for the taskpad server and an
// in-memory store used for tests and offline operation.
package remote

import (
	"context"
	"time"
)

// Collection names used by the client.
const (
	CollectionProjects = "projects"
	CollectionTasks    = "tasks"
)

// Document is a stored record. ID and Timestamp are assigned by the store on
// creation; everything else lives in Fields.
type Document struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	Timestamp time.Time      `json:"timestamp"`
}

// Filter is an equality constraint on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Order names the sort field and direction for queries and subscriptions.
type Order struct {
	Field string
	Desc  bool
}

// ByTimestamp orders by the server-assigned creation time.
func ByTimestamp(desc bool) Order {
	return Order{Field: "timestamp", Desc: desc}
}

// Subscription is a live query handle. Unsubscribe must be called exactly
// once when the consumer is torn down; after it returns no further snapshots
// are delivered.
type Subscription interface {
	Unsubscribe()
}

// Store is the remote document store contract. All operations may fail with
// a generic I/O error. Reads of absent documents return an empty result, not
// an error. Updates are blind overwrites of the named fields; there is no
// optimistic-concurrency token.
type Store interface {
	// Get returns the document with the given id, or nil if absent.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Query returns the full ordered set of documents matching all filters.
	Query(ctx context.Context, collection string, filters []Filter, order Order) ([]Document, error)

	// Subscribe opens a live query. The current matching set is delivered to
	// onSnapshot immediately and again in full after every change; snapshots
	// replace, never patch, the previous set.
	Subscribe(ctx context.Context, collection string, filters []Filter, order Order, onSnapshot func([]Document)) (Subscription, error)

	// Create persists a new document, assigning id and timestamp, and returns
	// it as persisted.
	Create(ctx context.Context, collection string, fields map[string]any) (*Document, error)

	// Update overwrites the named fields of an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error
}
