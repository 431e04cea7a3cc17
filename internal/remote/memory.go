package remote

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store. Mutations notify matching subscriptions
// synchronously with a full snapshot, which makes it the deterministic
// backing for the sync core's tests and for offline operation.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]Document
	subs        map[int]*memorySubscription
	nextSub     int
	now         func() time.Time
	lastStamp   time.Time
}

type memorySubscription struct {
	store      *MemoryStore
	id         int
	collection string
	filters    []Filter
	order      Order
	onSnapshot func([]Document)
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: map[string]map[string]Document{},
		subs:        map[int]*memorySubscription{},
		now:         time.Now,
	}
}

// SetTimeFunc sets a custom time function for deterministic timestamps.
func (s *MemoryStore) SetTimeFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = fn
}

// stamp returns a strictly increasing creation time so insertion order is
// never ambiguous under timestamp ordering.
func (s *MemoryStore) stamp() time.Time {
	t := s.now()
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = t
	return t
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if !reflect.DeepEqual(doc.Fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}

// snapshotLocked builds the ordered matching set. Callers hold s.mu.
func (s *MemoryStore) snapshotLocked(collection string, filters []Filter, order Order) []Document {
	var docs []Document
	for _, doc := range s.collections[collection] {
		if matches(doc, filters) {
			docs = append(docs, cloneDocument(doc))
		}
	}
	SortDocuments(docs, order)
	return docs
}

func cloneDocument(doc Document) Document {
	fields := make(map[string]any, len(doc.Fields))
	for k, v := range doc.Fields {
		fields[k] = v
	}
	doc.Fields = fields
	return doc
}

// Get returns the document with the given id, or nil if absent.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.collections[collection][id]; ok {
		c := cloneDocument(doc)
		return &c, nil
	}
	return nil, nil
}

// Query returns the full ordered matching set.
func (s *MemoryStore) Query(ctx context.Context, collection string, filters []Filter, order Order) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(collection, filters, order), nil
}

// Subscribe opens a live query and delivers the current set immediately.
func (s *MemoryStore) Subscribe(ctx context.Context, collection string, filters []Filter, order Order, onSnapshot func([]Document)) (Subscription, error) {
	s.mu.Lock()
	sub := &memorySubscription{
		store:      s,
		id:         s.nextSub,
		collection: collection,
		filters:    filters,
		order:      order,
		onSnapshot: onSnapshot,
	}
	s.nextSub++
	s.subs[sub.id] = sub
	initial := s.snapshotLocked(collection, filters, order)
	s.mu.Unlock()

	onSnapshot(initial)
	return sub, nil
}

// Unsubscribe detaches the listener; no snapshots are delivered afterwards.
func (m *memorySubscription) Unsubscribe() {
	m.store.mu.Lock()
	delete(m.store.subs, m.id)
	m.store.mu.Unlock()
}

// notify pushes fresh snapshots to every subscription on the collection.
// Callbacks run outside the store lock so they may call back into the store.
func (s *MemoryStore) notify(collection string) {
	s.mu.Lock()
	type delivery struct {
		fn   func([]Document)
		docs []Document
	}
	var deliveries []delivery
	for _, sub := range s.subs {
		if sub.collection == collection {
			deliveries = append(deliveries, delivery{
				fn:   sub.onSnapshot,
				docs: s.snapshotLocked(sub.collection, sub.filters, sub.order),
			})
		}
	}
	s.mu.Unlock()

	for _, d := range deliveries {
		d.fn(d.docs)
	}
}

// Create persists a new document, assigning id and timestamp.
func (s *MemoryStore) Create(ctx context.Context, collection string, fields map[string]any) (*Document, error) {
	s.mu.Lock()
	doc := Document{
		ID:        uuid.NewString(),
		Fields:    map[string]any{},
		Timestamp: s.stamp(),
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	if s.collections[collection] == nil {
		s.collections[collection] = map[string]Document{}
	}
	s.collections[collection][doc.ID] = doc
	out := cloneDocument(doc)
	s.mu.Unlock()

	s.notify(collection)
	return &out, nil
}

// Update overwrites the named fields. Updating an absent document is a no-op,
// matching the blind-overwrite contract.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if ok {
		doc = cloneDocument(doc)
		for k, v := range fields {
			doc.Fields[k] = v
		}
		s.collections[collection][id] = doc
	}
	s.mu.Unlock()

	if ok {
		s.notify(collection)
	}
	return nil
}

// Delete removes a document. Deleting an absent document is not an error.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	_, ok := s.collections[collection][id]
	if ok {
		delete(s.collections[collection], id)
	}
	s.mu.Unlock()

	if ok {
		s.notify(collection)
	}
	return nil
}
