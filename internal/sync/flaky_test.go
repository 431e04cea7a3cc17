package sync_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskpad/taskpad/internal/gateway"
	"github.com/taskpad/taskpad/internal/remote"
)

// flakyStore wraps a real store and fails selected operations, so tests can
// exercise rollback paths without a network.
type flakyStore struct {
	remote.Store
	failCreate bool
	failUpdate bool
	failQuery  bool
	failDelete map[string]bool // by document id

	queryCalls  int
	deleteCalls int
}

func (s *flakyStore) Create(ctx context.Context, collection string, fields map[string]any) (*remote.Document, error) {
	if s.failCreate {
		return nil, fmt.Errorf("create rejected")
	}
	return s.Store.Create(ctx, collection, fields)
}

func (s *flakyStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if s.failUpdate {
		return fmt.Errorf("update rejected")
	}
	return s.Store.Update(ctx, collection, id, fields)
}

func (s *flakyStore) Delete(ctx context.Context, collection, id string) error {
	s.deleteCalls++
	if s.failDelete[id] {
		return fmt.Errorf("delete rejected")
	}
	return s.Store.Delete(ctx, collection, id)
}

func (s *flakyStore) Query(ctx context.Context, collection string, filters []remote.Filter, order remote.Order) ([]remote.Document, error) {
	s.queryCalls++
	if s.failQuery {
		return nil, fmt.Errorf("query rejected")
	}
	return s.Store.Query(ctx, collection, filters, order)
}

// hookedStore runs callbacks just before an operation reaches the real
// store, to interleave list calls with in-flight writes deterministically.
type hookedStore struct {
	remote.Store
	beforeCreate func()
	beforeUpdate func()
	beforeQuery  func()
}

func (s *hookedStore) Create(ctx context.Context, collection string, fields map[string]any) (*remote.Document, error) {
	if s.beforeCreate != nil {
		s.beforeCreate()
	}
	return s.Store.Create(ctx, collection, fields)
}

func (s *hookedStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}
	return s.Store.Update(ctx, collection, id, fields)
}

func (s *hookedStore) Query(ctx context.Context, collection string, filters []remote.Filter, order remote.Order) ([]remote.Document, error) {
	if s.beforeQuery != nil {
		s.beforeQuery()
	}
	return s.Store.Query(ctx, collection, filters, order)
}

func asWriteError(err error, target **gateway.WriteError) bool {
	return errors.As(err, target)
}
