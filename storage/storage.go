// Package storage persists todo records behind one Repository contract with
// two interchangeable backends: an indexed transactional SQLite database and a
// key-value store holding the whole collection under a single key.
package storage

import (
	"context"
	"time"

	"github.com/example/todo-demo/domain/todo"
)

// Backend names reported by Repository.Backend.
const (
	BackendSQLite = "sqlite"
	BackendKV     = "kv"
)

// Repository is the persistence contract shared by every backend.
type Repository interface {
	// Backend names the active engine.
	Backend() string

	// List returns every record in backend-native order.
	List(ctx context.Context) ([]todo.Todo, error)

	// Get returns the record and true, or false when id does not exist.
	Get(ctx context.Context, id string) (todo.Todo, bool, error)

	// Create validates input, assigns an id and timestamps and stores it.
	Create(ctx context.Context, input todo.Input) (todo.Todo, error)

	// Update applies a partial patch. It fails with todo.ErrNotFound when id
	// does not exist.
	Update(ctx context.Context, id string, patch todo.Patch) (todo.Todo, error)

	// Delete removes id and reports whether a record was removed. Deleting a
	// missing id is not an error.
	Delete(ctx context.Context, id string) (bool, error)

	// BulkAction deletes or completes the given ids and reports how many
	// records actually changed.
	BulkAction(ctx context.Context, req todo.BulkRequest) (todo.BulkResult, error)

	// ExportJSON serializes every record into an export document.
	ExportJSON(ctx context.Context) ([]byte, error)

	// ImportJSON stores the records of an export document as-is and returns
	// how many were imported. It fails with todo.ErrBadJSON on a malformed
	// document.
	ImportJSON(ctx context.Context, data []byte) (int, error)

	// Close releases the underlying storage.
	Close() error
}

// Option configures a repository.
type Option func(*options)

type options struct {
	clock func() time.Time
	newID func() string
}

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithIDGenerator overrides the id generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

func newOptions(opts []Option) options {
	o := options{
		clock: time.Now,
		newID: todo.NewID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) now() time.Time {
	return todo.Timestamp(o.clock())
}
