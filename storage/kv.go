package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/example/todo-demo/domain/todo"
)

// KV is the minimal byte store the key-value backend runs on.
type KV interface {
	// Get returns the value and true, or false when key is unset.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// KVRepository keeps the whole collection as one JSON array under a single
// key and rewrites it on every mutation. The mutex serializes operations on
// one repository value only; separate processes sharing the key can still
// lose each other's updates.
type KVRepository struct {
	kv   KV
	key  string
	mu   sync.Mutex
	opts options
}

var _ Repository = (*KVRepository)(nil)

// NewKVRepository creates a repository storing its records under key.
func NewKVRepository(kv KV, key string, opts ...Option) *KVRepository {
	return &KVRepository{kv: kv, key: key, opts: newOptions(opts)}
}

// Backend implements Repository.
func (r *KVRepository) Backend() string {
	return BackendKV
}

func (r *KVRepository) load(ctx context.Context) ([]todo.Todo, error) {
	data, ok, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.key, err)
	}
	if !ok || len(data) == 0 {
		return []todo.Todo{}, nil
	}
	var items []todo.Todo
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.key, err)
	}
	if items == nil {
		items = []todo.Todo{}
	}
	return items, nil
}

func (r *KVRepository) save(ctx context.Context, items []todo.Todo) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode todos: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.key, err)
	}
	return nil
}

// List returns all records in insertion order.
func (r *KVRepository) List(ctx context.Context) ([]todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Get implements Repository.
func (r *KVRepository) Get(ctx context.Context, id string) (todo.Todo, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return todo.Todo{}, false, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return todo.Todo{}, false, nil
	}
	return items[i], true, nil
}

// Create implements Repository.
func (r *KVRepository) Create(ctx context.Context, input todo.Input) (todo.Todo, error) {
	t, err := todo.New(input, r.opts.newID(), r.opts.now())
	if err != nil {
		return todo.Todo{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return todo.Todo{}, err
	}
	if err := r.save(ctx, append(items, t)); err != nil {
		return todo.Todo{}, err
	}
	return t, nil
}

// Update implements Repository.
func (r *KVRepository) Update(ctx context.Context, id string, patch todo.Patch) (todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return todo.Todo{}, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return todo.Todo{}, todo.ErrNotFound
	}
	next, err := items[i].Apply(patch, r.opts.now())
	if err != nil {
		return todo.Todo{}, err
	}
	items[i] = next
	if err := r.save(ctx, items); err != nil {
		return todo.Todo{}, err
	}
	return next, nil
}

// Delete implements Repository.
func (r *KVRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return false, nil
	}
	if err := r.save(ctx, slices.Delete(items, i, i+1)); err != nil {
		return false, err
	}
	return true, nil
}

// BulkAction implements Repository.
func (r *KVRepository) BulkAction(ctx context.Context, req todo.BulkRequest) (todo.BulkResult, error) {
	if req.Action != todo.BulkDelete && req.Action != todo.BulkComplete {
		return todo.BulkResult{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return todo.BulkResult{}, err
	}

	selected := make(map[string]struct{}, len(req.IDs))
	for _, id := range req.IDs {
		selected[id] = struct{}{}
	}

	var updated int
	switch req.Action {
	case todo.BulkDelete:
		before := len(items)
		items = slices.DeleteFunc(items, func(t todo.Todo) bool {
			_, ok := selected[t.ID]
			return ok
		})
		updated = before - len(items)
	case todo.BulkComplete:
		now := r.opts.now()
		for i, t := range items {
			if _, ok := selected[t.ID]; !ok {
				continue
			}
			if next, changed := t.Complete(now); changed {
				items[i] = next
				updated++
			}
		}
	}

	if updated == 0 {
		return todo.BulkResult{}, nil
	}
	if err := r.save(ctx, items); err != nil {
		return todo.BulkResult{}, err
	}
	return todo.BulkResult{Updated: updated}, nil
}

// ExportJSON implements Repository.
func (r *KVRepository) ExportJSON(ctx context.Context) ([]byte, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return encodeExport(items, r.opts.now())
}

// ImportJSON implements Repository. Records whose id already exists replace
// the stored record in place; the rest are appended.
func (r *KVRepository) ImportJSON(ctx context.Context, data []byte) (int, error) {
	imported, err := decodeImport(data, r.opts.newID)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range imported {
		if i := indexOf(items, t.ID); i >= 0 {
			items[i] = t
			continue
		}
		items = append(items, t)
	}
	if err := r.save(ctx, items); err != nil {
		return 0, err
	}
	return len(imported), nil
}

// Ping checks the underlying store.
func (r *KVRepository) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}

// Close closes the underlying store.
func (r *KVRepository) Close() error {
	return r.kv.Close()
}

func indexOf(items []todo.Todo, id string) int {
	return slices.IndexFunc(items, func(t todo.Todo) bool {
		return t.ID == id
	})
}
