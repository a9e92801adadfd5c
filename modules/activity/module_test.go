package activity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/todo-demo/events"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// fakeConn records every frame written to it.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failWith error
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) changes(t *testing.T) []Change {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Change, 0, len(c.messages))
	for _, raw := range c.messages {
		var ch Change
		require.NoError(t, json.Unmarshal(raw, &ch))
		out = append(out, ch)
	}
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func startModule(t *testing.T) *ActivityModule {
	t.Helper()
	m := NewModule(&mockLogger{})
	require.NoError(t, m.Start(context.Background()))
	return m
}

func TestModule_Name(t *testing.T) {
	m := NewModule(&mockLogger{})
	if name := m.Name(); name != "activity" {
		t.Errorf("Name() = %q, want 'activity'", name)
	}
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	m := startModule(t)
	defer m.Stop(context.Background())

	a, b := &fakeConn{}, &fakeConn{}
	require.True(t, m.Hub().Register(&Client{ID: "a", Conn: a}))
	require.True(t, m.Hub().Register(&Client{ID: "b", Conn: b}))
	require.Eventually(t, func() bool { return m.Hub().ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	m.Hub().Broadcast(Change{Type: ChangeType, Reason: ReasonCreated, IDs: []string{"x"}, Count: 1})

	for _, conn := range []*fakeConn{a, b} {
		require.Eventually(t, func() bool { return len(conn.changes(t)) == 1 }, time.Second, 5*time.Millisecond)
		got := conn.changes(t)[0]
		assert.Equal(t, ChangeType, got.Type)
		assert.Equal(t, []string{"x"}, got.IDs)
	}
}

func TestHub_FailingClientDoesNotBlockOthers(t *testing.T) {
	m := startModule(t)
	defer m.Stop(context.Background())

	bad := &fakeConn{failWith: errors.New("broken pipe")}
	good := &fakeConn{}
	require.True(t, m.Hub().Register(&Client{ID: "bad", Conn: bad}))
	require.True(t, m.Hub().Register(&Client{ID: "good", Conn: good}))

	m.Hub().Broadcast(Change{Type: ChangeType, Reason: ReasonDeleted})

	require.Eventually(t, func() bool { return len(good.changes(t)) == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_Unregister(t *testing.T) {
	m := startModule(t)
	defer m.Stop(context.Background())

	c := &Client{ID: "a", Conn: &fakeConn{}}
	require.True(t, m.Hub().Register(c))
	m.Hub().Unregister(c)
	require.Eventually(t, func() bool { return m.Hub().ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestModule_StopClosesClients(t *testing.T) {
	m := startModule(t)
	conn := &fakeConn{}
	require.True(t, m.Hub().Register(&Client{ID: "a", Conn: conn}))

	require.NoError(t, m.Stop(context.Background()))
	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, m.Hub().ClientCount())

	// A stopped hub refuses new clients and drops changes.
	assert.False(t, m.Hub().Register(&Client{ID: "late", Conn: &fakeConn{}}))
	m.Hub().Broadcast(Change{Type: ChangeType})
}

func TestModule_EventHandlers(t *testing.T) {
	m := startModule(t)
	defer m.Stop(context.Background())

	conn := &fakeConn{}
	require.True(t, m.Hub().Register(&Client{ID: "a", Conn: conn}))

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, m.handleTodoCreated(ctx, events.TodoCreatedEvent{TodoID: "1", CreatedAt: at}, nil))
	require.NoError(t, m.handleTodoUpdated(ctx, events.TodoUpdatedEvent{TodoID: "1", UpdatedAt: at}, nil))
	require.NoError(t, m.handleTodoDeleted(ctx, events.TodoDeletedEvent{TodoID: "1", DeletedAt: at}, nil))
	require.NoError(t, m.handleTodosBulkApplied(ctx, events.TodosBulkAppliedEvent{
		Action: "complete", IDs: []string{"2", "3"}, Updated: 2, AppliedAt: at,
	}, nil))
	require.NoError(t, m.handleTodosImported(ctx, events.TodosImportedEvent{Imported: 4, ImportedAt: at}, nil))

	require.Eventually(t, func() bool { return len(conn.changes(t)) == 5 }, time.Second, 5*time.Millisecond)

	tests := []struct {
		reason string
		ids    []string
		count  int
	}{
		{ReasonCreated, []string{"1"}, 1},
		{ReasonUpdated, []string{"1"}, 1},
		{ReasonDeleted, []string{"1"}, 1},
		{"bulk:complete", []string{"2", "3"}, 2},
		{ReasonImported, []string{}, 4},
	}
	got := conn.changes(t)
	for i, tt := range tests {
		assert.Equal(t, ChangeType, got[i].Type)
		assert.Equal(t, tt.reason, got[i].Reason)
		assert.Equal(t, tt.ids, got[i].IDs)
		assert.Equal(t, tt.count, got[i].Count)
		assert.True(t, at.Equal(got[i].At))
	}
}

func TestModule_Health(t *testing.T) {
	m := startModule(t)
	defer m.Stop(context.Background())

	require.True(t, m.Hub().Register(&Client{ID: "a", Conn: &fakeConn{}}))
	require.Eventually(t, func() bool { return m.Hub().ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	health := m.Health(context.Background())
	assert.True(t, health.Healthy)
	assert.Equal(t, 1, health.Details["connected_clients"])
}
