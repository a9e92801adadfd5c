package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/example/todo-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// ChangeType is the type of every message on the change feed.
const ChangeType = "todos.changed"

// Reasons carried by a Change.
const (
	ReasonCreated  = "created"
	ReasonUpdated  = "updated"
	ReasonDeleted  = "deleted"
	ReasonBulk     = "bulk"
	ReasonImported = "imported"
)

// Change tells feed clients that the stored todos changed and should be
// reloaded.
type Change struct {
	Type   string    `json:"type"`
	Reason string    `json:"reason"`
	IDs    []string  `json:"ids"`
	Count  int       `json:"count"`
	At     time.Time `json:"at"`
}

// ActivityModule is an EventConsumerModule that turns todo events into
// change notifications for WebSocket clients.
type ActivityModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
	logger    types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.HealthCheckableModule = (*ActivityModule)(nil)

// NewModule creates a new ActivityModule.
func NewModule(logger types.Logger) *ActivityModule {
	l := logger.WithModule("activity")
	return &ActivityModule{
		hub:    NewHub(l),
		logger: l,
	}
}

// Name returns the module name.
func (m *ActivityModule) Name() string {
	return "activity"
}

// Start starts the hub.
func (m *ActivityModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	m.logger.Info("Module started")
	return nil
}

// Stop shuts the hub down and disconnects every client.
func (m *ActivityModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	m.logger.Info("Module stopped", "clients", clientCount)
	return nil
}

// Health returns the health status.
func (m *ActivityModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.TodoCreatedV1, m.handleTodoCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register TodoCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TodoUpdatedV1, m.handleTodoUpdated, m,
	); err != nil {
		return fmt.Errorf("failed to register TodoUpdated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TodoDeletedV1, m.handleTodoDeleted, m,
	); err != nil {
		return fmt.Errorf("failed to register TodoDeleted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TodosBulkAppliedV1, m.handleTodosBulkApplied, m,
	); err != nil {
		return fmt.Errorf("failed to register TodosBulkApplied consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TodosImportedV1, m.handleTodosImported, m,
	); err != nil {
		return fmt.Errorf("failed to register TodosImported consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", "TodoCreated, TodoUpdated, TodoDeleted, TodosBulkApplied, TodosImported")
	return nil
}

// Hub returns the WebSocket hub for the API module to use.
func (m *ActivityModule) Hub() *Hub {
	return m.hub
}

func (m *ActivityModule) handleTodoCreated(_ context.Context, event events.TodoCreatedEvent, _ *mono.Msg) error {
	m.publish(ReasonCreated, []string{event.TodoID}, 1, event.CreatedAt)
	return nil
}

func (m *ActivityModule) handleTodoUpdated(_ context.Context, event events.TodoUpdatedEvent, _ *mono.Msg) error {
	m.publish(ReasonUpdated, []string{event.TodoID}, 1, event.UpdatedAt)
	return nil
}

func (m *ActivityModule) handleTodoDeleted(_ context.Context, event events.TodoDeletedEvent, _ *mono.Msg) error {
	m.publish(ReasonDeleted, []string{event.TodoID}, 1, event.DeletedAt)
	return nil
}

func (m *ActivityModule) handleTodosBulkApplied(_ context.Context, event events.TodosBulkAppliedEvent, _ *mono.Msg) error {
	m.publish(ReasonBulk+":"+event.Action, event.IDs, event.Updated, event.AppliedAt)
	return nil
}

func (m *ActivityModule) handleTodosImported(_ context.Context, event events.TodosImportedEvent, _ *mono.Msg) error {
	m.publish(ReasonImported, nil, event.Imported, event.ImportedAt)
	return nil
}

func (m *ActivityModule) publish(reason string, ids []string, count int, at time.Time) {
	if ids == nil {
		ids = []string{}
	}
	m.logger.Debug("Broadcasting change", "reason", reason, "count", count)
	m.hub.Broadcast(Change{
		Type:   ChangeType,
		Reason: reason,
		IDs:    ids,
		Count:  count,
		At:     at,
	})
}
