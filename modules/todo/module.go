package todo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/todo-demo/config"
	"github.com/example/todo-demo/eventbus"
	"github.com/example/todo-demo/events"
	"github.com/example/todo-demo/storage"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// TodoModule owns the repository and serves it as request-reply services
// (core domain).
type TodoModule struct {
	cfg      config.Storage
	opts     []storage.Option
	repo     storage.Repository
	bus      *eventbus.Bus
	eventBus mono.EventBus
	logger   types.Logger
}

var _ mono.Module = (*TodoModule)(nil)
var _ mono.ServiceProviderModule = (*TodoModule)(nil)
var _ mono.EventBusAwareModule = (*TodoModule)(nil)
var _ mono.EventEmitterModule = (*TodoModule)(nil)
var _ mono.HealthCheckableModule = (*TodoModule)(nil)

// NewModule creates a TodoModule that opens its repository from cfg on Start.
func NewModule(cfg config.Storage, logger types.Logger, opts ...storage.Option) *TodoModule {
	m := &TodoModule{
		cfg:    cfg,
		opts:   opts,
		logger: logger.WithModule("todo"),
	}
	m.bus = eventbus.New(m.logger)
	m.forwardEvents()
	return m
}

// NewModuleWithRepository creates a TodoModule around an already open
// repository.
func NewModuleWithRepository(repo storage.Repository, logger types.Logger) *TodoModule {
	m := NewModule(config.Storage{}, logger)
	m.repo = repo
	return m
}

func (m *TodoModule) Name() string {
	return "todo"
}

func (m *TodoModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// Bus returns the module's in-process bus. Every successful mutation is
// emitted on it before being forwarded to mono's event bus.
func (m *TodoModule) Bus() *eventbus.Bus {
	return m.bus
}

func (m *TodoModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TodoCreatedV1.ToBase(),
		events.TodoUpdatedV1.ToBase(),
		events.TodoDeletedV1.ToBase(),
		events.TodosBulkAppliedV1.ToBase(),
		events.TodosImportedV1.ToBase(),
	}
}

func (m *TodoModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-todos", json.Unmarshal, json.Marshal, m.listTodos,
	); err != nil {
		return fmt.Errorf("failed to register list-todos service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-todo", json.Unmarshal, json.Marshal, m.getTodo,
	); err != nil {
		return fmt.Errorf("failed to register get-todo service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-todo", json.Unmarshal, json.Marshal, m.createTodo,
	); err != nil {
		return fmt.Errorf("failed to register create-todo service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-todo", json.Unmarshal, json.Marshal, m.updateTodo,
	); err != nil {
		return fmt.Errorf("failed to register update-todo service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-todo", json.Unmarshal, json.Marshal, m.deleteTodo,
	); err != nil {
		return fmt.Errorf("failed to register delete-todo service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "bulk-todos", json.Unmarshal, json.Marshal, m.bulkTodos,
	); err != nil {
		return fmt.Errorf("failed to register bulk-todos service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "export-todos", json.Unmarshal, json.Marshal, m.exportTodos,
	); err != nil {
		return fmt.Errorf("failed to register export-todos service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "import-todos", json.Unmarshal, json.Marshal, m.importTodos,
	); err != nil {
		return fmt.Errorf("failed to register import-todos service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", "list-todos, get-todo, create-todo, update-todo, delete-todo, bulk-todos, export-todos, import-todos")
	return nil
}

// Start opens the repository unless one was supplied.
func (m *TodoModule) Start(ctx context.Context) error {
	if m.repo == nil {
		repo, err := storage.Open(ctx, m.cfg, m.logger, m.opts...)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		m.repo = repo
	}
	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, events will not be published")
	}
	m.logger.Info("Module started", "backend", m.repo.Backend())
	return nil
}

// Stop closes the repository.
func (m *TodoModule) Stop(_ context.Context) error {
	m.bus.Clear()
	if m.repo == nil {
		return nil
	}
	if err := m.repo.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	m.logger.Info("Module stopped")
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the active backend answers.
func (m *TodoModule) Health(ctx context.Context) mono.HealthStatus {
	if m.repo == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "storage not initialized",
		}
	}

	details := map[string]any{"backend": m.repo.Backend()}
	if p, ok := m.repo.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("storage ping failed: %v", err),
				Details: details,
			}
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

// forwardEvents subscribes the mono publishers to the in-process bus.
func (m *TodoModule) forwardEvents() {
	m.bus.On(events.TopicTodoCreated, forward(m, func(bus mono.EventBus, ev events.TodoCreatedEvent) error {
		return events.TodoCreatedV1.Publish(bus, ev, nil)
	}))
	m.bus.On(events.TopicTodoUpdated, forward(m, func(bus mono.EventBus, ev events.TodoUpdatedEvent) error {
		return events.TodoUpdatedV1.Publish(bus, ev, nil)
	}))
	m.bus.On(events.TopicTodoDeleted, forward(m, func(bus mono.EventBus, ev events.TodoDeletedEvent) error {
		return events.TodoDeletedV1.Publish(bus, ev, nil)
	}))
	m.bus.On(events.TopicTodosBulkApplied, forward(m, func(bus mono.EventBus, ev events.TodosBulkAppliedEvent) error {
		return events.TodosBulkAppliedV1.Publish(bus, ev, nil)
	}))
	m.bus.On(events.TopicTodosImported, forward(m, func(bus mono.EventBus, ev events.TodosImportedEvent) error {
		return events.TodosImportedV1.Publish(bus, ev, nil)
	}))
}

func forward[T any](m *TodoModule, publish func(mono.EventBus, T) error) eventbus.Handler {
	return func(payload any) error {
		if m.eventBus == nil {
			return nil
		}
		ev, ok := payload.(T)
		if !ok {
			return fmt.Errorf("unexpected payload %T", payload)
		}
		return publish(m.eventBus, ev)
	}
}
