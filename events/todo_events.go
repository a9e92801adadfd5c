package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// Topics used on the todo module's in-process bus. Each one is forwarded to
// the mono event of the same name.
const (
	TopicTodoCreated      = "todo.created"
	TopicTodoUpdated      = "todo.updated"
	TopicTodoDeleted      = "todo.deleted"
	TopicTodosBulkApplied = "todo.bulk-applied"
	TopicTodosImported    = "todo.imported"
)

// TodoCreatedEvent is emitted when a new todo is created.
type TodoCreatedEvent struct {
	TodoID    string    `json:"todo_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoCreatedV1 is the typed event definition for todo creation.
// Subject: events.todo.v1.todo-created
var TodoCreatedV1 = helper.EventDefinition[TodoCreatedEvent](
	"todo", "TodoCreated", "v1",
)

// TodoUpdatedEvent is emitted after a successful partial update.
type TodoUpdatedEvent struct {
	TodoID string `json:"todo_id"`
	Status string `json:"status"`
	// Fields lists the patch fields that were supplied.
	Fields      []string   `json:"fields"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TodoUpdatedV1 is the typed event definition for todo updates.
// Subject: events.todo.v1.todo-updated
var TodoUpdatedV1 = helper.EventDefinition[TodoUpdatedEvent](
	"todo", "TodoUpdated", "v1",
)

// TodoDeletedEvent is emitted when an existing todo is deleted.
type TodoDeletedEvent struct {
	TodoID    string    `json:"todo_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TodoDeletedV1 is the typed event definition for todo deletion.
// Subject: events.todo.v1.todo-deleted
var TodoDeletedV1 = helper.EventDefinition[TodoDeletedEvent](
	"todo", "TodoDeleted", "v1",
)

// TodosBulkAppliedEvent is emitted when a bulk action changed at least one
// todo.
type TodosBulkAppliedEvent struct {
	Action    string    `json:"action"`
	IDs       []string  `json:"ids"`
	Updated   int       `json:"updated"`
	AppliedAt time.Time `json:"applied_at"`
}

// TodosBulkAppliedV1 is the typed event definition for bulk actions.
// Subject: events.todo.v1.todos-bulk-applied
var TodosBulkAppliedV1 = helper.EventDefinition[TodosBulkAppliedEvent](
	"todo", "TodosBulkApplied", "v1",
)

// TodosImportedEvent is emitted after an import file was stored.
type TodosImportedEvent struct {
	Imported   int       `json:"imported"`
	ImportedAt time.Time `json:"imported_at"`
}

// TodosImportedV1 is the typed event definition for imports.
// Subject: events.todo.v1.todos-imported
var TodosImportedV1 = helper.EventDefinition[TodosImportedEvent](
	"todo", "TodosImported", "v1",
)
