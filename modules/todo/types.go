package todo

import (
	"context"

	domain "github.com/example/todo-demo/domain/todo"
)

// ErrorBody carries a domain error across the service boundary.
type ErrorBody struct {
	Code    domain.Code `json:"code"`
	Message string      `json:"message"`
}

// ListTodosRequest is the request for listing todos.
type ListTodosRequest struct {
	Status string `json:"status,omitempty"`
	Query  string `json:"q,omitempty"`
	Sort   string `json:"sort,omitempty"`
}

// ListTodosResponse is the response for listing todos.
type ListTodosResponse struct {
	Items []domain.Todo `json:"items"`
	Total int           `json:"total"`
}

// GetTodoRequest is the request for getting a todo.
type GetTodoRequest struct {
	ID string `json:"id"`
}

// GetTodoResponse is the response for getting a todo. Todo is nil when the id
// does not exist.
type GetTodoResponse struct {
	Todo *domain.Todo `json:"todo"`
}

// CreateTodoRequest is the request for creating a todo.
type CreateTodoRequest struct {
	Input domain.Input `json:"input"`
}

// UpdateTodoRequest is the request for patching a todo.
type UpdateTodoRequest struct {
	ID    string       `json:"id"`
	Patch domain.Patch `json:"patch"`
}

// TodoResponse is the response of create and update. Exactly one of Todo and
// Error is set.
type TodoResponse struct {
	Todo  *domain.Todo `json:"todo,omitempty"`
	Error *ErrorBody   `json:"error,omitempty"`
}

// DeleteTodoRequest is the request for deleting a todo.
type DeleteTodoRequest struct {
	ID string `json:"id"`
}

// DeleteTodoResponse reports whether a record was actually removed.
type DeleteTodoResponse struct {
	Deleted bool `json:"deleted"`
}

// BulkTodosRequest is the request for a bulk action.
type BulkTodosRequest struct {
	domain.BulkRequest
}

// BulkTodosResponse is the response for a bulk action.
type BulkTodosResponse struct {
	domain.BulkResult
}

// ExportTodosRequest is the request for exporting todos.
type ExportTodosRequest struct{}

// ExportTodosResponse holds the export document bytes verbatim.
type ExportTodosResponse struct {
	Data []byte `json:"data"`
}

// ImportTodosRequest holds an export document to import.
type ImportTodosRequest struct {
	Data []byte `json:"data"`
}

// ImportTodosResponse is the response for an import.
type ImportTodosResponse struct {
	Imported int        `json:"imported"`
	Error    *ErrorBody `json:"error,omitempty"`
}

// TodoPort defines the interface for todo operations (hexagonal port).
// Driving adapters such as the HTTP API use it to reach the core module.
type TodoPort interface {
	ListTodos(ctx context.Context, opts domain.ListOptions) ([]domain.Todo, error)
	GetTodo(ctx context.Context, id string) (domain.Todo, bool, error)
	CreateTodo(ctx context.Context, input domain.Input) (domain.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch domain.Patch) (domain.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	BulkTodos(ctx context.Context, req domain.BulkRequest) (domain.BulkResult, error)
	ExportTodos(ctx context.Context) ([]byte, error)
	ImportTodos(ctx context.Context, data []byte) (int, error)
}

func errorBody(err error) *ErrorBody {
	return &ErrorBody{Code: domain.CodeOf(err), Message: err.Error()}
}

func (b *ErrorBody) toError() error {
	return &domain.Error{Code: b.Code, Message: b.Message}
}
