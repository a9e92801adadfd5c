package todo

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/todo-demo/domain/todo"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// todoAdapter wraps ServiceContainer for type-safe cross-module communication.
// This is the adapter that implements the TodoPort interface.
type todoAdapter struct {
	container mono.ServiceContainer
}

// NewTodoAdapter creates a new adapter for todo services.
// container is the ServiceContainer of the todo module received via SetDependencyServiceContainer.
func NewTodoAdapter(container mono.ServiceContainer) TodoPort {
	if container == nil {
		panic("todo adapter requires non-nil ServiceContainer")
	}
	return &todoAdapter{container: container}
}

// ListTodos lists todos filtered and sorted by opts via the list-todos service.
func (a *todoAdapter) ListTodos(ctx context.Context, opts domain.ListOptions) ([]domain.Todo, error) {
	req := ListTodosRequest{Status: opts.Status, Query: opts.Query, Sort: opts.Sort}
	var resp ListTodosResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-todos",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-todos service call failed: %w", err)
	}
	if resp.Items == nil {
		resp.Items = []domain.Todo{}
	}
	return resp.Items, nil
}

// GetTodo retrieves a todo by ID via the get-todo service.
func (a *todoAdapter) GetTodo(ctx context.Context, id string) (domain.Todo, bool, error) {
	req := GetTodoRequest{ID: id}
	var resp GetTodoResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-todo",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Todo{}, false, fmt.Errorf("get-todo service call failed: %w", err)
	}
	if resp.Todo == nil {
		return domain.Todo{}, false, nil
	}
	return *resp.Todo, true, nil
}

// CreateTodo creates a todo via the create-todo service.
func (a *todoAdapter) CreateTodo(ctx context.Context, input domain.Input) (domain.Todo, error) {
	req := CreateTodoRequest{Input: input}
	var resp TodoResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-todo",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Todo{}, fmt.Errorf("create-todo service call failed: %w", err)
	}
	return resp.result()
}

// UpdateTodo patches a todo via the update-todo service.
func (a *todoAdapter) UpdateTodo(ctx context.Context, id string, patch domain.Patch) (domain.Todo, error) {
	req := UpdateTodoRequest{ID: id, Patch: patch}
	var resp TodoResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-todo",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Todo{}, fmt.Errorf("update-todo service call failed: %w", err)
	}
	return resp.result()
}

// DeleteTodo deletes a todo via the delete-todo service.
func (a *todoAdapter) DeleteTodo(ctx context.Context, id string) error {
	req := DeleteTodoRequest{ID: id}
	var resp DeleteTodoResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-todo",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-todo service call failed: %w", err)
	}
	return nil
}

// BulkTodos applies a bulk action via the bulk-todos service.
func (a *todoAdapter) BulkTodos(ctx context.Context, bulk domain.BulkRequest) (domain.BulkResult, error) {
	req := BulkTodosRequest{BulkRequest: bulk}
	var resp BulkTodosResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"bulk-todos",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.BulkResult{}, fmt.Errorf("bulk-todos service call failed: %w", err)
	}
	return resp.BulkResult, nil
}

// ExportTodos fetches the export document via the export-todos service.
func (a *todoAdapter) ExportTodos(ctx context.Context) ([]byte, error) {
	var resp ExportTodosResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"export-todos",
		json.Marshal,
		json.Unmarshal,
		&ExportTodosRequest{},
		&resp,
	); err != nil {
		return nil, fmt.Errorf("export-todos service call failed: %w", err)
	}
	return resp.Data, nil
}

// ImportTodos imports an export document via the import-todos service.
func (a *todoAdapter) ImportTodos(ctx context.Context, data []byte) (int, error) {
	req := ImportTodosRequest{Data: data}
	var resp ImportTodosResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"import-todos",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return 0, fmt.Errorf("import-todos service call failed: %w", err)
	}
	if resp.Error != nil {
		return 0, resp.Error.toError()
	}
	return resp.Imported, nil
}

func (r TodoResponse) result() (domain.Todo, error) {
	if r.Error != nil {
		return domain.Todo{}, r.Error.toError()
	}
	if r.Todo == nil {
		return domain.Todo{}, fmt.Errorf("empty todo response")
	}
	return *r.Todo, nil
}
