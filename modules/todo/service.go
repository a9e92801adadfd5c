package todo

import (
	"context"
	"time"

	domain "github.com/example/todo-demo/domain/todo"
	"github.com/example/todo-demo/events"
	"github.com/go-monolith/mono"
)

// Domain errors (validation, not found, bad import file) travel inside the
// response so the caller can rebuild them; anything else fails the call.

// listTodos handles the list-todos service request.
func (m *TodoModule) listTodos(ctx context.Context, req ListTodosRequest, _ *mono.Msg) (ListTodosResponse, error) {
	items, err := m.repo.List(ctx)
	if err != nil {
		return ListTodosResponse{}, err
	}

	items = domain.Query(items, domain.ListOptions{
		Status: req.Status,
		Query:  req.Query,
		Sort:   req.Sort,
	})
	return ListTodosResponse{Items: items, Total: len(items)}, nil
}

// getTodo handles the get-todo service request.
func (m *TodoModule) getTodo(ctx context.Context, req GetTodoRequest, _ *mono.Msg) (GetTodoResponse, error) {
	t, ok, err := m.repo.Get(ctx, req.ID)
	if err != nil {
		return GetTodoResponse{}, err
	}
	if !ok {
		return GetTodoResponse{}, nil
	}
	return GetTodoResponse{Todo: &t}, nil
}

// createTodo handles the create-todo service request.
func (m *TodoModule) createTodo(ctx context.Context, req CreateTodoRequest, _ *mono.Msg) (TodoResponse, error) {
	t, err := m.repo.Create(ctx, req.Input)
	if err != nil {
		if domain.CodeOf(err) != "" {
			return TodoResponse{Error: errorBody(err)}, nil
		}
		return TodoResponse{}, err
	}

	m.logger.Info("Todo created", "id", t.ID)
	m.bus.Emit(events.TopicTodoCreated, events.TodoCreatedEvent{
		TodoID:    t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		CreatedAt: t.CreatedAt,
	})
	return TodoResponse{Todo: &t}, nil
}

// updateTodo handles the update-todo service request.
func (m *TodoModule) updateTodo(ctx context.Context, req UpdateTodoRequest, _ *mono.Msg) (TodoResponse, error) {
	t, err := m.repo.Update(ctx, req.ID, req.Patch)
	if err != nil {
		if domain.CodeOf(err) != "" {
			return TodoResponse{Error: errorBody(err)}, nil
		}
		return TodoResponse{}, err
	}

	m.logger.Debug("Todo updated", "id", t.ID, "status", t.Status)
	m.bus.Emit(events.TopicTodoUpdated, events.TodoUpdatedEvent{
		TodoID:      t.ID,
		Status:      string(t.Status),
		Fields:      patchFields(req.Patch),
		CompletedAt: t.CompletedAt,
		UpdatedAt:   t.UpdatedAt,
	})
	return TodoResponse{Todo: &t}, nil
}

// deleteTodo handles the delete-todo service request. Deleting a missing id
// succeeds with Deleted false.
func (m *TodoModule) deleteTodo(ctx context.Context, req DeleteTodoRequest, _ *mono.Msg) (DeleteTodoResponse, error) {
	removed, err := m.repo.Delete(ctx, req.ID)
	if err != nil {
		return DeleteTodoResponse{}, err
	}

	if removed {
		m.logger.Info("Todo deleted", "id", req.ID)
		m.bus.Emit(events.TopicTodoDeleted, events.TodoDeletedEvent{
			TodoID:    req.ID,
			DeletedAt: time.Now().UTC(),
		})
	}
	return DeleteTodoResponse{Deleted: removed}, nil
}

// bulkTodos handles the bulk-todos service request.
func (m *TodoModule) bulkTodos(ctx context.Context, req BulkTodosRequest, _ *mono.Msg) (BulkTodosResponse, error) {
	res, err := m.repo.BulkAction(ctx, req.BulkRequest)
	if err != nil {
		return BulkTodosResponse{}, err
	}

	if res.Updated > 0 {
		m.logger.Info("Bulk action applied", "action", req.Action, "updated", res.Updated)
		m.bus.Emit(events.TopicTodosBulkApplied, events.TodosBulkAppliedEvent{
			Action:    string(req.Action),
			IDs:       req.IDs,
			Updated:   res.Updated,
			AppliedAt: time.Now().UTC(),
		})
	}
	return BulkTodosResponse{BulkResult: res}, nil
}

// exportTodos handles the export-todos service request.
func (m *TodoModule) exportTodos(ctx context.Context, _ ExportTodosRequest, _ *mono.Msg) (ExportTodosResponse, error) {
	data, err := m.repo.ExportJSON(ctx)
	if err != nil {
		return ExportTodosResponse{}, err
	}
	return ExportTodosResponse{Data: data}, nil
}

// importTodos handles the import-todos service request.
func (m *TodoModule) importTodos(ctx context.Context, req ImportTodosRequest, _ *mono.Msg) (ImportTodosResponse, error) {
	n, err := m.repo.ImportJSON(ctx, req.Data)
	if err != nil {
		if domain.CodeOf(err) != "" {
			return ImportTodosResponse{Error: errorBody(err)}, nil
		}
		return ImportTodosResponse{}, err
	}

	m.logger.Info("Todos imported", "count", n)
	m.bus.Emit(events.TopicTodosImported, events.TodosImportedEvent{
		Imported:   n,
		ImportedAt: time.Now().UTC(),
	})
	return ImportTodosResponse{Imported: n}, nil
}

// patchFields names the fields present in p.
func patchFields(p domain.Patch) []string {
	fields := make([]string, 0, 6)
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.Priority != nil {
		fields = append(fields, "priority")
	}
	if p.DueDate != nil {
		fields = append(fields, "dueDate")
	}
	if p.Tags != nil {
		fields = append(fields, "tags")
	}
	return fields
}
