package api

import domain "github.com/example/todo-demo/domain/todo"

// ListTodosResponse is the HTTP response for listing todos.
type ListTodosResponse struct {
	Items []domain.Todo `json:"items"`
	Total int           `json:"total"`
}

// BulkResponse is the HTTP response for a bulk action.
type BulkResponse struct {
	Updated int `json:"updated"`
}

// ImportResponse is the HTTP response for an import.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP response for errors. Error holds the error code.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
