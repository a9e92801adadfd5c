package api

import (
	"bytes"

	domain "github.com/example/todo-demo/domain/todo"
	"github.com/example/todo-demo/modules/activity"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const exportFilename = "todos-export.json"

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Health check
	app.Get("/health", m.healthHandler)

	// WebSocket change feed
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := app.Group("/api/v1")

	// Static segments go before /todos/:id.
	api.Get("/todos", m.listTodos)
	api.Post("/todos", m.createTodo)
	api.Get("/todos/export", m.exportTodos)
	api.Post("/todos/import", m.importTodos)
	api.Post("/todos/bulk", m.bulkTodos)
	api.Get("/todos/:id", m.getTodo)
	api.Patch("/todos/:id", m.updateTodo)
	api.Put("/todos/:id", m.updateTodo)
	api.Delete("/todos/:id", m.deleteTodo)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// listTodos handles GET /api/v1/todos.
func (m *APIModule) listTodos(c *fiber.Ctx) error {
	items, err := m.todos.ListTodos(c.UserContext(), domain.ListOptions{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Sort:   c.Query("sort"),
	})
	if err != nil {
		return m.writeError(c, err)
	}

	if c.QueryBool("escape") {
		for i := range items {
			items[i] = escapeTodo(items[i])
		}
	}

	return c.JSON(ListTodosResponse{
		Items: items,
		Total: len(items),
	})
}

// createTodo handles POST /api/v1/todos.
func (m *APIModule) createTodo(c *fiber.Ctx) error {
	var in domain.Input
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}

	t, err := m.todos.CreateTodo(c.UserContext(), in)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// getTodo handles GET /api/v1/todos/:id.
func (m *APIModule) getTodo(c *fiber.Ctx) error {
	t, ok, err := m.todos.GetTodo(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.writeError(c, err)
	}
	if !ok {
		return m.writeError(c, domain.ErrNotFound)
	}
	return c.JSON(t)
}

// updateTodo handles PATCH and PUT /api/v1/todos/:id.
func (m *APIModule) updateTodo(c *fiber.Ctx) error {
	var patch domain.Patch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c)
	}

	t, err := m.todos.UpdateTodo(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(t)
}

// deleteTodo handles DELETE /api/v1/todos/:id. Deleting a missing id is not
// an error.
func (m *APIModule) deleteTodo(c *fiber.Ctx) error {
	if err := m.todos.DeleteTodo(c.UserContext(), c.Params("id")); err != nil {
		return m.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// bulkTodos handles POST /api/v1/todos/bulk.
func (m *APIModule) bulkTodos(c *fiber.Ctx) error {
	var req domain.BulkRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	res, err := m.todos.BulkTodos(c.UserContext(), req)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(BulkResponse{Updated: res.Updated})
}

// exportTodos handles GET /api/v1/todos/export.
func (m *APIModule) exportTodos(c *fiber.Ctx) error {
	data, err := m.todos.ExportTodos(c.UserContext())
	if err != nil {
		return m.writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=`+exportFilename)
	return c.Send(data)
}

// importTodos handles POST /api/v1/todos/import. The body is an export
// document.
func (m *APIModule) importTodos(c *fiber.Ctx) error {
	n, err := m.todos.ImportTodos(c.UserContext(), bytes.Clone(c.Body()))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(ImportResponse{Imported: n})
}

// handleWebSocket handles WebSocket connections at /ws. Clients only receive;
// anything they send is discarded.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	client := &activity.Client{
		ID:   uuid.New().String(),
		Conn: c,
	}

	if !m.hub.Register(client) {
		_ = c.Close()
		return
	}
	defer func() {
		m.hub.Unregister(client)
		m.logger.Debug("WebSocket client disconnected", "client", client.ID)
	}()

	m.logger.Debug("WebSocket client connected", "client", client.ID)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.WithError(err).Warn("WebSocket error", "client", client.ID)
			}
			return
		}
	}
}

// writeError maps err to a status code and the {"error","message"} body.
func (m *APIModule) writeError(c *fiber.Ctx, err error) error {
	code := domain.CodeOf(err)
	switch {
	case code == domain.CodeNotFound:
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   string(code),
			Message: err.Error(),
		})
	case code != "":
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   string(code),
			Message: err.Error(),
		})
	default:
		m.logger.WithError(err).Error("Request failed", "method", c.Method(), "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "INTERNAL",
			Message: "Internal Server Error",
		})
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "BAD_REQUEST",
		Message: "Invalid request body",
	})
}

// escapeTodo returns t with its user text HTML-escaped for display.
func escapeTodo(t domain.Todo) domain.Todo {
	out := t.Clone()
	out.Title = domain.SanitizeText(out.Title)
	if out.Description != nil {
		d := domain.SanitizeText(*out.Description)
		out.Description = &d
	}
	for i, tag := range out.Tags {
		out.Tags[i] = domain.SanitizeText(tag)
	}
	return out
}
