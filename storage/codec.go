package storage

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/example/todo-demo/domain/todo"
)

// encodeExport renders an export document with two-space indentation.
func encodeExport(items []todo.Todo, exportedAt time.Time) ([]byte, error) {
	if items == nil {
		items = []todo.Todo{}
	}
	return json.MarshalIndent(todo.ExportFile{
		Version:    todo.ExportVersion,
		ExportedAt: exportedAt,
		Todos:      items,
	}, "", "  ")
}

// decodeImport parses an export document. Records without an id get one from
// newID. A document that is not an object with a todos array, or a record that
// is not an object, yields todo.ErrBadJSON. Record fields are not validated: a
// field whose value does not fit its type is left at the zero value.
func decodeImport(data []byte, newID func() string) ([]todo.Todo, error) {
	var doc struct {
		Todos []json.RawMessage `json:"todos"`
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, todo.ErrBadJSON
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, todo.ErrBadJSON
	}
	if doc.Todos == nil {
		return nil, todo.ErrBadJSON
	}

	items := make([]todo.Todo, 0, len(doc.Todos))
	for _, raw := range doc.Todos {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, todo.ErrBadJSON
		}
		t, err := decodeRecord(raw)
		if err != nil {
			return nil, todo.ErrBadJSON
		}
		if t.ID == "" {
			t.ID = newID()
		}
		items = append(items, t)
	}
	return items, nil
}

// decodeRecord decodes one imported record field by field, skipping fields
// that fail to decode.
func decodeRecord(raw json.RawMessage) (todo.Todo, error) {
	var t todo.Todo
	if err := json.Unmarshal(raw, &t); err == nil {
		return t, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return todo.Todo{}, err
	}
	t = todo.Todo{}
	for key, value := range fields {
		field, err := json.Marshal(map[string]json.RawMessage{key: value})
		if err != nil {
			continue
		}
		next := t
		if err := json.Unmarshal(field, &next); err != nil {
			continue
		}
		t = next
	}
	return t, nil
}
