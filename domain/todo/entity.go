package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the workflow state of a todo.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Priority represents how urgent a todo is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Todo is the single persisted entity: one task record.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *string    `json:"dueDate"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// Input carries the raw fields of a todo to be created.
// Every field is normalized before it is stored.
type Input struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	Tags        TagInput `json:"tags,omitempty"`
}

// Patch is a partial update. A nil field is left untouched; a non-nil field is
// revalidated and replaced. An empty Description or DueDate clears the field.
// In JSON an explicit null counts as present and decodes to the empty value,
// so it clears description, dueDate and tags and resets priority.
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Tags        *TagInput `json:"tags,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Patch) UnmarshalJSON(data []byte) error {
	type plain Patch
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, raw := range fields {
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		switch key {
		case "title":
			v.Title = new(string)
		case "description":
			v.Description = new(string)
		case "status":
			v.Status = new(string)
		case "priority":
			v.Priority = new(string)
		case "dueDate":
			v.DueDate = new(string)
		case "tags":
			v.Tags = &TagInput{}
		}
	}
	*p = Patch(v)
	return nil
}

// IsEmpty reports whether the patch carries no fields.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && p.Tags == nil
}

// TagInput holds raw tags. In JSON it accepts either an array of strings or a
// single comma-delimited string.
type TagInput []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagInput) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = ParseTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be a list or a comma-separated string: %w", err)
	}
	*t = list
	return nil
}

// ParseTags splits a comma-delimited tag string into raw entries.
func ParseTags(s string) TagInput {
	if s == "" {
		return TagInput{}
	}
	return TagInput(strings.Split(s, ","))
}

// BulkAction names an operation applied to several todos at once.
type BulkAction string

const (
	BulkDelete   BulkAction = "delete"
	BulkComplete BulkAction = "complete"
)

// BulkRequest selects the todos a bulk action applies to.
type BulkRequest struct {
	Action BulkAction `json:"action"`
	IDs    []string   `json:"ids"`
}

// BulkResult reports how many todos a bulk action actually changed.
type BulkResult struct {
	Updated int `json:"updated"`
}

// ExportVersion is the only export format version.
const ExportVersion = 1

// ExportFile is the document produced by export and accepted by import.
type ExportFile struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Todos      []Todo    `json:"todos"`
}
