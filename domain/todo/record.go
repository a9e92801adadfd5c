package todo

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random (version 4) UUID string. There is no collision check
// against existing records.
func NewID() string {
	return uuid.NewString()
}

// Timestamp normalizes t to the stored precision: UTC, milliseconds.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// New validates input and builds a fresh record with the given id.
// createdAt and updatedAt are both set to now. completedAt follows the
// transition rule from a virtual previous status of todo.
func New(input Input, id string, now time.Time) (Todo, error) {
	status := NormalizeStatus(input.Status)
	completedAt, _ := ComputeCompletedAt(StatusTodo, status, now)

	title, err := NormalizeTitle(input.Title)
	if err != nil {
		return Todo{}, err
	}
	description, err := NormalizeDescription(input.Description)
	if err != nil {
		return Todo{}, err
	}
	priority := NormalizePriority(input.Priority)
	dueDate, err := NormalizeDueDate(input.DueDate)
	if err != nil {
		return Todo{}, err
	}
	tags, err := NormalizeTags(input.Tags)
	if err != nil {
		return Todo{}, err
	}

	return Todo{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
		CompletedAt: completedAt,
	}, nil
}

// Apply returns a copy of t with the patch applied. Only fields present in the
// patch are revalidated and replaced. updatedAt is always refreshed.
func (t Todo) Apply(p Patch, now time.Time) (Todo, error) {
	next := t.Clone()

	nextStatus := t.Status
	if p.Status != nil && *p.Status != "" {
		nextStatus = NormalizeStatus(*p.Status)
	}
	completedAt, changed := ComputeCompletedAt(t.Status, nextStatus, now)

	if p.Title != nil {
		title, err := NormalizeTitle(*p.Title)
		if err != nil {
			return Todo{}, err
		}
		next.Title = title
	}
	if p.Description != nil {
		description, err := NormalizeDescription(*p.Description)
		if err != nil {
			return Todo{}, err
		}
		next.Description = description
	}
	next.Status = nextStatus
	if p.Priority != nil {
		next.Priority = NormalizePriority(*p.Priority)
	}
	if p.DueDate != nil {
		dueDate, err := NormalizeDueDate(*p.DueDate)
		if err != nil {
			return Todo{}, err
		}
		next.DueDate = dueDate
	}
	if p.Tags != nil {
		tags, err := NormalizeTags(*p.Tags)
		if err != nil {
			return Todo{}, err
		}
		next.Tags = tags
	}

	next.UpdatedAt = now
	if changed {
		next.CompletedAt = completedAt
	}
	return next, nil
}

// Complete marks t done, stamping completedAt and updatedAt. It reports false
// and returns t unchanged when t is already done.
func (t Todo) Complete(now time.Time) (Todo, bool) {
	if t.Status == StatusDone {
		return t, false
	}
	next := t.Clone()
	next.Status = StatusDone
	next.CompletedAt = &now
	next.UpdatedAt = now
	return next, true
}

// Clone returns a deep copy of t.
func (t Todo) Clone() Todo {
	c := t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	c.Tags = slices.Clone(t.Tags)
	return c
}
