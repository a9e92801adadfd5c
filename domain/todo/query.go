package todo

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// DefaultSort orders newest first.
const DefaultSort = "-createdAt"

// StatusAll disables the status filter.
const StatusAll = "all"

// ListOptions is the view state a surface keeps for a list: which status tab
// is selected, the search text and the sort key. The repository never sees it.
type ListOptions struct {
	Status string `json:"status,omitempty"`
	Query  string `json:"q,omitempty"`
	// Sort is a field name, optionally prefixed with "-" for descending.
	Sort string `json:"sort,omitempty"`
}

var priorityRank = map[Priority]int{
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

// Query filters and sorts items according to opts. The input slice is not
// modified. Unknown sort keys keep the input order.
func Query(items []Todo, opts ListOptions) []Todo {
	out := make([]Todo, 0, len(items))
	q := strings.ToLower(opts.Query)
	for _, t := range items {
		if opts.Status != "" && opts.Status != StatusAll && string(t.Status) != opts.Status {
			continue
		}
		if q != "" {
			text := t.Title + " "
			if t.Description != nil {
				text += *t.Description
			}
			if !strings.Contains(strings.ToLower(text), q) {
				continue
			}
		}
		out = append(out, t)
	}

	sortKey := opts.Sort
	if sortKey == "" {
		sortKey = DefaultSort
	}
	dir := 1
	if strings.HasPrefix(sortKey, "-") {
		dir = -1
		sortKey = strings.TrimPrefix(sortKey, "-")
	}
	compare := comparator(sortKey)
	if compare == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b Todo) int {
		return compare(a, b) * dir
	})
	return out
}

func comparator(key string) func(a, b Todo) int {
	switch key {
	case "title":
		return func(a, b Todo) int { return cmp.Compare(a.Title, b.Title) }
	case "status":
		return func(a, b Todo) int { return cmp.Compare(a.Status, b.Status) }
	case "priority":
		return func(a, b Todo) int {
			return cmp.Compare(priorityRank[a.Priority], priorityRank[b.Priority])
		}
	case "dueDate":
		return func(a, b Todo) int { return cmp.Compare(deref(a.DueDate), deref(b.DueDate)) }
	case "createdAt":
		return func(a, b Todo) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updatedAt":
		return func(a, b Todo) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "completedAt":
		return func(a, b Todo) int { return compareTime(a.CompletedAt, b.CompletedAt) }
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// compareTime sorts missing timestamps first.
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
