package todo

import (
	"testing"
	"time"
)

func queryFixture() []Todo {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Todo{
		{ID: "1", Title: "Write report", Description: ptr("Quarterly numbers"), Status: StatusTodo, Priority: PriorityLow, DueDate: ptr("2025-02-01"), CreatedAt: base},
		{ID: "2", Title: "Buy milk", Status: StatusDone, Priority: PriorityHigh, CreatedAt: base.Add(time.Hour)},
		{ID: "3", Title: "Call bank", Description: ptr("about the REPORT"), Status: StatusInProgress, Priority: PriorityMedium, DueDate: ptr("2025-01-15"), CreatedAt: base.Add(2 * time.Hour)},
	}
}

func ids(items []Todo) string {
	out := ""
	for _, t := range items {
		out += t.ID
	}
	return out
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		opts ListOptions
		want string
	}{
		{name: "default newest first", opts: ListOptions{}, want: "321"},
		{name: "status all", opts: ListOptions{Status: StatusAll, Sort: "createdAt"}, want: "123"},
		{name: "status filter", opts: ListOptions{Status: "done"}, want: "2"},
		{name: "search title and description", opts: ListOptions{Query: "report", Sort: "createdAt"}, want: "13"},
		{name: "priority desc", opts: ListOptions{Sort: "-priority"}, want: "231"},
		{name: "title asc", opts: ListOptions{Sort: "title"}, want: "231"},
		{name: "due date nil first", opts: ListOptions{Sort: "dueDate"}, want: "231"},
		{name: "unknown key keeps order", opts: ListOptions{Sort: "color"}, want: "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Query(queryFixture(), tt.opts)); got != tt.want {
				t.Errorf("Query() order = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQuery_DoesNotModifyInput(t *testing.T) {
	items := queryFixture()
	_ = Query(items, ListOptions{Sort: "-title"})
	if ids(items) != "123" {
		t.Errorf("input reordered to %s", ids(items))
	}
}
