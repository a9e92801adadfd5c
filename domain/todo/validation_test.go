package todo

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "trims and collapses", input: "  Buy \t milk\n now ", want: "Buy milk now"},
		{name: "blank", input: "   ", wantErr: ErrTitleRequired},
		{name: "empty", input: "", wantErr: ErrTitleRequired},
		{name: "at limit", input: strings.Repeat("a", 200), want: strings.Repeat("a", 200)},
		{name: "over limit", input: strings.Repeat("a", 201), wantErr: ErrTitleTooLong},
		{name: "counts code points", input: strings.Repeat("é", 200), want: strings.Repeat("é", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTitle(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizeTitle() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTitle() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeDescription(t *testing.T) {
	got, err := NormalizeDescription("  \n ")
	if err != nil || got != nil {
		t.Errorf("blank description = (%v, %v), want (nil, nil)", got, err)
	}

	got, err = NormalizeDescription("  two lines\nkept  ")
	if err != nil {
		t.Fatalf("NormalizeDescription() error = %v", err)
	}
	if got == nil || *got != "two lines\nkept" {
		t.Errorf("NormalizeDescription() = %v, want %q", got, "two lines\nkept")
	}

	if _, err := NormalizeDescription(strings.Repeat("x", 2001)); !errors.Is(err, ErrDescTooLong) {
		t.Errorf("long description error = %v, want %v", err, ErrDescTooLong)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []string
		wantErr error
	}{
		{
			name:  "lowercases dedupes truncates",
			input: []string{"A", " a ", "b", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
			want:  []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		},
		{name: "drops empties", input: []string{"", "  ", "Work"}, want: []string{"work"}},
		{name: "nil input", input: nil, want: []string{}},
		{name: "too long", input: []string{strings.Repeat("t", 31)}, wantErr: ErrTagLength},
		{
			name:  "long tag past the cap is ignored",
			input: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", strings.Repeat("t", 31)},
			want:  []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		},
		{name: "comma string", input: ParseTags("Home, work ,,home"), want: []string{"home", "work"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTags(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizeTags() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTags() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeTags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizePriorityAndStatus(t *testing.T) {
	priorities := map[string]Priority{
		"":       PriorityMedium,
		"HIGH":   PriorityHigh,
		"low":    PriorityLow,
		"urgent": PriorityMedium,
	}
	for in, want := range priorities {
		if got := NormalizePriority(in); got != want {
			t.Errorf("NormalizePriority(%q) = %q, want %q", in, got, want)
		}
	}

	statuses := map[string]Status{
		"":            StatusTodo,
		"done":        StatusDone,
		"in_progress": StatusInProgress,
		"DONE":        StatusTodo,
		"archived":    StatusTodo,
	}
	for in, want := range statuses {
		if got := NormalizeStatus(in); got != want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeDueDate(t *testing.T) {
	tests := []struct {
		input   string
		want    *string
		wantErr error
	}{
		{input: "", want: nil},
		{input: "2024-01-01", want: ptr("2024-01-01")},
		{input: " 2024-01-01 ", want: ptr("2024-01-01")},
		{input: "1970-01-01", want: ptr("1970-01-01")},
		{input: "2024-13-40", want: ptr("2024-13-40")},
		{input: "2024-1-1", wantErr: ErrDateFormat},
		{input: "   ", wantErr: ErrDateFormat},
		{input: "01/02/2024", wantErr: ErrDateFormat},
		{input: "1969-12-31", wantErr: ErrDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeDueDate(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizeDueDate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeDueDate() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeDueDate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeCompletedAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	at, changed := ComputeCompletedAt(StatusTodo, StatusDone, now)
	if !changed || at == nil || !at.Equal(now) {
		t.Errorf("todo->done = (%v, %v), want (%v, true)", at, changed, now)
	}

	at, changed = ComputeCompletedAt(StatusDone, StatusTodo, now)
	if !changed || at != nil {
		t.Errorf("done->todo = (%v, %v), want (nil, true)", at, changed)
	}

	_, changed = ComputeCompletedAt(StatusTodo, StatusInProgress, now)
	if changed {
		t.Error("todo->in_progress should leave completedAt untouched")
	}

	_, changed = ComputeCompletedAt(StatusDone, StatusDone, now)
	if changed {
		t.Error("done->done should leave completedAt untouched")
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		todo Todo
		want bool
	}{
		{name: "past due", todo: Todo{Status: StatusTodo, DueDate: ptr("2025-03-09")}, want: true},
		{name: "due today", todo: Todo{Status: StatusTodo, DueDate: ptr("2025-03-10")}},
		{name: "done", todo: Todo{Status: StatusDone, DueDate: ptr("2020-01-01")}},
		{name: "no due date", todo: Todo{Status: StatusInProgress}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(tt.todo, now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	got := SanitizeText(`<a href="x">Tom & Jerry's</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&#39;s&lt;/a&gt;"
	if got != want {
		t.Errorf("SanitizeText() = %q, want %q", got, want)
	}
}

func TestErrorCodes(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrDateRange)
	if CodeOf(wrapped) != CodeDateRange {
		t.Errorf("CodeOf() = %q, want %q", CodeOf(wrapped), CodeDateRange)
	}
	if !IsValidation(wrapped) {
		t.Error("IsValidation() = false for a date range error")
	}
	if IsValidation(ErrNotFound) {
		t.Error("IsValidation() = true for not found")
	}

	rebuilt := &Error{Code: CodeNotFound, Message: "gone"}
	if !errors.Is(rebuilt, ErrNotFound) {
		t.Error("errors.Is should match by code")
	}
}

func ptr(s string) *string { return &s }
