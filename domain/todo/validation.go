package todo

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxTags              = 10
	MaxTagLength         = 30
	MinDueDate           = "1970-01-01"
)

var dueDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeTitle trims s and collapses internal whitespace runs to one space.
func NormalizeTitle(s string) (string, error) {
	v := strings.Join(strings.Fields(s), " ")
	if v == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(v) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return v, nil
}

// NormalizeDescription trims s. An empty result means no description.
func NormalizeDescription(s string) (*string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > MaxDescriptionLength {
		return nil, ErrDescTooLong
	}
	return &v, nil
}

// NormalizeTags lowercases and trims each tag, drops empties and duplicates
// (first occurrence wins) and keeps at most MaxTags. Length is checked on the
// kept tags only.
func NormalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		v := strings.ToLower(strings.TrimSpace(t))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		tags = append(tags, v)
	}
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	for _, t := range tags {
		if n := utf8.RuneCountInString(t); n < 1 || n > MaxTagLength {
			return nil, ErrTagLength
		}
	}
	return tags, nil
}

// NormalizePriority never fails: anything outside the enum becomes medium.
func NormalizePriority(p string) Priority {
	if p == "" {
		p = string(PriorityMedium)
	}
	switch v := Priority(strings.ToLower(p)); v {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return v
	}
	return PriorityMedium
}

// NormalizeStatus never fails: anything outside the enum becomes todo.
// Matching is case-sensitive.
func NormalizeStatus(s string) Status {
	switch v := Status(s); v {
	case StatusTodo, StatusInProgress, StatusDone:
		return v
	}
	return StatusTodo
}

// NormalizeDueDate checks the YYYY-MM-DD shape and the lower bound.
// Both checks are lexical: "2024-13-40" is accepted.
func NormalizeDueDate(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	v := strings.TrimSpace(s)
	if !dueDatePattern.MatchString(v) {
		return nil, ErrDateFormat
	}
	if v < MinDueDate {
		return nil, ErrDateRange
	}
	return &v, nil
}

// ComputeCompletedAt applies the completion transition rule. It returns
// (now, true) when entering done, (nil, true) when leaving done, and
// (nil, false) when completedAt must be left as it is.
func ComputeCompletedAt(prev, next Status, now time.Time) (*time.Time, bool) {
	switch {
	case prev != StatusDone && next == StatusDone:
		return &now, true
	case prev == StatusDone && next != StatusDone:
		return nil, true
	}
	return nil, false
}

// IsOverdue reports whether t has a due date before today's UTC date and is
// not done.
func IsOverdue(t Todo, now time.Time) bool {
	if t.DueDate == nil || *t.DueDate == "" || t.Status == StatusDone {
		return false
	}
	return *t.DueDate < now.UTC().Format(time.DateOnly)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// SanitizeText escapes the five HTML metacharacters for display.
// Stored text is never sanitized.
func SanitizeText(s string) string {
	return htmlEscaper.Replace(s)
}
