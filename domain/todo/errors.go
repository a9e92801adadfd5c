package todo

import "errors"

// Code identifies a class of todo error. Codes are stable and safe to show to
// users next to the message.
type Code string

const (
	CodeTitleRequired Code = "TITLE_REQUIRED"
	CodeTitleTooLong  Code = "TITLE_TOO_LONG"
	CodeDescTooLong   Code = "DESC_TOO_LONG"
	CodeTagLength     Code = "TAG_LEN"
	CodeDateFormat    Code = "DATE_FMT"
	CodeDateRange     Code = "DATE_RANGE"
	CodeNotFound      Code = "NOT_FOUND"
	CodeBadJSON       Code = "BAD_JSON"
)

// Error is a todo error carrying a short code and a human message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code, so errors.Is works against the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors for todo operations.
var (
	ErrTitleRequired = &Error{Code: CodeTitleRequired, Message: "Title is required"}
	ErrTitleTooLong  = &Error{Code: CodeTitleTooLong, Message: "Title too long"}
	ErrDescTooLong   = &Error{Code: CodeDescTooLong, Message: "Description too long"}
	ErrTagLength     = &Error{Code: CodeTagLength, Message: "Tag length 1-30"}
	ErrDateFormat    = &Error{Code: CodeDateFormat, Message: "Use YYYY-MM-DD"}
	ErrDateRange     = &Error{Code: CodeDateRange, Message: "Date out of range"}

	// ErrNotFound is returned by update when the id does not exist.
	ErrNotFound = &Error{Code: CodeNotFound, Message: "Todo not found"}

	// ErrBadJSON is returned by import when the payload is not an export file.
	ErrBadJSON = &Error{Code: CodeBadJSON, Message: "Invalid export file"}
)

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case CodeTitleRequired, CodeTitleTooLong, CodeDescTooLong,
		CodeTagLength, CodeDateFormat, CodeDateRange:
		return true
	}
	return false
}
