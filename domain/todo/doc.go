// Package todo holds the task record, the field validation rules applied to
// every write, the completion transition rule and the list query used by the
// surfaces. Everything here is pure: no storage, no clocks.
package todo
