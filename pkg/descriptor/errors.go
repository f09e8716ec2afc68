package descriptor

import (
	"fmt"
	"strings"
)

// Location identifies a position inside a charter document.
type Location struct {
	File   string
	Line   int
	Column int
}

// IsValid returns true if the location carries at least a file name.
func (l Location) IsValid() bool {
	return l.File != ""
}

// String formats the location as file:line:column, omitting trailing
// zero components.
func (l Location) String() string {
	if l.Line <= 0 {
		return l.File
	}
	if l.Column <= 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ErrorType categorizes descriptor loading errors.
type ErrorType string

const (
	ErrorTypeSyntax     ErrorType = "syntax"     // Malformed block metadata (YAML)
	ErrorTypeStructural ErrorType = "structural" // Missing or invalid fields
	ErrorTypeDuplicate  ErrorType = "duplicate"  // Duplicate id within one layer
	ErrorTypeIO         ErrorType = "io"         // Document read error
)

// Error is a rich descriptor error with location and an optional
// suggestion. Parse errors are fatal for the whole run, so the message
// carries enough detail to fix the charter document directly.
type Error struct {
	Type       ErrorType
	Message    string
	Location   Location
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))
	if e.Location.IsValid() {
		sb.WriteString(fmt.Sprintf("\n  --> %s", e.Location.String()))
	}
	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n  = suggestion: %s", e.Suggestion))
	}
	return sb.String()
}

// ErrorList accumulates descriptor errors so one pass over a document
// can report every problem instead of stopping at the first.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates an empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*Error, 0)}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and appends an error from its parts.
func (el *ErrorList) AddError(errType ErrorType, message string, loc Location) {
	el.Add(&Error{Type: errType, Message: message, Location: loc})
}

// HasErrors returns true if any error was recorded.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Error implements the error interface, formatting every recorded error.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d descriptor error(s):\n", len(el.Errors)))
	for i, err := range el.Errors {
		sb.WriteString(fmt.Sprintf("\nerror %d:\n%s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ToError returns nil when the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}
