package workflow

import "fmt"

const (
	CodeValidation  = "validation"
	CodeExtraction  = "extraction"
	CodeUnavailable = "unavailable"
	CodeInternal    = "internal"
)

// Error is the coded failure surfaced at the API boundary. NotFound,
// ambiguous matches, and duplicates are structured results, not errors;
// this type covers the failures that remain.
type Error struct {
	Code      string
	Message   string
	Transient bool
	Status    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return 400
	case CodeExtraction:
		return 502
	case CodeUnavailable:
		return 503
	default:
		return 500
	}
}

func newError(code, message string, transient bool) *Error {
	return &Error{Code: code, Message: message, Transient: transient, Status: statusForCode(code)}
}

func NewValidationError(message string) error {
	return newError(CodeValidation, message, false)
}

func NewExtractionError(err error) error {
	return newError(CodeExtraction, "entity extraction failed: "+err.Error(), true)
}

func NewInternalError(message string) error {
	return newError(CodeInternal, message, true)
}
