package apierr

import "fmt"

// Error carries the HTTP status and machine code a handler should respond
// with. Guidance, when present, is the list of concrete steps the user can
// take to unlock the feature (empty-state 404s).
type Error struct {
	Status   int
	Code     string
	Guidance []string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if len(e.Guidance) > 0 {
		return e.Guidance[0]
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NewWithGuidance(status int, code string, guidance []string) *Error {
	return &Error{Status: status, Code: code, Guidance: guidance}
}
