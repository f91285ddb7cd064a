package run

// Code is a machine-readable reason an operation was refused.
type Code string

const (
	CodeRunNotActive      Code = "run-not-active"
	CodeDoorNotFound      Code = "door-not-found"
	CodeFortuneNotOffered Code = "fortune-not-offered"
)

// Error is a refused operation. Refusals never change run state.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrRunNotActive      = &Error{Code: CodeRunNotActive, Message: "no active run"}
	ErrDoorNotFound      = &Error{Code: CodeDoorNotFound, Message: "door not found on current floor"}
	ErrFortuneNotOffered = &Error{Code: CodeFortuneNotOffered, Message: "current floor has no fortune flip"}
)
