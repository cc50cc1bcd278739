package models

// ErrorKind classifies a business-rule failure so transport code can map it
// to a status without inspecting messages.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidInput
	KindConflict
)

// Error is the result type returned by every core operation. It is always
// surfaced synchronously to the caller; business failures never crash the
// process.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Internal(message string) *Error {
	return &Error{Kind: KindInternal, Message: message}
}
