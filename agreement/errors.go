package agreement

import (
	"errors"
	"fmt"
)

// Root errors of the bridge. Every error a ledger operation returns
// wraps exactly one of them, so callers can branch with errors.Is and
// the http layer can map them to status codes.
var (
	ErrUnauthorized = register(401, "unauthorized")
	ErrBadRequest   = register(400, "bad request")
	ErrNotFound     = register(404, "not found")
	ErrConflict     = register(409, "conflict")
	ErrInternal     = register(500, "internal server error")
)

// usedCodes guards against two roots sharing a status code.
var usedCodes = map[int]*Error{}

func register(code int, desc string) *Error {
	if _, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error code %d registered twice", code))
	}
	e := &Error{code: code, desc: desc}
	usedCodes[code] = e
	return e
}

// Error is a root error with an http-style status code.
type Error struct {
	code int
	desc string
}

func (e *Error) Error() string {
	return e.desc
}

func (e *Error) StatusCode() int {
	return e.code
}

// Newf attaches a detail message to a root error. The result still
// satisfies errors.Is against the root.
func (e *Error) Newf(format string, args ...interface{}) error {
	return &wrappedError{root: e, msg: fmt.Sprintf(format, args...)}
}

type wrappedError struct {
	root *Error
	msg  string
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.root.desc, e.msg)
}

func (e *wrappedError) Unwrap() error {
	return e.root
}

// StatusOf extracts the status code of err, or 500 when err does not
// wrap a registered root.
func StatusOf(err error) int {
	var root *Error
	if errors.As(err, &root) {
		return root.StatusCode()
	}
	return ErrInternal.StatusCode()
}
