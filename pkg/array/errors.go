package array

import "fmt"

// Kind classifies errors.
type Kind int

// Error kinds
const (
	EnumerationError Kind = iota + 1
	ConnectionError
	HandshakeTimeout
	InvalidIdentity
	DuplicateIdentity
	OutOfRangeIdentity
	ExecutionTimeout
	MalformedBatch
	GridPersistError
)

var kindNames = map[Kind]string{
	EnumerationError:   "enumeration error",
	ConnectionError:    "connection error",
	HandshakeTimeout:   "handshake timeout",
	InvalidIdentity:    "invalid identity",
	DuplicateIdentity:  "duplicate identity",
	OutOfRangeIdentity: "identity out of range",
	ExecutionTimeout:   "execution timeout",
	MalformedBatch:     "malformed batch",
	GridPersistError:   "grid persist error",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error carries the kind of failure and where it happened.
type Error struct {
	Kind Kind
	// Device is the address of the device involved, if any.
	Device string
	// ArrayIndex is the array index involved, -1 when unknown.
	ArrayIndex int
	Err        error
}

// Error implements error.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Device != "" {
		msg = e.Device + ": " + msg
	}
	if e.ArrayIndex >= 0 {
		msg = fmt.Sprintf("array %d: %s", e.ArrayIndex, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error not related to a device.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, ArrayIndex: -1, Err: err}
}

// Errorf creates an Error with formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return NewError(kind, fmt.Errorf(format, args...))
}

func deviceError(kind Kind, dev *Device, err error) *Error {
	return &Error{Kind: kind, Device: dev.Addr, ArrayIndex: dev.knownIndex(), Err: err}
}

// IsKind tells if err, or any error it wraps, is an Error of kind.
func IsKind(err error, kind Kind) bool {
	for _, e := range flatten(err) {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// flatten collects all *Error in the tree of err.
func flatten(err error) (errs []*Error) {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		errs = append(errs, e)
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, sub := range u.Unwrap() {
			errs = append(errs, flatten(sub)...)
		}
	case interface{ Unwrap() error }:
		errs = append(errs, flatten(u.Unwrap())...)
	}
	return
}
