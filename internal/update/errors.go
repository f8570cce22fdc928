package update

import (
	"errors"
	"fmt"
)

// Kind classifies update failures.
type Kind int

const (
	KindUnknown      Kind = iota
	KindInvalidInput      // bad path or URL, nothing touched
	KindFetch             // network, transport or HTTP status failure
	KindValidation        // version probe failed
	KindBackup            // backup could not be created
	KindReplace           // installed file could not be overwritten
	KindRestore           // rollback failed; installed file may be broken
	KindCanceled          // update declined at confirmation
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindFetch:
		return "fetch"
	case KindValidation:
		return "validation"
	case KindBackup:
		return "backup"
	case KindReplace:
		return "replace"
	case KindRestore:
		return "restore"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the update components.
type Error struct {
	Kind Kind
	Op   string // step that failed, e.g. "download", "probe candidate"
	Path string // file or URL the step worked on, if any
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsUnrecoverable reports whether err means the installed file could not be
// restored after a failed update.
func IsUnrecoverable(err error) bool {
	return KindOf(err) == KindRestore
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func invalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Op: "invalid input", Err: fmt.Errorf(format, args...)}
}
