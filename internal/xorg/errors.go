// Package xorg implements the capture-and-publish frame production loop:
// damage tracking, shared-memory/copy capture, geometry scaling, cursor
// shape tracking and input injection against an X11 root window.
package xorg

import "errors"

// Kind classifies the errors the engine can produce, per the error
// handling design: some are locally recoverable, some sticky, some fatal.
type Kind int

const (
	// KindExtensionAbsent means an optional X extension wasn't present;
	// the owning component degrades and continues.
	KindExtensionAbsent Kind = iota
	// KindCapture means a single capture attempt failed; the frame is
	// skipped and the loop continues.
	KindCapture
	// KindSHM means a shared-memory operation failed; the SHM fast path
	// is permanently disabled for the session.
	KindSHM
	// KindFormatUnsupported means the captured image's pixel format
	// can't be used; the session must stop.
	KindFormatUnsupported
	// KindFatal covers init-time failures: display alloc, thread spawn,
	// XOpenDisplay.
	KindFatal
	// KindInput means an input-injection call failed; it is dropped
	// silently and never tears down the session.
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindExtensionAbsent:
		return "extension absent"
	case KindCapture:
		return "capture error"
	case KindSHM:
		return "shm error"
	case KindFormatUnsupported:
		return "format unsupported"
	case KindFatal:
		return "fatal"
	case KindInput:
		return "input error"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind so callers can branch with
// errors.Is/As instead of string-matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err (or something it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Kind == k
	}
	return false
}

// ErrFormatUnsupported is the fixed message for a fatal, unsupported
// XImage pixel format, matching the original "Unsupported XImage format."
var ErrFormatUnsupported = errors.New("Unsupported XImage format.")
