// Package errs defines the tagged error taxonomy shared by every
// component of the accessor. Errors carry a Kind (spec.md §7) and,
// where meaningful, the path that was being operated on. Wrapping
// follows the teacher's use of github.com/pkg/errors so that the
// original cause survives through Accessor boundaries.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	InvalidArgument       Kind = "InvalidArgument"
	NotFound              Kind = "NotFound"
	InvalidVolume         Kind = "InvalidVolume"
	DeviceIo              Kind = "DeviceIo"
	UnsupportedReparseTag Kind = "UnsupportedReparseTag"
	LinkRecursion         Kind = "LinkRecursion"
	AdsOpen               Kind = "AdsOpen"
	AttributeRead         Kind = "AttributeRead"
	DestinationWrite      Kind = "DestinationWrite"
	AlreadyExists         Kind = "AlreadyExists"
	Disposed              Kind = "Disposed"
	NotSupported          Kind = "NotSupported"
)

// Error is the concrete tagged error type. It implements error and
// supports errors.Is/errors.As via Unwrap, and errors.Cause via the
// embedded cause chain (pkg/errors wraps it further up the stack).
type Error struct {
	Kind  Kind
	Path  string
	Err   error
	Depth int // meaningful only for LinkRecursion
}

func (e *Error) Error() string {
	if e.Kind == LinkRecursion {
		return fmt.Sprintf("%s: %s: depth %d", e.Kind, e.Path, e.Depth)
	}
	if e.Path != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, errs.New(SomeKind, "", nil)) style checks
// by comparing Kind only; the target's path and cause are ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Err: cause}
}

// NewLinkRecursion builds the LinkRecursion error of spec.md §7,
// carrying the depth at which the cycle or depth cap was hit.
func NewLinkRecursion(path string, depth int) *Error {
	return &Error{Kind: LinkRecursion, Path: path, Depth: depth}
}

// Wrap attaches additional context while preserving the Kind and
// cause chain, mirroring errors.Wrap's message-prefixing behaviour.
func Wrap(err error, kind Kind, path, msg string) *Error {
	return &Error{Kind: kind, Path: path, Err: errors.Wrap(err, msg)}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, and the ok return of false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
