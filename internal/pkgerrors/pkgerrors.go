// Package pkgerrors defines the typed error taxonomy surfaced to callers of
// the core build-and-install pipeline, and the exit code each kind maps to.
package pkgerrors

import (
	"errors"
	"fmt"

	pkgerr "github.com/pkg/errors"
)

// Kind identifies one error category in the build-and-install pipeline.
type Kind int

const (
	UsageError Kind = iota
	InvalidRecipe
	FetchFailed
	ChecksumMismatch
	UnsupportedArchive
	PatchFailed
	BuildFailed
	TestFailed
	InstallFailed
	PackagingFailed
	UnknownPackage
	RegistryCorrupt
	HookFailed
	UnknownPackageOnInfo // distinct exit code from UnknownPackage: remove=7, info=8
)

var exitCodes = map[Kind]int{
	UsageError:         1,
	InvalidRecipe:      2,
	FetchFailed:        2,
	ChecksumMismatch:   3,
	UnsupportedArchive: 4,
	PatchFailed:        5,
	BuildFailed:        6,
	TestFailed:         6,
	InstallFailed:      6,
	PackagingFailed:    6,
	UnknownPackage:       7,
	RegistryCorrupt:      6,
	HookFailed:           0, // non-fatal, never aborts the caller
	UnknownPackageOnInfo: 8,
}

func (k Kind) String() string {
	switch k {
	case UsageError:
		return "UsageError"
	case InvalidRecipe:
		return "InvalidRecipe"
	case FetchFailed:
		return "FetchFailed"
	case ChecksumMismatch:
		return "ChecksumMismatch"
	case UnsupportedArchive:
		return "UnsupportedArchive"
	case PatchFailed:
		return "PatchFailed"
	case BuildFailed:
		return "BuildFailed"
	case TestFailed:
		return "TestFailed"
	case InstallFailed:
		return "InstallFailed"
	case PackagingFailed:
		return "PackagingFailed"
	case UnknownPackage:
		return "UnknownPackage"
	case RegistryCorrupt:
		return "RegistryCorrupt"
	case HookFailed:
		return "HookFailed"
	case UnknownPackageOnInfo:
		return "UnknownPackage"
	default:
		return "UnknownError"
	}
}

// Error is a typed, wrappable error carrying its Kind and an optional
// reason specific to the site that raised it (e.g. the patch filename).
type Error struct {
	Kind   Kind
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Cause() error { return e.cause }
func (e *Error) Unwrap() error { return e.cause }

// New builds a bare typed error with a reason, no wrapped cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap attaches a Kind and reason to an underlying cause, preserving the
// causal chain via github.com/pkg/errors: the wrapped cause (see Cause)
// carries a stack trace that %+v prints; *Error itself formats only as
// "Kind: reason".
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, cause: pkgerr.Wrap(cause, reason)}
}

// ExitCode returns the process exit code assigned to err's Kind, or 1
// (usage error) if err is not one of ours.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe *Error
	if errors.As(err, &pe) {
		return exitCodes[pe.Kind]
	}
	return 1
}

// As reports whether err's chain holds an *Error of the given kind, so
// callers don't need the stdlib errors package for the common case of
// testing an error's Kind.
func As(err error, kind Kind) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == kind
}
