package bazbom

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the bazbom error domain type.
//
// Errors coming from bazbom components should be inspectable as ([errors.As])
// an *Error at some point in the error chain. Components should mint an
// Error at the system boundary (file I/O, an HTTP round trip) and
// intermediate layers should wrap with [fmt.Errorf] and a "%w" verb rather
// than constructing another Error, except to add ErrorKind information that
// wasn't available at the original site.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	b.WriteString(string(e.Kind))
	b.WriteString("]")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Inner != nil {
		b.WriteString(": ")
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is].
//
// It compares the error kind. Callers should compare against a declared
// [ErrorKind] rather than a specific *Error value.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	if !ok {
		return false
	}
	return e.Kind == k
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error { return e.Inner }

// ErrorKind classifies an Error by spec.md §7's error taxonomy.
//
// If a component is unsure which kind applies, ErrInternal is the safe
// default.
type ErrorKind string

// Defined error kinds. NotFound and Cancelled, plus Internal for a failed
// workspace walk, are the only kinds that propagate as top-level scan
// failures; the rest are recorded on the owning EcosystemScanResult or in a
// resolver BatchStatus and the scan returns normally.
const (
	// ErrNotFound means the workspace root does not exist. Fatal.
	ErrNotFound ErrorKind = "not-found"
	// ErrMalformedManifest means one ecosystem's lockfile/manifest could not
	// be parsed. Non-fatal; fails only that ecosystem.
	ErrMalformedManifest ErrorKind = "malformed-manifest"
	// ErrScannerTimeout means a per-ecosystem wall-clock cap was hit.
	// Non-fatal.
	ErrScannerTimeout ErrorKind = "scanner-timeout"
	// ErrResolverBatchFailed means one resolver batch could not complete
	// after retries. Non-fatal; the batch's packages carry no
	// vulnerabilities.
	ErrResolverBatchFailed ErrorKind = "resolver-batch-failed"
	// ErrResolverUnavailable means the whole advisory service is
	// unreachable. Non-fatal; all vulnerability lists are empty.
	ErrResolverUnavailable ErrorKind = "resolver-unavailable"
	// ErrGraphPartial means the call-graph builder hit its soft time budget
	// before finishing. Non-fatal; vulnerabilities in the affected
	// ecosystem become Unknown.
	ErrGraphPartial ErrorKind = "graph-partial"
	// ErrCancelled means the top-level scan was cancelled. Surfaced at the
	// top level; no results are returned.
	ErrCancelled ErrorKind = "cancelled"
	// ErrInvalid is a generic invalid-input/invalid-configuration kind.
	ErrInvalid ErrorKind = "invalid"
	// ErrInternal is a non-specific internal error.
	ErrInternal ErrorKind = "internal"
)

// Error implements error so an ErrorKind can be compared with [errors.Is]
// directly, in addition to being used as the comparison target for
// (*Error).Is.
func (k ErrorKind) Error() string { return string(k) }

// Newf constructs an *Error with a formatted message, mirroring the
// fmt.Errorf calling convention.
func Newf(op string, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error at a system boundary, attaching kind and op
// information to an underlying error.
func Wrap(op string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Inner: err}
}

// KindOf extracts the ErrorKind from err's chain, if any *Error is present.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
