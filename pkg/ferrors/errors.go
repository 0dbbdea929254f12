// Package ferrors defines the three error kinds spec.md §7 requires
// callers to be able to distinguish: BadRequest, NotFound, and
// Unavailable. It wraps github.com/cockroachdb/errors (already pulled
// in transitively by Pebble) rather than bare fmt.Errorf, so an
// Unavailable built from an engine error keeps its stack trace.
package ferrors

import "github.com/cockroachdb/errors"

// Kind identifies which of the three error categories an error belongs
// to, for callers that want to branch on it directly.
type Kind string

const (
	KindBadRequest  Kind = "bad_request"
	KindNotFound    Kind = "not_found"
	KindUnavailable Kind = "unavailable"
)

// sentinels are marked onto every error of their kind so IsXxx works
// across wrapping.
var (
	sentinelBadRequest  = errors.New("bad request")
	sentinelNotFound    = errors.New("not found")
	sentinelUnavailable = errors.New("unavailable")
)

// BadRequestf builds a BadRequest error: the message type is unhandled,
// the message fails validation, or the key arguments are malformed.
func BadRequestf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), sentinelBadRequest)
}

// NotFoundf builds a NotFound error: a get-by-pair has no matching
// add/remove, or an index points at a blob that does not exist (an
// invariant violation, treated as corruption rather than silently
// ignored).
func NotFoundf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), sentinelNotFound)
}

// Unavailablef wraps an underlying KV engine error as Unavailable,
// tagging it with the operation that failed.
func Unavailablef(cause error, op string) error {
	return errors.Mark(errors.Wrapf(cause, "%s", op), sentinelUnavailable)
}

// IsBadRequest reports whether err (or anything it wraps) is a
// BadRequest error.
func IsBadRequest(err error) bool { return errors.Is(err, sentinelBadRequest) }

// IsNotFound reports whether err (or anything it wraps) is a NotFound
// error.
func IsNotFound(err error) bool { return errors.Is(err, sentinelNotFound) }

// IsUnavailable reports whether err (or anything it wraps) is an
// Unavailable error.
func IsUnavailable(err error) bool { return errors.Is(err, sentinelUnavailable) }

// KindOf classifies err as one of the three kinds, or "" if err is nil
// or not one of ours.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case IsNotFound(err):
		return KindNotFound
	case IsBadRequest(err):
		return KindBadRequest
	case IsUnavailable(err):
		return KindUnavailable
	default:
		return ""
	}
}
