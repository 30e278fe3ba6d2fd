// Package errs defines the single tagged error type shared by every adapter,
// the poller and the persisters.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind uint8

const (
	// Unknown is returned by KindOf for errors not produced by this package.
	Unknown Kind = iota

	// UpstreamUnavailable is a transport failure, a non-2xx status or an
	// exchange-level error reported by an upstream API.
	UpstreamUnavailable

	// SchemaMismatch means the upstream body could not be parsed into the expected shape.
	SchemaMismatch

	// EmptyResult is a well-formed but semantically empty upstream response.
	EmptyResult

	// StorageWriteFailed is a non-success response or transport error from the store.
	StorageWriteFailed

	// TimestampParseFailed means a locally produced timestamp did not re-parse.
	TimestampParseFailed
)

func (k Kind) String() string {
	switch k {
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case SchemaMismatch:
		return "schema_mismatch"
	case EmptyResult:
		return "empty_result"
	case StorageWriteFailed:
		return "storage_write_failed"
	case TimestampParseFailed:
		return "timestamp_parse_failed"
	default:
		return "unknown"
	}
}

var (
	// ErrUnavailable is the only error the query layer exposes to callers.
	ErrUnavailable = errors.New("unavailable")

	// ErrUnknownExchange is returned for an exchange tag with no adapter.
	ErrUnknownExchange = errors.New("unknown exchange")
)

// Error carries the failure kind plus enough context to diagnose it in logs.
type Error struct {
	Kind     Kind
	Exchange string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Exchange != "" {
		msg = e.Exchange + " " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error. err may be nil.
func New(kind Kind, exchange, op string, err error) error {
	return &Error{Kind: kind, Exchange: exchange, Op: op, Err: err}
}

// Newf is New with a formatted cause.
func Newf(kind Kind, exchange, op, format string, args ...any) error {
	return New(kind, exchange, op, fmt.Errorf(format, args...))
}

// KindOf reports the kind of the first tagged error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
