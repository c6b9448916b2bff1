// Package common - Error taxonomy shared by the skill components.
package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure so callers can react without string matching.
type Kind int

const (
	// KindUnknown is an unclassified failure.
	KindUnknown Kind = iota
	// KindCrypto is a cipher primitive or padding failure.
	KindCrypto
	// KindIO is a file open, read or write failure.
	KindIO
	// KindNoSourceFound means no color frame source of any stream type exists.
	KindNoSourceFound
	// KindNoCompatibleFormat means no frame format matched the selection tiers.
	KindNoCompatibleFormat
	// KindInvalidArgument is a malformed input, a missing parameter or an unsupported device kind.
	KindInvalidArgument
)

var kindNames = map[Kind]string{
	KindUnknown:            "Unknown",
	KindCrypto:             "CryptoError",
	KindIO:                 "IOError",
	KindNoSourceFound:      "NoSourceFound",
	KindNoCompatibleFormat: "NoCompatibleFormat",
	KindInvalidArgument:    "InvalidArgument",
}

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is matching. They only compare the Kind.
var (
	ErrCrypto             = &Error{Kind: KindCrypto}
	ErrIO                 = &Error{Kind: KindIO}
	ErrNoSourceFound      = &Error{Kind: KindNoSourceFound}
	ErrNoCompatibleFormat = &Error{Kind: KindNoCompatibleFormat}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
)

// Error is a typed failure carrying the operation that produced it.
type Error struct {
	// Kind is the taxonomy bucket.
	Kind Kind
	// Op names the failing operation, e.g. "obfuscation.Decrypt".
	Op string
	// Code is an optional platform status code (HRESULT-style).
	Code uint32
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (0x%08x)", msg, e.Code)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" || t.Err != nil {
		return false
	}
	if t.Code != 0 && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

// E builds a typed error.
//
// Arguments:
//   - kind: The taxonomy bucket.
//   - op: The failing operation.
//   - err: The underlying cause (may be nil).
//
// Returns:
//   - error: The typed error.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a typed error with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// WithCode builds a typed error that carries a platform status code.
func WithCode(kind Kind, op string, code uint32, err error) error {
	return &Error{Kind: kind, Op: op, Code: code, Err: err}
}

// KindOf returns the kind of the first *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the first non-zero status code found in the chain.
func CodeOf(err error) uint32 {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return 0
		}
		if e.Code != 0 {
			return e.Code
		}
		err = e.Err
	}
	return 0
}

// ExitCode maps an error to a process exit status.
//
// A platform status code is returned as-is (truncated to int32 the way the
// Windows loader reports HRESULTs); otherwise each kind gets a small
// distinct status so scripts can tell them apart.
//
// Returns:
//   - int: 0 for a nil error, a non-zero status otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code := CodeOf(err); code != 0 {
		return int(int32(code))
	}
	switch KindOf(err) {
	case KindCrypto:
		return 2
	case KindIO:
		return 3
	case KindNoSourceFound:
		return 4
	case KindNoCompatibleFormat:
		return 5
	case KindInvalidArgument:
		return 6
	default:
		return 1
	}
}
