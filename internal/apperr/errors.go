// Package apperr defines the error taxonomy shared by all services.
// Services return these errors; the boundary maps them to gRPC codes and
// never exposes internal error text for unexpected failures.
package apperr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a domain error for boundary mapping.
type Kind int

const (
	// KindValidation is malformed input; the caller can correct and retry.
	KindValidation Kind = iota
	// KindBusinessRule is an invariant violation (double revoke, terminal-state transition).
	KindBusinessRule
	// KindNotFound covers both absent entities and tenant mismatches, so
	// existence is never leaked across tenants.
	KindNotFound
)

// Sentinel errors for security-sensitive failures. These always fail closed.
var (
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidCounter = errors.New("authenticator counter did not advance")
)

// Error is a classified domain error with a stable machine-readable code.
type Error struct {
	Kind Kind
	Code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Validation returns a KindValidation error with the given code.
func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, msg: fmt.Sprintf(format, args...)}
}

// BusinessRule returns a KindBusinessRule error with the given code.
func BusinessRule(code, format string, args ...any) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error for the named resource. The message
// deliberately carries no identifier so tenant-mismatched lookups read the
// same as true misses.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", msg: resource + " not found"}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsBusinessRule reports whether err is a business-rule error.
func IsBusinessRule(err error) bool { return IsKind(err, KindBusinessRule) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// ToStatus maps a domain error to a gRPC status. Unexpected errors map to a
// generic Internal status; the original message is never forwarded so stack
// traces and driver errors stay inside the process.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrInvalidCounter):
		return status.Error(codes.Unauthenticated, "authentication failed")
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindValidation:
			return status.Error(codes.InvalidArgument, e.msg)
		case KindBusinessRule:
			return status.Error(codes.FailedPrecondition, e.msg)
		case KindNotFound:
			return status.Error(codes.NotFound, e.msg)
		}
	}
	return status.Error(codes.Internal, "internal error")
}
