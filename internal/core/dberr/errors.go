// Package dberr defines the classified database error and the store-neutral
// error variants classifiers translate driver failures into.
package dberr

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/vietddude/dbguard/internal/core/domain"
)

// ErrTimeout is wrapped by errors raised when an attempt exceeds its deadline.
var ErrTimeout = errors.New("database operation timeout")

// DatabaseError is the normalized, taxonomy-coded form of a raw failure.
// It is never mutated after construction.
type DatabaseError struct {
	Message      string
	Code         string
	ProviderCode string
	IsRetryable  bool
	IsTemporary  bool
	Context      domain.OperationContext
	Original     error
}

// New builds a DatabaseError. An empty code becomes CodeUnknown.
func New(
	message, code string,
	retryable, temporary bool,
	ctx domain.OperationContext,
	original error,
) *DatabaseError {
	if code == "" {
		code = CodeUnknown
	}
	return &DatabaseError{
		Message:     message,
		Code:        code,
		IsRetryable: retryable,
		IsTemporary: temporary,
		Context:     ctx,
		Original:    original,
	}
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Context.Operation, e.Message, e.Code)
}

func (e *DatabaseError) Unwrap() error {
	return e.Original
}

// WithContext returns a copy bound to another attempt context.
func (e *DatabaseError) WithContext(ctx domain.OperationContext) *DatabaseError {
	c := *e
	c.Context = ctx
	return &c
}

// AsRetryable returns a copy marked retryable and temporary.
func (e *DatabaseError) AsRetryable() *DatabaseError {
	c := *e
	c.IsRetryable = true
	c.IsTemporary = true
	return &c
}

// AsNetwork returns a retryable copy recoded as a generic network failure.
func (e *DatabaseError) AsNetwork() *DatabaseError {
	c := *e
	c.Code = CodeNetwork
	c.Message = "network or connection error"
	c.IsRetryable = true
	c.IsTemporary = true
	return &c
}

// KnownRequestError is a store error carrying a short code from the known
// request family (see codes.go).
type KnownRequestError struct {
	Code    string
	Message string
	Err     error
}

func (e *KnownRequestError) Error() string {
	if e.Message == "" {
		return "known request error " + e.Code
	}
	return e.Message
}

func (e *KnownRequestError) Unwrap() error { return e.Err }

// UnknownRequestError is a request failure the store could not classify.
type UnknownRequestError struct {
	Message string
	Err     error
}

func (e *UnknownRequestError) Error() string { return e.Message }
func (e *UnknownRequestError) Unwrap() error { return e.Err }

// EnginePanicError reports a crash inside the storage engine.
type EnginePanicError struct {
	Message string
	Err     error
}

func (e *EnginePanicError) Error() string { return e.Message }
func (e *EnginePanicError) Unwrap() error { return e.Err }

// InitializationError reports that the client could not establish the
// underlying connection at all.
type InitializationError struct {
	Message string
	Err     error
}

func (e *InitializationError) Error() string { return e.Message }
func (e *InitializationError) Unwrap() error { return e.Err }

// QueryValidationError reports a malformed query or argument shape.
type QueryValidationError struct {
	Message string
	Err     error
}

func (e *QueryValidationError) Error() string { return e.Message }
func (e *QueryValidationError) Unwrap() error { return e.Err }

var errnoNames = map[syscall.Errno]string{
	syscall.ECONNRESET:   "ECONNRESET",
	syscall.ECONNREFUSED: "ECONNREFUSED",
	syscall.ECONNABORTED: "ECONNABORTED",
	syscall.ETIMEDOUT:    "ETIMEDOUT",
	syscall.EPIPE:        "EPIPE",
	syscall.EHOSTUNREACH: "EHOSTUNREACH",
	syscall.ENETUNREACH:  "ENETUNREACH",
}

// ErrorName returns a short symbolic name for well-known network failures
// (errno names, ENOTFOUND for DNS lookups), or "" when none applies.
func ErrorName(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errnoNames[errno]
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return "ENOTFOUND"
	}
	return ""
}
