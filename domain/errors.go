package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures of the document model.
type ErrorCode string

const (
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeInvalid  ErrorCode = "INVALID"
	ErrCodeBridge   ErrorCode = "BRIDGE"
	ErrCodeSchema   ErrorCode = "SCHEMA"
	ErrCodeDecode   ErrorCode = "DECODE"
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing code and message, so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Common domain errors.
var (
	ErrTaskNotFound      = NewError(ErrCodeNotFound, "task not found")
	ErrResourceNotFound  = NewError(ErrCodeNotFound, "resource not found")
	ErrSnapshotNotFound  = NewError(ErrCodeNotFound, "snapshot not found")
	ErrDocumentNotOpen   = NewError(ErrCodeBridge, "document not found, make sure it is open in the host application")
	ErrBridgeUnavailable = NewError(ErrCodeBridge, "bridge not configured")
	ErrInvalidPayload    = NewError(ErrCodeInvalid, "invalid payload")
	ErrSnapshotReadOnly  = NewError(ErrCodeInvalid, "document was served from a snapshot and is read-only, refresh it before making changes")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
