package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a business error so transport layers can translate it
// without string matching.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodePaymentShortfall  Code = "PAYMENT_SHORTFALL"
	CodeInvalidState      Code = "INVALID_STATE_TRANSITION"
	CodeEncoding          Code = "ENCODING_ERROR"
	CodeTransient         Code = "TRANSIENT_ERROR"
)

// Metadata describes how a code surfaces over HTTP and whether the caller
// may safely retry the whole operation.
type Metadata struct {
	HTTPStatus int
	Retryable  bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        {HTTPStatus: http.StatusBadRequest},
	CodeNotFound:          {HTTPStatus: http.StatusNotFound},
	CodeInsufficientStock: {HTTPStatus: http.StatusConflict},
	CodePaymentShortfall:  {HTTPStatus: http.StatusUnprocessableEntity},
	CodeInvalidState:      {HTTPStatus: http.StatusConflict},
	CodeEncoding:          {HTTPStatus: http.StatusInternalServerError},
	CodeTransient:         {HTTPStatus: http.StatusServiceUnavailable, Retryable: true},
}

// Error is a coded business error. Details carries structured context
// (e.g. the shortfall amount) safe to render to an operator.
type Error struct {
	code    Code
	message string
	details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Code() Code { return e.code }

func (e *Error) Message() string { return e.message }

func (e *Error) Details() map[string]any { return e.details }

// WithDetail attaches one structured context value and returns the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = map[string]any{}
	}
	e.details[key] = value
	return e
}

// New builds a coded error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap builds a coded error around a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...), cause: cause}
}

// As unwraps err to an *Error, or nil if none is in the chain.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	if e := As(err); e != nil {
		return e.code == code
	}
	return false
}

// HTTPStatus maps err to an HTTP status. Unclassified errors are treated as
// transient: the whole transaction was rolled back and may be retried.
func HTTPStatus(err error) int {
	if e := As(err); e != nil {
		if meta, ok := metadataByCode[e.code]; ok {
			return meta.HTTPStatus
		}
	}
	return http.StatusServiceUnavailable
}

// Retryable reports whether the caller should retry the whole operation.
func Retryable(err error) bool {
	if e := As(err); e != nil {
		if meta, ok := metadataByCode[e.code]; ok {
			return meta.Retryable
		}
		return false
	}
	return err != nil
}
