package errors

import (
	stderrors "errors"
	"fmt"

	"immunoscope/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Stage   string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	prefix := e.Message
	if e.Stage != "" {
		prefix = fmt.Sprintf("[%s] %s", e.Stage, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Cause)
	}
	return prefix
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Stage:   appErr.Stage,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Stage attributes a pipeline failure to the stage that raised it, choosing the
// code from the domain error it wraps.
func Stage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Stage != "" {
		return err
	}
	return &AppError{
		Code:    codeFor(err),
		Stage:   stage,
		Message: "stage failed",
		Cause:   err,
	}
}

func codeFor(err error) string {
	switch {
	case stderrors.Is(err, core.ErrRetrieval), stderrors.Is(err, core.ErrInvalidQuery):
		return CodeRetrieval
	case stderrors.Is(err, core.ErrDataShape):
		return CodeDataShape
	case stderrors.Is(err, core.ErrEmptyPanel):
		return CodeEmptyPanel
	case stderrors.Is(err, core.ErrInsufficientGroups):
		return CodeInsufficientGroups
	case stderrors.Is(err, core.ErrNonFiniteScore):
		return CodeNonFiniteScore
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// GetCode returns the error code if the chain holds an AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// GetStage returns the pipeline stage recorded on the error, if any
func GetStage(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Stage
	}
	return ""
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeRetrieval          = "RETRIEVAL_ERROR"
	CodeDataShape          = "DATA_SHAPE_ERROR"
	CodeEmptyPanel         = "EMPTY_PANEL"
	CodeInsufficientGroups = "INSUFFICIENT_GROUPS"
	CodeNonFiniteScore     = "NON_FINITE_SCORE"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeExportError        = "EXPORT_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func ExportError(message string, cause error) *AppError {
	return &AppError{Code: CodeExportError, Message: message, Cause: cause}
}
