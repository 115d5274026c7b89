// Package apperr defines the application error taxonomy and central handling.
package apperr

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation  = "E100"
	CodeNotFound    = "E110"
	CodeDatabase    = "E200"
	CodeTransport   = "E300"
	CodeState       = "E400"
	CodeSessionLost = "E410"
)

// AppError carries an error class, an operator-facing message, and a short
// localized message safe to show the actor.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewValidationError reports user input that failed a format or length rule.
// The workflow re-prompts the same step; no state is lost.
func NewValidationError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeValidation,
		Message:     fmt.Sprintf("validation failed: %s", underlyingMsg),
		UserMessage: "❌ Некорректный ввод, попробуйте ещё раз",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// NewNotFoundError reports a referenced entity that no longer exists.
func NewNotFoundError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeNotFound,
		Message:     underlyingMsg,
		UserMessage: "❌ Запись не найдена!",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// NewDatabaseError reports a failed insert/update; the workflow aborts the
// current step without advancing.
func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeDatabase,
		Message:     fmt.Sprintf("database error: %s", underlyingMsg),
		UserMessage: "❌ Временная проблема, попробуйте позже",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewTransportError reports a failed Telegram API call. Transport errors are
// non-fatal: rows already written stand.
func NewTransportError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeTransport,
		Message:     fmt.Sprintf("telegram transport error: %s", underlyingMsg),
		UserMessage: "❌ Сервис временно недоступен",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStateError reports an operation that is not allowed in the current
// workflow state, e.g. re-confirming an already-closed report.
func NewStateError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeState,
		Message:     underlyingMsg,
		UserMessage: "❌ Операция невозможна в текущем состоянии",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       cause,
	}
}

// NewSessionLostError reports a workflow step reached without a backing
// session; the actor must restart the flow from its entry point.
func NewSessionLostError() *AppError {
	return &AppError{
		Code:        CodeSessionLost,
		Message:     "conversation session lost",
		UserMessage: "❌ Данные потеряны. Начните заново с /start",
		Severity:    SeverityLow,
		Retryable:   false,
	}
}
