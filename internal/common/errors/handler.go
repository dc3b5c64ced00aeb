// internal/common/errors/handler.go
package errors

import (
	"time"
)

// Outcome tells the conversation layer how to recover from an error.
type Outcome string

const (
	// OutcomeReprompt re-asks the same question (bad user input).
	OutcomeReprompt Outcome = "reprompt"
	// OutcomeAbort discards the session and returns to the main menu.
	OutcomeAbort Outcome = "abort"
	// OutcomeRetry means the operation may be retried transparently.
	OutcomeRetry Outcome = "retry"
	// OutcomeApologize reports a generic failure and returns to the menu.
	OutcomeApologize Outcome = "apologize"
)

// ErrorHandler normalizes errors and maps them to conversational outcomes.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err, logs it, and returns the recovery outcome.
func (h *ErrorHandler) Handle(userID int64, err error) Outcome {
	stdErr := h.normalizeError(err)
	h.logError(userID, stdErr)

	switch stdErr.Code {
	case ErrCodeValidationFailed:
		return OutcomeReprompt
	case ErrCodeOwnershipFailed, ErrCodeRecordNotFound:
		return OutcomeAbort
	default:
		if stdErr.Retryable && GetRetryCount(stdErr.Code) > 0 {
			return OutcomeRetry
		}
		return OutcomeApologize
	}
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(userID int64, stdErr *StandardError) {
	h.logger.Error("operation failed", map[string]interface{}{
		"userId":        userID,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"retries":       GetRetryCount(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
