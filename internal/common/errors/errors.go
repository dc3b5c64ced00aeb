// Package errors provides standardized error handling for the assistant.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeQuotaExhausted     ErrorCode = "REMOTE_QUOTA_EXHAUSTED"
	ErrCodeRemoteTimeout      ErrorCode = "REMOTE_TIMEOUT"
	ErrCodeRemoteUnavailable  ErrorCode = "REMOTE_UNAVAILABLE"
	ErrCodeMalformedReply     ErrorCode = "MALFORMED_REMOTE_REPLY"
	ErrCodeNoUsableCredential ErrorCode = "NO_USABLE_CREDENTIAL"

	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeOwnershipFailed  ErrorCode = "OWNERSHIP_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeTransactionCommitFailed  ErrorCode = "TRANSACTION_COMMIT_FAILED"
	ErrCodeRecordNotFound           ErrorCode = "RECORD_NOT_FOUND"

	ErrCodeRateFetchFailed ErrorCode = "RATE_FETCH_FAILED"
	ErrCodeCacheFailed     ErrorCode = "CACHE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewQuotaExhaustedError creates a retryable remote quota error.
func NewQuotaExhaustedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuotaExhausted,
		Message:   "Remote understanding quota exhausted",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteTimeoutError creates a retryable remote timeout error.
func NewRemoteTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteTimeout,
		Message:   "Remote understanding call timed out",
		Details:   "call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteUnavailableError creates a retryable remote transport error.
func NewRemoteUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteUnavailable,
		Message:   "Remote understanding service unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedReplyError creates a non-retryable reply parse error.
func NewMalformedReplyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedReply,
		Message:   "Remote reply is not a usable intent object",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoUsableCredentialError creates a non-retryable credential pool error.
func NewNoUsableCredentialError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoUsableCredential,
		Message:   "All remote credentials have failed",
		Details:   "credential pool exhausted for process lifetime",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable user input error.
// The session layer re-prompts the same slot on this error.
func NewValidationFailedError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   fmt.Sprintf("Invalid value for %s", field),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOwnershipFailedError creates a non-retryable ownership error.
// The session layer aborts to the main menu on this error.
func NewOwnershipFailedError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOwnershipFailed,
		Message:   fmt.Sprintf("Referenced %s does not belong to the user", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransactionCommitFailedError creates a retryable commit error.
// Both the transaction row and the balance update have been rolled back.
func NewTransactionCommitFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransactionCommitFailed,
		Message:   "Transaction commit failed, changes rolled back",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordNotFoundError creates a non-retryable lookup error.
func NewRecordNotFoundError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateFetchFailedError creates a retryable exchange-rate fetch error.
func NewRateFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateFetchFailed,
		Message:   "Exchange rate fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheFailedError creates a retryable cache error.
func NewCacheFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailed,
		Message:   "Cache operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Retry Policy
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeTransactionCommitFailed,
		ErrCodeRateFetchFailed:
		return 3

	case ErrCodeRemoteTimeout,
		ErrCodeRemoteUnavailable:
		return 2

	// Quota errors rotate to the next credential instead of re-sending,
	// so exactly one extra attempt.
	case ErrCodeQuotaExhausted:
		return 1

	default:
		return 0
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "REMOTE") || strings.Contains(codeStr, "CREDENTIAL"):
		return "REMOTE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "TRANSACTION") || strings.Contains(codeStr, "RECORD"):
		return "DATABASE"
	case strings.Contains(codeStr, "RATE") || strings.Contains(codeStr, "CACHE"):
		return "RATES"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "OWNERSHIP"):
		return "USER_INPUT"
	default:
		return "OTHER"
	}
}
