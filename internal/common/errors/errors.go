// internal/common/errors/errors.go

// Package errors provides standardized error handling for the notification
// delivery pipeline.
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
	// Transport errors: push channel connect / reconnect / disconnect
	ErrCodeTransportConnectFailed   ErrorCode = "TRANSPORT_CONNECT_FAILED"
	ErrCodeTransportSubscribeFailed ErrorCode = "TRANSPORT_SUBSCRIBE_FAILED"
	ErrCodeTransportClosed          ErrorCode = "TRANSPORT_CLOSED"
	ErrCodeCredentialResolveFailed  ErrorCode = "CREDENTIAL_RESOLVE_FAILED"

	// Payload errors: malformed or non-conforming inbound messages
	ErrCodePayloadMalformed     ErrorCode = "PAYLOAD_MALFORMED"
	ErrCodePayloadSchemaInvalid ErrorCode = "PAYLOAD_SCHEMA_INVALID"
	ErrCodeUnknownPayloadType   ErrorCode = "UNKNOWN_PAYLOAD_TYPE"

	// Action errors: accept / decline / mark-seen REST calls
	ErrCodeShareResolveFailed ErrorCode = "SHARE_RESOLVE_FAILED"
	ErrCodeMarkSeenFailed     ErrorCode = "MARK_SEEN_FAILED"
	ErrCodeListFetchFailed    ErrorCode = "LIST_FETCH_FAILED"

	// Storage errors: durable snapshot load / save
	ErrCodeSnapshotLoadFailed ErrorCode = "SNAPSHOT_LOAD_FAILED"
	ErrCodeSnapshotSaveFailed ErrorCode = "SNAPSHOT_SAVE_FAILED"
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

// NewTransportConnectFailedError creates a retryable push-channel connection error.
func NewTransportConnectFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportConnectFailed,
		Message:   "Push channel connection failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportSubscribeFailedError creates a retryable subscription error.
func NewTransportSubscribeFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportSubscribeFailed,
		Message:   "Push channel subscription failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportClosedError marks an unexpected channel shutdown.
func NewTransportClosedError(channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportClosed,
		Message:   "Push channel closed",
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCredentialResolveFailedError creates a retryable credential resolution error.
func NewCredentialResolveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCredentialResolveFailed,
		Message:   "Credential resolution failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadMalformedError creates a non-retryable error for undecodable messages.
// The message is dropped, never retried.
func NewPayloadMalformedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadMalformed,
		Message:   "Inbound payload is not valid JSON",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadSchemaInvalidError creates a non-retryable error for messages that
// parsed but do not conform to the notification schema.
func NewPayloadSchemaInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadSchemaInvalid,
		Message:   "Inbound payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownPayloadTypeError creates a non-retryable error for an unrecognized
// notification type discriminant.
func NewUnknownPayloadTypeError(typeID int) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownPayloadType,
		Message:   "Unrecognized notification type",
		Details:   fmt.Sprintf("notificationTypeId: %d", typeID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewShareResolveFailedError creates a retryable share-request resolution error.
func NewShareResolveFailedError(requestID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeShareResolveFailed,
		Message:   "File share request resolution failed",
		Details:   fmt.Sprintf("fileShareRequestId: %s, error: %s", requestID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMarkSeenFailedError creates a retryable acknowledgement error.
func NewMarkSeenFailedError(notificationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMarkSeenFailed,
		Message:   "Notification mark-seen failed",
		Details:   fmt.Sprintf("notificationId: %s, error: %s", notificationID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewListFetchFailedError creates a retryable list refetch error.
func NewListFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeListFetchFailed,
		Message:   "Notification list fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotLoadFailedError creates a snapshot rehydration error. Not
// retryable: the pipeline starts empty instead.
func NewSnapshotLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotLoadFailed,
		Message:   "Persisted notification state could not be loaded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotSaveFailedError creates a retryable snapshot persistence error.
func NewSnapshotSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotSaveFailed,
		Message:   "Notification state snapshot could not be persisted",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeTransportConnectFailed,
		ErrCodeTransportSubscribeFailed,
		ErrCodeTransportClosed,
		ErrCodeCredentialResolveFailed,
		ErrCodeShareResolveFailed,
		ErrCodeMarkSeenFailed,
		ErrCodeListFetchFailed,
		ErrCodeSnapshotSaveFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code, matching the
// taxonomy used for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "CREDENTIAL"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "PAYLOAD"):
		return "PAYLOAD"
	case strings.Contains(codeStr, "SHARE") || strings.Contains(codeStr, "SEEN") || strings.Contains(codeStr, "LIST"):
		return "ACTION"
	case strings.Contains(codeStr, "SNAPSHOT"):
		return "STORAGE"
	default:
		return "OTHER"
	}
}
