// internal/common/errors/handler.go
package errors

import (
	"time"
)

// Handler contains pipeline errors at the component boundary that raised
// them. Transport, payload and action failures are logged and counted but
// never propagate to a global error boundary.
type Handler struct {
	logger  Logger
	counter Counter
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// Counter receives one increment per handled error, labeled by category and
// code. The metrics package satisfies this.
type Counter interface {
	IncError(category, code string)
}

type noopCounter struct{}

func (noopCounter) IncError(string, string) {}

func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger, counter: noopCounter{}}
}

func NewHandlerWithCounter(logger Logger, counter Counter) *Handler {
	return &Handler{logger: logger, counter: counter}
}

// Handle normalizes, logs and counts an error. It never returns it: the
// caller has already decided the failure stays contained.
func (h *Handler) Handle(component string, err error) {
	stdErr := h.normalizeError(err)

	fields := map[string]interface{}{
		"component": component,
		"errorCode": string(stdErr.Code),
		"category":  GetErrorCategory(stdErr.Code),
		"details":   stdErr.Details,
		"retryable": stdErr.Retryable,
	}

	// Payload errors are expected noise on a lossy channel, log at warn
	if GetErrorCategory(stdErr.Code) == "PAYLOAD" {
		h.logger.Warn(stdErr.Message, fields)
	} else {
		h.logger.Error(stdErr.Message, fields)
	}

	h.counter.IncError(GetErrorCategory(stdErr.Code), string(stdErr.Code))
}

// normalizeError ensures we always have a StandardError
func (h *Handler) normalizeError(err error) *StandardError {
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
