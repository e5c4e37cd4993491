package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindExternal   ErrorKind = "external"
	ErrorKindInternal   ErrorKind = "internal"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindNotFound   ErrorKind = "not_found"
)

// AgentError is the typed error union returned by every service. Callers branch
// on Kind/Code instead of parsing message strings.
type AgentError struct {
	Kind     ErrorKind              `json:"kind"`
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Cause    error                  `json:"-"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AgentError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy carrying the underlying error.
func (e *AgentError) WithCause(cause error) *AgentError {
	copied := *e
	copied.Cause = cause
	return &copied
}

// WithMetadata returns a copy with the key/value attached.
func (e *AgentError) WithMetadata(key string, value interface{}) *AgentError {
	copied := *e
	copied.Metadata = make(map[string]interface{}, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		copied.Metadata[k] = v
	}
	copied.Metadata[key] = value
	return &copied
}

func newAgentError(kind ErrorKind, code, message string) *AgentError {
	return &AgentError{Kind: kind, Code: code, Message: message}
}

func NewValidationError(code, message string) *AgentError {
	return newAgentError(ErrorKindValidation, code, message)
}

func NewExternalError(code, message string) *AgentError {
	return newAgentError(ErrorKindExternal, code, message)
}

func NewInternalError(code, message string) *AgentError {
	return newAgentError(ErrorKindInternal, code, message)
}

func NewTimeoutError(code, message string) *AgentError {
	return newAgentError(ErrorKindTimeout, code, message)
}

func NewNotFoundError(code, message string) *AgentError {
	return newAgentError(ErrorKindNotFound, code, message)
}

// WrapExternalError tags an upstream failure with the service that produced it.
func WrapExternalError(service string, cause error) *AgentError {
	return NewExternalError(service+"_FAILED", fmt.Sprintf("%s call failed", service)).WithCause(cause)
}

// AsAgentError unwraps err to an *AgentError when possible.
func AsAgentError(err error) (*AgentError, bool) {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr, true
	}
	return nil, false
}
