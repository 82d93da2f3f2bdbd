package providers

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes adapter failures so callers can pick a message
type ErrorKind string

const (
	KindMissingCredential  ErrorKind = "missing_credential"
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindImageProcessing    ErrorKind = "image_processing"
	KindProviderHTTP       ErrorKind = "provider_http"
	KindNetworkUnreachable ErrorKind = "network_unreachable"
	KindRequestSetup       ErrorKind = "request_setup"
	KindResponseParse      ErrorKind = "response_parse"
)

// Error represents a failure while talking to a provider
type Error struct {
	// Kind is the failure category
	Kind ErrorKind

	// Provider that was targeted, if known
	Provider Provider

	// StatusCode is the HTTP status for KindProviderHTTP
	StatusCode int

	// Message is the human readable description
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Provider != "" {
		prefix = fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap implements error unwrapping
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, provider Provider, message string, cause error) *Error {
	return &Error{
		Kind:     kind,
		Provider: provider,
		Message:  message,
		Cause:    cause,
	}
}

// Sentinels for errors.Is; only the Kind is compared.
var (
	ErrMissingCredential  = &Error{Kind: KindMissingCredential, Message: "credential is missing"}
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest, Message: "invalid request"}
	ErrImageProcessing    = &Error{Kind: KindImageProcessing, Message: "image processing failed"}
	ErrProviderHTTP       = &Error{Kind: KindProviderHTTP, Message: "provider returned an error"}
	ErrNetworkUnreachable = &Error{Kind: KindNetworkUnreachable, Message: "no response from provider"}
	ErrRequestSetup       = &Error{Kind: KindRequestSetup, Message: "request setup failed"}
	ErrResponseParse      = &Error{Kind: KindResponseParse, Message: "unexpected response shape"}
)

// KindOf returns the ErrorKind of err, or "" if err is not an adapter error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind checks whether err is an adapter error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return kind != "" && KindOf(err) == kind
}
