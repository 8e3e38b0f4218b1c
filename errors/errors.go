package errors

import "fmt"

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorConfig
	ErrorResource
)

// TransportError represents socket and polling errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorSocketOptionFailure
	TransportErrorSocketBindFailure
	TransportErrorSocketListenFailure
	TransportErrorSocketAcceptFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorSocketCloseFailure
	TransportErrorConnectionClosed
	TransportErrorPollFailure
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

// ProtocolError represents request framing errors
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorEmptyRequest
	ProtocolErrorInvalidRequestLine
	ProtocolErrorUnsupportedVersion
	ProtocolErrorInvalidHeader
)

// ConfigError represents configuration loading errors
type ConfigError int

const (
	ConfigErrorNone ConfigError = iota
	ConfigErrorUnreadable
	ConfigErrorMissingKey
	ConfigErrorInvalidValue
)

// HttpError is the main error type for the server
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	ConfigErr     ConfigError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error (%d)", e.TransportErr)
	case ErrorProtocol:
		typeStr = fmt.Sprintf("Protocol error (%d)", e.ProtocolErr)
	case ErrorConfig:
		typeStr = fmt.Sprintf("Config error (%d)", e.ConfigErr)
	case ErrorResource:
		typeStr = "Resource error"
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// IsTransport reports whether e is a transport error with the given code
func (e *HttpError) IsTransport(code TransportError) bool {
	return e != nil && e.Type == ErrorTransport && e.TransportErr == code
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *HttpError {
	return &HttpError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Message:     message,
	}
}

// NewConfigError creates a new configuration error
func NewConfigError(err ConfigError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorConfig,
		ConfigErr:     err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewResourceError creates a new resource error
func NewResourceError(message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorResource,
		Message:       message,
		UnderlyingErr: underlying,
	}
}
