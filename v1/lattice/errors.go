package lattice

import (
	"errors"
	"fmt"
)

// Sentinels for the four failure kinds. Every error returned by the client
// matches exactly one of them with errors.Is.
var (
	// ErrValidation marks caller input rejected before any network call.
	ErrValidation = errors.New("lattice: validation error")

	// ErrTransport marks connection, DNS, TLS or timeout failures.
	ErrTransport = errors.New("lattice: transport error")

	// ErrService marks responses with an HTTP status of 400 or above.
	ErrService = errors.New("lattice: service error")

	// ErrProtocol marks responses that break the wire contract.
	ErrProtocol = errors.New("lattice: protocol error")
)

// Kind names a failure kind. It is also used as a metrics label.
type Kind string

const (
	KindNone       Kind = ""
	KindValidation Kind = "validation"
	KindTransport  Kind = "transport"
	KindService    Kind = "service"
	KindProtocol   Kind = "protocol"
)

// ValidationError reports an argument that violates a precondition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lattice: invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TransportError wraps the error returned by the HTTP layer unchanged, so
// checks such as errors.As(err, &netErr) keep working.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("lattice: %s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) true.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ServiceError reports an HTTP status of 400 or above. Message is the
// response's "error" field when present, otherwise the whole body.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("lattice: service returned %d: %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrService) true.
func (e *ServiceError) Is(target error) bool { return target == ErrService }

// ProtocolError reports a response that does not match the wire contract,
// usually a client/service version mismatch.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "lattice: protocol error: " + e.Reason
}

// Is makes errors.Is(err, ErrProtocol) true.
func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool { return errors.Is(err, ErrValidation) }

// IsTransportError reports whether err is a transport failure.
func IsTransportError(err error) bool { return errors.Is(err, ErrTransport) }

// IsServiceError reports whether err is a service failure.
func IsServiceError(err error) bool { return errors.Is(err, ErrService) }

// IsProtocolError reports whether err is a protocol failure.
func IsProtocolError(err error) bool { return errors.Is(err, ErrProtocol) }

// AsServiceError returns the *ServiceError in err's chain, if any.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// KindOf classifies err. It returns KindNone for nil and for errors that
// did not come from this package.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrService):
		return KindService
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	default:
		return KindNone
	}
}

// ErrorKind returns the kind of err as a plain string. Its signature fits
// metrics.ErrorClassifier.
func ErrorKind(err error) string { return string(KindOf(err)) }
