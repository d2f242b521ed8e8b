package composite

import (
	"fmt"
	"net/http"

	"github.com/microfabric/composite-gateway/internal/gateway/upstream"
)

// Code classifies a composite operation failure.
type Code string

const (
	// CodeBadRequest covers missing or invalid composite fields, including
	// references to users that do not exist.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound means the requested resource does not exist upstream.
	CodeNotFound Code = "not_found"
	// CodeBadGateway means an upstream answered with a status the gateway
	// cannot interpret as not-found.
	CodeBadGateway Code = "bad_gateway"
	// CodeInternal covers transport failures and everything unexpected.
	CodeInternal Code = "internal"
)

// Error is the structured failure every composite operation returns. Code is
// stable; Message references the failing upstream call.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error code onto an HTTP status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(format string, args ...interface{}) *Error {
	return &Error{Code: CodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func badGateway(err error, format string, args ...interface{}) *Error {
	return &Error{Code: CodeBadGateway, Message: fmt.Sprintf(format, args...), Err: err}
}

func internal(err error, format string, args ...interface{}) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// upstreamError wraps an adapter failure: a non-2xx status becomes a gateway
// error, anything else is a transport-level internal error.
func upstreamError(err error, op string) *Error {
	if se, ok := upstream.AsStatusError(err); ok {
		return badGateway(err, "%s: upstream %s returned status %d", op, se.Service, se.StatusCode)
	}
	return internal(err, "%s: upstream call failed", op)
}
