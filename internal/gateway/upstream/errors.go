package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when an atomic service answers with a non-2xx
// status. It carries enough of the upstream response to diagnose the failure
// without exposing transport internals to callers.
type StatusError struct {
	Service    string
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: upstream status %d: %s", e.Service, e.Operation, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// AsStatusError unwraps err into a StatusError if it is one.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
