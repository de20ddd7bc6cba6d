// Package provider holds what the hosting-service and chat adapters share.
// The adapters themselves live in the github, gitlab and slack
// subpackages, each implementing the interfaces declared by the pipeline
// stages that consume them.
package provider

import (
	"fmt"
	"net/http"
)

// DefaultPerPage is the page size requested from paginated list endpoints.
const DefaultPerPage = 100

// StatusError carries the HTTP status of a failed API call so the error
// package can classify rate limits and server errors as retryable.
type StatusError struct {
	Status int
	Err    error
}

// NewStatusError wraps err with the status of resp. A nil resp or nil err
// returns err unchanged.
func NewStatusError(resp *http.Response, err error) error {
	if err == nil || resp == nil {
		return err
	}
	return &StatusError{Status: resp.StatusCode, Err: err}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.Status, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusCode implements errors.StatusCoder.
func (e *StatusError) StatusCode() int {
	return e.Status
}
