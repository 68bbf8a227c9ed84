package speech

import (
	"errors"
	"fmt"
)

// ErrSubmitFailed matches every upload failure: transport, status, and malformed replies.
var ErrSubmitFailed = errors.New("speech submission failed")

// NetworkError reports that the request never produced an HTTP response.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("post %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrSubmitFailed, e.Err} }

// ServerError reports a non-success status or an unusable response body.
type ServerError struct {
	StatusCode int
	Body       string
	Reason     string
}

func (e *ServerError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("server response (HTTP %d): %s", e.StatusCode, e.Reason)
	}
	if e.Body == "" {
		return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *ServerError) Unwrap() error { return ErrSubmitFailed }
