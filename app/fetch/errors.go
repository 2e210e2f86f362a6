package fetch

import (
	"fmt"
	"net/http"
	"strings"
)

// TransportError is a request that produced no HTTP response.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ProxyEnvelopeError is a public proxy response without string contents.
type ProxyEnvelopeError struct {
	Reason string
	Err    error
}

func (e *ProxyEnvelopeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid proxy response: %s: %v", e.Reason, e.Err)
	}
	return "invalid proxy response: " + e.Reason
}

func (e *ProxyEnvelopeError) Unwrap() error {
	return e.Err
}

// Error is the terminal failure of a pipeline run. Cause is the failure of
// the last strategy, Earlier holds the failures that led to falling back.
// errors.Is and errors.As see all of them.
type Error struct {
	URL     string
	Cause   error
	Earlier []error
}

func (e *Error) Error() string {
	msg := "failed to fetch data: " + e.Cause.Error()
	if len(e.Earlier) == 0 {
		return msg
	}
	earlier := make([]string, len(e.Earlier))
	for i, err := range e.Earlier {
		earlier[i] = err.Error()
	}
	return msg + " (after: " + strings.Join(earlier, "; ") + ")"
}

func (e *Error) Unwrap() []error {
	return append([]error{e.Cause}, e.Earlier...)
}
