package helpers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrUpstream = errors.New("upstream error")

// UpstreamError is a non-retryable failure reported by a backend service.
// Body carries the response text verbatim.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return ErrUpstream.Error()
	}
	return fmt.Sprintf("%s: %s returned status %d: %s", ErrUpstream, e.Service, e.StatusCode, e.Body)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// NewUpstreamError reads the body of resp into an UpstreamError. The caller
// still owns closing resp.Body.
func NewUpstreamError(service string, resp *http.Response) *UpstreamError {
	body, err := io.ReadAll(resp.Body)
	text := string(body)
	if err != nil && text == "" {
		text = err.Error()
	}
	return &UpstreamError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       text,
	}
}

// IsSuccess reports whether status is a 2xx code.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
