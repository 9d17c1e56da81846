// Package httputil provides HTTP error handling utilities.
package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxErrorBodySize is the maximum size of a response body to include in error messages
const MaxErrorBodySize = 500

// HTTPError represents a non-success HTTP response with status code and body
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Status, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s (status %d)", e.Status, e.StatusCode)
}

// StatusCode extracts the status code from an error chain containing an
// HTTPError. Returns 0 if the chain has none.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// truncate truncates a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// CheckResponse returns a rich HTTPError for error responses (4xx/5xx),
// consuming the body. Returns nil for success responses, leaving the body
// untouched for the caller.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	bodyBytes, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	bodyStr := ""
	if readErr == nil && len(bodyBytes) > 0 {
		bodyStr = truncate(string(bodyBytes), MaxErrorBodySize)
	}

	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       bodyStr,
		URL:        url,
	}
}
