package datadog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// AuthenticationError reports a 401: the API or application key was
// rejected.
type AuthenticationError struct {
	Detail string
}

func (e *AuthenticationError) Error() string {
	if e.Detail == "" {
		return "unauthorized: API or application key rejected"
	}
	return "unauthorized: " + e.Detail
}

// AuthorizationError reports a 403: the keys are valid but lack the
// required scope.
type AuthorizationError struct {
	Detail string
}

func (e *AuthorizationError) Error() string {
	if e.Detail == "" {
		return "forbidden: missing permission for this endpoint"
	}
	return "forbidden: " + e.Detail
}

// RateLimitError reports a 429. RetryAfter carries the server's
// Retry-After header in seconds when it was provided, zero otherwise.
type RateLimitError struct {
	RetryAfter int
	Detail     string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	if e.Detail == "" {
		return "rate limited"
	}
	return "rate limited: " + e.Detail
}

// AvailabilityError reports a 5xx: the service is down or degraded.
type AvailabilityError struct {
	Status int
	Detail string
}

func (e *AvailabilityError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("service unavailable: status %d", e.Status)
	}
	return fmt.Sprintf("service unavailable: status %d: %s", e.Status, e.Detail)
}

// ConnectionError reports a transport failure: the request never got a
// response (DNS, refused connection, timeout).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DecodeError reports a response that arrived but could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bad response: cannot decode body: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RequestError reports a caller-side fault: a request the API rejected
// as invalid (4xx other than auth and rate limiting).
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("bad request: status %d", e.Status)
	}
	return fmt.Sprintf("bad request: %s", e.Detail)
}

// ClassifyStatus maps a non-200 API response onto the error taxonomy.
func ClassifyStatus(status int, header http.Header, body []byte) error {
	detail := summarizeBody(body)

	switch {
	case status == http.StatusUnauthorized:
		return &AuthenticationError{Detail: detail}
	case status == http.StatusForbidden:
		return &AuthorizationError{Detail: detail}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfterSeconds(header), Detail: detail}
	case status >= 500:
		return &AvailabilityError{Status: status, Detail: detail}
	default:
		return &RequestError{Status: status, Detail: detail}
	}
}

// IsRetryable reports whether the fault is transient: rate limits,
// availability, and transport failures.
func IsRetryable(err error) bool {
	var rate *RateLimitError
	var avail *AvailabilityError
	var conn *ConnectionError
	return errors.As(err, &rate) || errors.As(err, &avail) || errors.As(err, &conn)
}

// IsAuth reports whether the fault is credential-related (401 or 403).
func IsAuth(err error) bool {
	var authn *AuthenticationError
	var authz *AuthorizationError
	return errors.As(err, &authn) || errors.As(err, &authz)
}

// summarizeBody extracts a short human-readable detail from an error
// response. The v1 API answers {"errors": ["..."]}; anything else is
// trimmed raw text.
func summarizeBody(body []byte) string {
	const maxDetail = 200

	var wire struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(body, &wire); err == nil && len(wire.Errors) > 0 {
		return strings.Join(wire.Errors, "; ")
	}

	s := strings.TrimSpace(string(body))
	if len(s) > maxDetail {
		s = s[:maxDetail]
	}
	return s
}

// retryAfterSeconds parses the Retry-After header as integer seconds.
// HTTP-date values and garbage both yield zero.
func retryAfterSeconds(header http.Header) int {
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
