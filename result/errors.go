package result

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// ErrorCategory narrows down why a URL was classified failure.
type ErrorCategory string

const (
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryDNSFailure        ErrorCategory = "dns_failure"
	CategoryConnectionRefused ErrorCategory = "connection_refused"
	Category4xx               ErrorCategory = "4xx"
	Category5xx               ErrorCategory = "5xx"
	CategoryRedirectLoop      ErrorCategory = "redirect_loop"
	CategoryCancelled         ErrorCategory = "cancelled"
	CategoryInvalidArticle    ErrorCategory = "invalid_article"
	CategoryUnknown           ErrorCategory = "unknown"
)

var (
	// ErrRedirectLoop is wrapped by errors for requests that kept redirecting.
	ErrRedirectLoop = errors.New("redirect loop")
	// ErrInvalidArticle is wrapped by errors for encyclopedia URLs whose page
	// does not exist.
	ErrInvalidArticle = errors.New("not a valid article")
)

var categoryLabels = map[ErrorCategory]string{
	CategoryTimeout:           "Timeouts",
	CategoryDNSFailure:        "DNS Failures",
	CategoryConnectionRefused: "Connection Refused",
	Category4xx:               "Client Errors (4xx)",
	Category5xx:               "Server Errors (5xx)",
	CategoryRedirectLoop:      "Redirect Loops",
	CategoryCancelled:         "Cancelled",
	CategoryInvalidArticle:    "Invalid Articles",
}

// Categorize returns the category of a failed request. status is the
// response status, 0 when no response arrived. An error status takes
// precedence over err.
func Categorize(status int, err error) ErrorCategory {
	switch {
	case status >= 500:
		return Category5xx
	case status >= 400:
		return Category4xx
	case err == nil:
		return CategoryUnknown
	}

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, ErrRedirectLoop):
		return CategoryRedirectLoop
	case errors.Is(err, ErrInvalidArticle):
		return CategoryInvalidArticle
	case errors.Is(err, context.Canceled):
		return CategoryCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case errors.As(err, &dnsErr):
		return CategoryDNSFailure
	case errors.Is(err, syscall.ECONNREFUSED):
		return CategoryConnectionRefused
	case errors.As(err, &netErr) && netErr.Timeout():
		return CategoryTimeout
	default:
		return CategoryUnknown
	}
}

// NewErrorFailure builds the failure Result of a request that ended with
// err before any response. Cancellation messages start with "cancelled: ".
func NewErrorFailure(url string, err error) Result {
	category := Categorize(0, err)
	msg := err.Error()
	if category == CategoryCancelled {
		msg = "cancelled: " + msg
	}
	return NewFailure(url, category, msg)
}

// FormatCategory returns a human-readable label for an error category.
func FormatCategory(cat ErrorCategory) string {
	if label, ok := categoryLabels[cat]; ok {
		return label
	}
	return "Other Errors"
}
