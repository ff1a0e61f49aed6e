package result

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestCategorize(t *testing.T) {
	refused := &url.Error{Op: "Head", URL: "http://127.0.0.1:1/", Err: &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}}

	tests := []struct {
		name   string
		status int
		err    error
		want   ErrorCategory
	}{
		{"not found", 404, nil, Category4xx},
		{"gone", 410, nil, Category4xx},
		{"bad gateway", 502, nil, Category5xx},
		{"status wins over error", 503, context.Canceled, Category5xx},
		{"redirect status is no failure category", 301, nil, CategoryUnknown},
		{"nothing known", 0, nil, CategoryUnknown},
		{"redirect loop", 0, fmt.Errorf("stopped after 10 redirects: %w", ErrRedirectLoop), CategoryRedirectLoop},
		{"invalid article", 0, ErrInvalidArticle, CategoryInvalidArticle},
		{"cancelled", 0, fmt.Errorf("await: %w", context.Canceled), CategoryCancelled},
		{"deadline", 0, &url.Error{Op: "Head", URL: "https://example.com/", Err: context.DeadlineExceeded}, CategoryTimeout},
		{"dns", 0, &net.DNSError{Err: "no such host", Name: "example.invalid"}, CategoryDNSFailure},
		{"connection refused", 0, refused, CategoryConnectionRefused},
		{"net timeout", 0, &url.Error{Op: "Head", URL: "https://example.com/", Err: timeoutError{}}, CategoryTimeout},
		{"other", 0, errors.New("tls: handshake failure"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.status, tt.err); got != tt.want {
				t.Errorf("Categorize(%d, %v) = %v, want %v", tt.status, tt.err, got, tt.want)
			}
		})
	}
}

func TestNewErrorFailure(t *testing.T) {
	res := NewErrorFailure("https://example.com/", fmt.Errorf("head: %w", context.Canceled))
	if res.Classification != Failure || res.Category != CategoryCancelled {
		t.Fatalf("got %s/%s, want failure/cancelled", res.Classification, res.Category)
	}
	if len(res.Messages) != 1 || res.Messages[0] != "cancelled: head: context canceled" {
		t.Errorf("messages = %q", res.Messages)
	}

	res = NewErrorFailure("https://en.example.org/wiki/Nowhere", ErrInvalidArticle)
	if res.Category != CategoryInvalidArticle {
		t.Errorf("category = %s, want %s", res.Category, CategoryInvalidArticle)
	}
	if len(res.Messages) != 1 || res.Messages[0] != "not a valid article" {
		t.Errorf("messages = %q", res.Messages)
	}
	if err := res.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestFormatCategory(t *testing.T) {
	for cat, want := range map[ErrorCategory]string{
		Category4xx:            "Client Errors (4xx)",
		CategoryInvalidArticle: "Invalid Articles",
		CategoryCancelled:      "Cancelled",
		CategoryUnknown:        "Other Errors",
		ErrorCategory("bogus"): "Other Errors",
	} {
		if got := FormatCategory(cat); got != want {
			t.Errorf("FormatCategory(%q) = %q, want %q", cat, got, want)
		}
	}
}
