package urlutil

import "testing"

func TestScheme(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"http", "http://example.com", "http"},
		{"upper case", "HTTPS://Example.com", "https"},
		{"mailto", "mailto:user@example.com", "mailto"},
		{"scheme with plus", "svn+ssh://host/repo", "svn+ssh"},
		{"relative path", "docs/index.html", ""},
		{"fragment only", "#top", ""},
		{"leading digit", "1http://example.com", ""},
		{"empty", "", ""},
		{"colon first", "://invalid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Scheme(tt.input); got != tt.want {
				t.Errorf("Scheme(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsHTTPScheme(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "https scheme", input: "https://example.com", expected: true},
		{name: "http scheme", input: "http://example.com", expected: true},
		{name: "mailto scheme", input: "mailto:user@example.com", expected: false},
		{name: "tel scheme", input: "tel:+1234567890", expected: false},
		{name: "javascript scheme", input: "javascript:void(0)", expected: false},
		{name: "ftp scheme", input: "ftp://files.example.com", expected: false},
		{name: "empty string", input: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsHTTPScheme(tt.input)
			if got != tt.expected {
				t.Errorf("IsHTTPScheme(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSecureCounterpart(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "http upgraded",
			input:  "http://en.example.org/wiki/Lorem_ipsum",
			want:   "https://en.example.org/wiki/Lorem_ipsum",
			wantOK: true,
		},
		{
			name:   "https unchanged",
			input:  "https://example.com/a?b=c#d",
			want:   "https://example.com/a?b=c#d",
			wantOK: true,
		},
		{
			name:   "upper case http keeps the rest byte for byte",
			input:  "HTTP://Example.com/Path",
			want:   "https://Example.com/Path",
			wantOK: true,
		},
		{
			name:   "mailto not applicable",
			input:  "mailto:user@example.com",
			wantOK: false,
		},
		{
			name:   "relative not applicable",
			input:  "../index.html",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SecureCounterpart(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("SecureCounterpart(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("SecureCounterpart(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
