// Package result defines the outcome of resolving a single URL and the
// report built from a finished run.
package result

import "fmt"

// Classification is the final outcome tag for a URL.
type Classification string

const (
	Success  Classification = "success"
	Redirect Classification = "redirect"
	Replace  Classification = "replace"
	Failure  Classification = "failure"
	Ignored  Classification = "ignored"
)

// Classifications lists every classification in display order.
var Classifications = []Classification{Success, Redirect, Replace, Failure, Ignored}

// Tag returns the bracketed upper-case label printed next to a URL.
func (c Classification) Tag() string {
	switch c {
	case Success:
		return "[OK]"
	case Redirect:
		return "[REDIRECT]"
	case Replace:
		return "[REPLACE]"
	case Failure:
		return "[FAIL]"
	case Ignored:
		return "[IGNORED]"
	default:
		return "[?]"
	}
}

// Result is the outcome of resolving one URL.
// Build values with the constructors below: Location is only set for
// Redirect and Replace, Category only for Failure.
type Result struct {
	URL            string         `json:"url" yaml:"url"`
	Classification Classification `json:"classification" yaml:"classification"`
	Status         int            `json:"status,omitempty" yaml:"status,omitempty"`
	ReasonPhrase   string         `json:"reason_phrase,omitempty" yaml:"reason_phrase,omitempty"`
	Location       string         `json:"location,omitempty" yaml:"location,omitempty"`
	Category       ErrorCategory  `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Messages       []string       `json:"messages,omitempty" yaml:"messages,omitempty"`
	Warnings       []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Previous       []Result       `json:"previous,omitempty" yaml:"previous,omitempty"`
}

// NewSuccess returns a success Result for url.
func NewSuccess(url string, messages ...string) Result {
	return Result{URL: url, Classification: Success, Messages: messages}
}

// NewRedirect returns a redirect Result whose final target is location.
func NewRedirect(url, location string, messages ...string) Result {
	return Result{URL: url, Classification: Redirect, Location: location, Messages: messages}
}

// NewReplace returns a Result telling the caller to rewrite url as location.
func NewReplace(url, location string, messages ...string) Result {
	return Result{URL: url, Classification: Replace, Location: location, Messages: messages}
}

// NewFailure returns a failure Result with the given category and message.
func NewFailure(url string, category ErrorCategory, message string) Result {
	if category == "" {
		category = CategoryUnknown
	}
	return Result{URL: url, Classification: Failure, Category: category, Messages: []string{message}}
}

// NewIgnored returns a Result for a URL whose scheme is not checked.
func NewIgnored(url string) Result {
	return Result{URL: url, Classification: Ignored, Messages: []string{"scheme not checked"}}
}

// WithStatus records the HTTP status line.
func (r Result) WithStatus(status int, reason string) Result {
	r.Status = status
	r.ReasonPhrase = reason
	return r
}

// WithMessage appends a note.
func (r Result) WithMessage(format string, a ...any) Result {
	r.Messages = append(append([]string(nil), r.Messages...), fmt.Sprintf(format, a...))
	return r
}

// WithWarning appends a caveat.
func (r Result) WithWarning(format string, a ...any) Result {
	r.Warnings = append(append([]string(nil), r.Warnings...), fmt.Sprintf(format, a...))
	return r
}

// WithPrevious appends results that led to this one.
func (r Result) WithPrevious(prev ...Result) Result {
	r.Previous = append(append([]Result(nil), r.Previous...), prev...)
	return r
}

// Validate reports whether the fields present are valid for the classification.
func (r Result) Validate() error {
	switch r.Classification {
	case Redirect, Replace:
		if r.Location == "" {
			return fmt.Errorf("%s result for %s has no location", r.Classification, r.URL)
		}
	case Success, Failure, Ignored:
		if r.Location != "" {
			return fmt.Errorf("%s result for %s must not carry a location", r.Classification, r.URL)
		}
	default:
		return fmt.Errorf("unknown classification %q for %s", r.Classification, r.URL)
	}
	if r.Category != "" && r.Classification != Failure {
		return fmt.Errorf("%s result for %s must not carry an error category", r.Classification, r.URL)
	}
	return nil
}

// IsRewrite reports whether the document link should be rewritten.
func (r Result) IsRewrite() bool {
	return r.Classification == Replace || r.Classification == Redirect
}

// Summary holds per-classification counts for a finished run.
type Summary struct {
	Inputs   int `json:"inputs" yaml:"inputs"`
	Distinct int `json:"distinct" yaml:"distinct"`
	// FailedLinks counts distinct document hrefs classified failure. Derived
	// URLs such as a failing https counterpart are not included.
	FailedLinks int                    `json:"failed_links" yaml:"failed_links"`
	Counts      map[Classification]int `json:"counts" yaml:"counts"`
	Categories  map[ErrorCategory]int  `json:"failure_categories,omitempty" yaml:"failure_categories,omitempty"`
}

// Consistency is the registry bookkeeping check of a finished run.
type Consistency struct {
	Created    int      `json:"created" yaml:"created"`
	Assigned   int      `json:"assigned" yaml:"assigned"`
	Unassigned []string `json:"unassigned,omitempty" yaml:"unassigned,omitempty"`
}

// OK reports whether every created entry was assigned.
func (c Consistency) OK() bool {
	return c.Created == c.Assigned && len(c.Unassigned) == 0
}

// Report is the complete output of resolving a document's links.
type Report struct {
	Language     string            `json:"language" yaml:"language"`
	Results      []Result          `json:"results" yaml:"results"`
	Summary      Summary           `json:"summary" yaml:"summary"`
	Consistency  Consistency       `json:"consistency" yaml:"consistency"`
	Replacements map[string]string `json:"replacements" yaml:"replacements"`
}

// HasFailures reports whether any document href was classified failure.
func (r *Report) HasFailures() bool {
	return r != nil && r.Summary.FailedLinks > 0
}
