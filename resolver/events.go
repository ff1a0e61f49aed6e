package resolver

import "github.com/fmjrey/chkodf/result"

// Event reports one registry assignment.
type Event struct {
	Result   result.Result
	Resolved int // assignments so far, this one included
	Failed   int // failure assignments so far
}
