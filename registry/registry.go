// Package registry is the deduplicating store of a run: it maps every
// distinct URL to a single-assignment result, counts creations and
// assignments, and keeps the audit list of every href seen.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	bloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/fmjrey/chkodf/result"
)

// ErrUnknownURL is returned by Await for a URL that was never registered.
var ErrUnknownURL = errors.New("url not registered")

// entry holds the eventual result of one URL. res is written once, before
// done is closed; readers only read it after done.
type entry struct {
	set  atomic.Bool
	done chan struct{}
	res  result.Result
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	seen    *bloom.BloomFilter
	groups  map[result.Classification][]string

	created  atomic.Int64
	assigned atomic.Int64

	inputsMu sync.Mutex
	inputs   []string
}

// expectedURLs sizes the bloom filter; a saturated filter only costs extra
// map lookups.
const expectedURLs = 10000

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		seen:    bloom.NewWithEstimates(expectedURLs, 0.001),
		groups:  make(map[result.Classification][]string),
	}
}

// Register ensures a pending entry exists for url and reports whether this
// call created it. Exactly one caller gets true per URL; that caller owns
// the work of determining the result, all others must Await.
func (r *Registry) Register(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[url]; ok {
		return false
	}
	r.entries[url] = &entry{done: make(chan struct{})}
	r.order = append(r.order, url)
	r.seen.AddString(url)
	r.created.Add(1)
	return true
}

// IsKnown reports whether url has been registered.
func (r *Registry) IsKnown(url string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// The bloom filter has no false negatives, so a miss skips the map.
	if !r.seen.TestString(url) {
		return false
	}
	_, ok := r.entries[url]
	return ok
}

func (r *Registry) lookup(url string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[url]
	return e, ok
}

// Await blocks until url's result is assigned or ctx is done.
// The caller must not be the owner of url, and two URLs must never await
// each other: the registry cannot detect either deadlock.
func (r *Registry) Await(ctx context.Context, url string) (result.Result, error) {
	e, ok := r.lookup(url)
	if !ok {
		return result.Result{}, fmt.Errorf("await %s: %w", url, ErrUnknownURL)
	}
	select {
	case <-e.done:
		return e.res, nil
	case <-ctx.Done():
		return result.Result{}, fmt.Errorf("await %s: %w", url, ctx.Err())
	}
}

// Result returns url's result if it has been assigned.
func (r *Registry) Result(url string) (result.Result, bool) {
	e, ok := r.lookup(url)
	if !ok {
		return result.Result{}, false
	}
	select {
	case <-e.done:
		return e.res, true
	default:
		return result.Result{}, false
	}
}

// Assign sets url's result if it is registered and still pending, and wakes
// every waiter. It reports whether res was stored; later assignments are
// no-ops and leave the first result unchanged.
func (r *Registry) Assign(url string, res result.Result) bool {
	e, ok := r.lookup(url)
	if !ok {
		return false
	}
	if !e.set.CompareAndSwap(false, true) {
		return false
	}
	e.res = res
	close(e.done)
	r.assigned.Add(1)

	r.mu.Lock()
	r.groups[res.Classification] = append(r.groups[res.Classification], url)
	r.mu.Unlock()
	return true
}

// RecordInput appends href to the audit list of every href seen, duplicates
// included.
func (r *Registry) RecordInput(href string) {
	r.inputsMu.Lock()
	defer r.inputsMu.Unlock()
	r.inputs = append(r.inputs, href)
}

// Inputs returns a copy of the audit list.
func (r *Registry) Inputs() []string {
	r.inputsMu.Lock()
	defer r.inputsMu.Unlock()
	return append([]string(nil), r.inputs...)
}

// Snapshot is a point-in-time copy of the registry.
type Snapshot struct {
	Created  int
	Assigned int
	// Results holds assigned results in registration order.
	Results []result.Result
	// Pending lists registered URLs without a result, in registration order.
	Pending []string
	Groups  map[result.Classification][]string
	Inputs  []string
}

// Snapshot copies the registry state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	order := append([]string(nil), r.order...)
	groups := make(map[result.Classification][]string, len(r.groups))
	for class, urls := range r.groups {
		groups[class] = append([]string(nil), urls...)
	}
	r.mu.RUnlock()

	snap := Snapshot{
		Created:  int(r.created.Load()),
		Assigned: int(r.assigned.Load()),
		Groups:   groups,
		Inputs:   r.Inputs(),
	}
	for _, url := range order {
		if res, ok := r.Result(url); ok {
			snap.Results = append(snap.Results, res)
		} else {
			snap.Pending = append(snap.Pending, url)
		}
	}
	return snap
}
