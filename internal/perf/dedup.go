package perf

import (
	"sync"
	"time"
)

// Deduplicator collapses concurrent identical requests into a single
// execution: while a call for a key is in flight, further calls with the
// same key wait on it and share its result. Completed results are retained
// for a TTL window, then evicted lazily on the next call.
type Deduplicator struct {
	mu    sync.Mutex
	calls map[string]*dedupCall
	ttl   time.Duration
}

type dedupCall struct {
	done      chan struct{}
	value     interface{}
	err       error
	expiresAt time.Time
}

// NewDeduplicator creates a deduplicator retaining completed results for ttl.
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	return &Deduplicator{
		calls: make(map[string]*dedupCall),
		ttl:   ttl,
	}
}

// Do executes fn for key, unless an identical call is in flight or a result
// from within the retention window exists; in either case the shared result
// is returned and fn is not invoked.
func (d *Deduplicator) Do(key string, fn func() (interface{}, error)) (interface{}, error) {
	d.mu.Lock()

	if call, ok := d.calls[key]; ok {
		select {
		case <-call.done:
			// Completed earlier; honor it while inside the retention window.
			if time.Now().Before(call.expiresAt) {
				d.mu.Unlock()
				return call.value, call.err
			}
			delete(d.calls, key)
		default:
			// In flight; wait for it.
			d.mu.Unlock()
			<-call.done
			return call.value, call.err
		}
	}

	call := &dedupCall{done: make(chan struct{})}
	d.calls[key] = call
	d.mu.Unlock()

	call.value, call.err = fn()

	d.mu.Lock()
	call.expiresAt = time.Now().Add(d.ttl)
	close(call.done)
	d.mu.Unlock()

	return call.value, call.err
}

// Forget drops any retained result for key.
func (d *Deduplicator) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if call, ok := d.calls[key]; ok {
		select {
		case <-call.done:
			delete(d.calls, key)
		default:
			// Leave in-flight calls alone; their waiters hold the channel.
		}
	}
}

// Pending returns the number of tracked keys (in flight plus retained).
func (d *Deduplicator) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}
