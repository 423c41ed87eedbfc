package perf

import (
	"sync"
	"time"
)

// Debounce wraps fn so that a burst of calls runs fn once, on the trailing
// edge, after the burst has been quiet for d. The returned stop function
// cancels any pending invocation.
func Debounce(d time.Duration, fn func()) (call func(), stop func()) {
	var mu sync.Mutex
	var timer *time.Timer

	call = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, fn)
	}

	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}

	return call, stop
}

// Throttle wraps fn so it runs at most once per interval, on the leading
// edge. Calls landing inside the interval are dropped.
func Throttle(interval time.Duration, fn func()) func() {
	var mu sync.Mutex
	var last time.Time

	return func() {
		mu.Lock()
		now := time.Now()
		if now.Sub(last) < interval {
			mu.Unlock()
			return
		}
		last = now
		mu.Unlock()
		fn()
	}
}
