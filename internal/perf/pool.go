package perf

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("pool is closed")
	// ErrAcquireTimeout is returned when no client frees up in time.
	ErrAcquireTimeout = errors.New("timed out waiting for a pooled client")
)

// Client is anything the pool can hand out and eventually close.
type Client interface {
	Close() error
}

// Factory produces a new pooled client.
type Factory func() (Client, error)

// Pool is a bounded client pool. Acquire returns an idle client or dials a
// new one up to Max; at Max, callers queue in FIFO order and time out after
// AcquireTimeout. Release hands the client to the oldest waiter, or closes
// it when the pool holds more than Min clients.
type Pool struct {
	mu      sync.Mutex
	factory Factory
	min     int
	max     int
	timeout time.Duration

	idle    []Client
	total   int
	waiters []chan Client
	closed  bool
}

// NewPool creates a pool with the given bounds.
func NewPool(factory Factory, min, max int, acquireTimeout time.Duration) *Pool {
	if max <= 0 {
		max = 1
	}
	if min < 0 {
		min = 0
	}
	if min > max {
		min = max
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	return &Pool{
		factory: factory,
		min:     min,
		max:     max,
		timeout: acquireTimeout,
	}
}

// Acquire returns a client, dialing one if under the max bound, or waiting
// for a release otherwise.
func (p *Pool) Acquire(ctx context.Context) (Client, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	if n := len(p.idle); n > 0 {
		client := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return client, nil
	}

	if p.total < p.max {
		p.total++
		p.mu.Unlock()
		client, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.total--
			p.mu.Unlock()
			return nil, err
		}
		return client, nil
	}

	// At capacity: queue behind earlier waiters.
	waiter := make(chan Client, 1)
	p.waiters = append(p.waiters, waiter)
	p.mu.Unlock()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case client := <-waiter:
		// A nil handover means Close failed the queue.
		if client == nil {
			return nil, ErrPoolClosed
		}
		return client, nil
	case <-ctx.Done():
		p.abandonWaiter(waiter)
		return nil, ctx.Err()
	case <-timer.C:
		p.abandonWaiter(waiter)
		return nil, ErrAcquireTimeout
	}
}

// Release returns a client to the pool.
func (p *Pool) Release(client Client) {
	p.mu.Lock()

	if p.closed {
		p.total--
		p.mu.Unlock()
		client.Close()
		return
	}

	if len(p.waiters) > 0 {
		waiter := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.mu.Unlock()
		waiter <- client
		return
	}

	if p.total > p.min {
		p.total--
		p.mu.Unlock()
		client.Close()
		return
	}

	p.idle = append(p.idle, client)
	p.mu.Unlock()
}

// Close shuts the pool down, closing idle clients and failing queued
// waiters. Clients currently checked out are closed on Release.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	idle := p.idle
	p.idle = nil
	p.total -= len(idle)

	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}

	var firstErr error
	for _, c := range idle {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stats returns current pool occupancy.
func (p *Pool) Stats() (total, idle, waiting int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total, len(p.idle), len(p.waiters)
}

// abandonWaiter removes a timed-out waiter from the queue. If a client was
// handed over concurrently, it goes back into circulation.
func (p *Pool) abandonWaiter(waiter chan Client) {
	p.mu.Lock()
	for i, w := range p.waiters {
		if w == waiter {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			p.mu.Unlock()
			return
		}
	}
	p.mu.Unlock()

	// Not in the queue anymore: a release (or Close) already picked this
	// waiter, so a handover is guaranteed to arrive.
	if client := <-waiter; client != nil {
		p.Release(client)
	}
}
