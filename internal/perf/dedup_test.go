package perf

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeduplicator_CollapsesConcurrentCalls(t *testing.T) {
	d := NewDeduplicator(time.Minute)

	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]interface{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := d.Do("metrics", func() (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 42, nil
			})
			if err != nil {
				t.Errorf("Do() error = %v", err)
			}
			results[i] = v
		}(i)
	}

	// Give the goroutines a moment to pile onto the same key.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fn invoked %d times, want 1", got)
	}
	for i, v := range results {
		if v.(int) != 42 {
			t.Errorf("results[%d] = %v, want 42", i, v)
		}
	}
}

func TestDeduplicator_RetainsResultForTTL(t *testing.T) {
	d := NewDeduplicator(time.Minute)

	var calls int32
	fn := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	}

	if _, err := d.Do("k", fn); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if _, err := d.Do("k", fn); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fn invoked %d times within retention window, want 1", got)
	}
}

func TestDeduplicator_EvictsAfterTTL(t *testing.T) {
	d := NewDeduplicator(10 * time.Millisecond)

	var calls int32
	fn := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	}

	d.Do("k", fn)
	time.Sleep(20 * time.Millisecond)
	d.Do("k", fn)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("fn invoked %d times across retention windows, want 2", got)
	}
}

func TestDeduplicator_Forget(t *testing.T) {
	d := NewDeduplicator(time.Minute)

	var calls int32
	fn := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	}

	d.Do("k", fn)
	d.Forget("k")
	d.Do("k", fn)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("fn invoked %d times after Forget, want 2", got)
	}
}

func TestDeduplicator_DistinctKeysRunIndependently(t *testing.T) {
	d := NewDeduplicator(time.Minute)

	var calls int32
	fn := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}

	d.Do("a", fn)
	d.Do("b", fn)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("fn invoked %d times for two keys, want 2", got)
	}
	if got := d.Pending(); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}
}
