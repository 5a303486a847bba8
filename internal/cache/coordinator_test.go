package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCoordinator_ConcurrentCallsComputeOnce(t *testing.T) {
	c := NewCoordinator(NewMemory(time.Minute), time.Minute)

	var computes int32
	started := make(chan struct{})

	compute := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&computes, 1)
		<-started // hold all callers in flight
		return []byte("value"), nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([][]byte, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrFetch(context.Background(), "same-key", compute)
		}(i)
	}

	// Give every caller time to either join the flight or hit the cache.
	time.Sleep(50 * time.Millisecond)
	close(started)
	wg.Wait()

	if got := atomic.LoadInt32(&computes); got != 1 {
		t.Errorf("expected exactly 1 compute, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error: %v", i, errs[i])
		}
		if string(results[i]) != "value" {
			t.Errorf("caller %d saw %q", i, results[i])
		}
	}
}

func TestCoordinator_DistinctKeysComputeIndependently(t *testing.T) {
	c := NewCoordinator(NewMemory(time.Minute), time.Minute)

	var computes int32
	for _, key := range []string{"a", "b", "c"} {
		_, err := c.GetOrFetch(context.Background(), key, func(ctx context.Context) ([]byte, error) {
			atomic.AddInt32(&computes, 1)
			return []byte(key), nil
		})
		if err != nil {
			t.Fatalf("GetOrFetch(%q) error = %v", key, err)
		}
	}

	if computes != 3 {
		t.Errorf("expected 3 computes, got %d", computes)
	}
}

func TestCoordinator_CachedValueSkipsCompute(t *testing.T) {
	c := NewCoordinator(NewMemory(time.Minute), time.Minute)

	var computes int32
	compute := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&computes, 1)
		return []byte("cached"), nil
	}

	for i := 0; i < 5; i++ {
		val, err := c.GetOrFetch(context.Background(), "key", compute)
		if err != nil {
			t.Fatalf("GetOrFetch() error = %v", err)
		}
		if string(val) != "cached" {
			t.Errorf("unexpected value %q", val)
		}
	}

	if computes != 1 {
		t.Errorf("expected 1 compute across repeated calls, got %d", computes)
	}
}

func TestCoordinator_FailuresAreNotCached(t *testing.T) {
	c := NewCoordinator(NewMemory(time.Minute), time.Minute)

	calls := 0
	boom := errors.New("fetch failed")
	compute := func(ctx context.Context) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return []byte("recovered"), nil
	}

	if _, err := c.GetOrFetch(context.Background(), "key", compute); !errors.Is(err, boom) {
		t.Fatalf("expected first call to fail, got %v", err)
	}

	val, err := c.GetOrFetch(context.Background(), "key", compute)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if string(val) != "recovered" {
		t.Errorf("unexpected value %q", val)
	}
	if calls != 2 {
		t.Errorf("expected compute to run twice, got %d", calls)
	}
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)

	if err := m.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok, _ := m.Get(context.Background(), "k"); !ok {
		t.Fatal("expected fresh entry to be present")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := m.Get(context.Background(), "k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	m := NewMemory(0)
	_ = m.Set(context.Background(), "k", []byte("v"), 0)

	time.Sleep(10 * time.Millisecond)

	if _, ok, _ := m.Get(context.Background(), "k"); !ok {
		t.Error("zero-TTL store must retain entries")
	}
}
