package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// failStore errors on every operation, simulating a broken disk.
type failStore struct{}

func (failStore) Get(string) (Entry, bool, error) { return Entry{}, false, errors.New("disk gone") }
func (failStore) Put(string, Entry) error         { return errors.New("disk gone") }
func (failStore) Delete(string) error             { return errors.New("disk gone") }
func (failStore) Keys() ([]string, error)         { return nil, errors.New("disk gone") }
func (failStore) Close() error                    { return nil }

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	c := New(NewMemoryStore(), ttl)
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetOrRender_HitWithinTTL(t *testing.T) {
	t.Parallel()
	c, now := newTestCache(time.Hour)

	var calls atomic.Int32
	renderFn := func(context.Context) (string, error) {
		calls.Add(1)
		return "content", nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.GetOrRender(context.Background(), "k", renderFn)
		if err != nil {
			t.Fatal(err)
		}
		if got != "content" {
			t.Fatalf("got %q", got)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 render, got %d", calls.Load())
	}

	// Just before expiry: still a hit.
	*now = now.Add(time.Hour - time.Second)
	if _, err := c.GetOrRender(context.Background(), "k", renderFn); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected hit just before expiry, got %d renders", calls.Load())
	}
}

func TestGetOrRender_ExpiryTriggersExactlyOneRerender(t *testing.T) {
	t.Parallel()
	c, now := newTestCache(time.Hour)

	var calls atomic.Int32
	renderFn := func(context.Context) (string, error) {
		return fmt.Sprintf("v%d", calls.Add(1)), nil
	}

	got, _ := c.GetOrRender(context.Background(), "k", renderFn)
	if got != "v1" {
		t.Fatalf("got %q", got)
	}

	*now = now.Add(time.Hour) // now == stored_at + ttl: expired
	got, err := c.GetOrRender(context.Background(), "k", renderFn)
	if err != nil {
		t.Fatal(err)
	}
	if got != "v2" {
		t.Errorf("expected re-render after expiry, got %q", got)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 renders, got %d", calls.Load())
	}
}

func TestGetOrRender_SingleFlight(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(time.Hour)

	const n = 16
	release := make(chan struct{})
	var calls atomic.Int32
	renderFn := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrRender(context.Background(), "k", renderFn)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected 1 render for %d concurrent callers, got %d", n, calls.Load())
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Errorf("caller %d got %q", i, results[i])
		}
	}
}

func TestGetOrRender_SingleFlightErrorReachesAllWaiters(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(time.Hour)

	const n = 16
	release := make(chan struct{})
	renderErr := errors.New("engine timeout")
	var calls atomic.Int32
	failing := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "", renderErr
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetOrRender(context.Background(), "k", failing)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected 1 render for %d concurrent callers, got %d", n, calls.Load())
	}
	for i := 0; i < n; i++ {
		if !errors.Is(errs[i], renderErr) {
			t.Errorf("caller %d: expected render error, got %v", i, errs[i])
		}
	}

	// The failure was not cached; a later call renders afresh.
	got, err := c.GetOrRender(context.Background(), "k", func(context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "recovered" {
		t.Errorf("got %q", got)
	}
}

func TestGetOrRender_ErrorPropagatesAndNothingCached(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(time.Hour)

	renderErr := errors.New("engine timeout")
	var calls atomic.Int32
	failing := func(context.Context) (string, error) {
		calls.Add(1)
		return "", renderErr
	}

	if _, err := c.GetOrRender(context.Background(), "k", failing); !errors.Is(err, renderErr) {
		t.Fatalf("expected render error, got %v", err)
	}

	// No negative caching: the next call is a fresh attempt.
	got, err := c.GetOrRender(context.Background(), "k", func(context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "recovered" {
		t.Errorf("got %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("failing render called %d times", calls.Load())
	}
}

func TestGetOrRender_StorageErrorsDegradeToMiss(t *testing.T) {
	t.Parallel()
	c := New(failStore{}, time.Hour)

	var calls atomic.Int32
	renderFn := func(context.Context) (string, error) {
		calls.Add(1)
		return "fresh", nil
	}

	for i := 0; i < 2; i++ {
		got, err := c.GetOrRender(context.Background(), "k", renderFn)
		if err != nil {
			t.Fatalf("storage failure must not surface: %v", err)
		}
		if got != "fresh" {
			t.Fatalf("got %q", got)
		}
	}
	// Every call re-renders because nothing can be stored.
	if calls.Load() != 2 {
		t.Errorf("expected 2 renders, got %d", calls.Load())
	}
}

func TestGetOrRender_DetachedFromCallerCancellation(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := c.GetOrRender(ctx, "k", func(renderCtx context.Context) (string, error) {
		if renderCtx.Err() != nil {
			return "", renderCtx.Err()
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("render must not observe caller cancellation: %v", err)
	}
	if got != "done" {
		t.Errorf("got %q", got)
	}
}

func TestInvalidate(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(time.Hour)

	var calls atomic.Int32
	renderFn := func(context.Context) (string, error) {
		calls.Add(1)
		return "content", nil
	}

	c.GetOrRender(context.Background(), "k", renderFn)
	c.Invalidate("k")
	c.Invalidate("k") // idempotent
	c.GetOrRender(context.Background(), "k", renderFn)

	if calls.Load() != 2 {
		t.Errorf("expected re-render after invalidation, got %d renders", calls.Load())
	}
}

func TestPurgeExpired(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	c := New(store, time.Hour)
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	store.Put("live", Entry{Content: "a", StoredAt: now.Unix(), TTLSeconds: 3600})
	store.Put("dead", Entry{Content: "b", StoredAt: now.Add(-2 * time.Hour).Unix(), TTLSeconds: 3600})

	if purged := c.PurgeExpired(); purged != 1 {
		t.Errorf("expected 1 purged, got %d", purged)
	}
	if _, ok, _ := store.Get("live"); !ok {
		t.Error("live entry must survive the sweep")
	}
	if _, ok, _ := store.Get("dead"); ok {
		t.Error("expired entry must be removed")
	}
}

func TestEntryValid(t *testing.T) {
	t.Parallel()
	stored := time.Unix(1000, 0)
	ent := Entry{StoredAt: stored.Unix(), TTLSeconds: 60}

	if !ent.Valid(stored.Add(59 * time.Second)) {
		t.Error("entry should be valid before ttl elapses")
	}
	if ent.Valid(stored.Add(60 * time.Second)) {
		t.Error("entry should be invalid once ttl has elapsed")
	}
}
