package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetcher returns the call number for every key, or err when set.
type countingFetcher struct {
	calls atomic.Int64
	mu    sync.Mutex
	err   error
}

func (f *countingFetcher) fetch(_ context.Context, _ string) (int, error) {
	n := int(f.calls.Add(1))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return n, nil
}

func (f *countingFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func TestCache_FailKeepsLastGoodValue(t *testing.T) {
	c := NewCache[string]()
	now := time.Now()

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v1", now)
	e := c.Fail("k", errors.New("boom"), now.Add(time.Second))

	assert.Equal(t, "v1", e.Data)
	assert.True(t, e.HasData)
	assert.EqualError(t, e.Err, "boom")

	e = c.Set("k", "v2", now.Add(2*time.Second))
	assert.NoError(t, e.Err)
	assert.Equal(t, "v2", e.Data)

	c.Delete("k")
	assert.Equal(t, 0, c.Len())
}

func TestPoller_SubscribeFetchesImmediatelyAndOnInterval(t *testing.T) {
	f := &countingFetcher{}
	p := New(f.fetch, nil, Options{Interval: 20 * time.Millisecond})
	defer p.Close()

	updates := make(chan Entry[int], 16)
	unsubscribe := p.Subscribe("a", func(e Entry[int]) {
		select {
		case updates <- e:
		default:
		}
	})
	defer unsubscribe()

	select {
	case e := <-updates:
		assert.Equal(t, 1, e.Data)
		assert.True(t, e.HasData)
	case <-time.After(time.Second):
		t.Fatal("no initial fetch")
	}

	assert.Eventually(t, func() bool { return f.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	e, ok := p.Cache().Get("a")
	require.True(t, ok)
	assert.GreaterOrEqual(t, e.Data, 2)
}

func TestPoller_UnsubscribeStopsPolling(t *testing.T) {
	f := &countingFetcher{}
	p := New(f.fetch, nil, Options{Interval: 10 * time.Millisecond})
	defer p.Close()

	unsubscribe := p.Subscribe("a", nil)
	assert.Eventually(t, func() bool { return f.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	unsubscribe()
	unsubscribe()
	assert.False(t, p.Subscribed("a"))

	// Let an in-flight tick drain before sampling.
	time.Sleep(30 * time.Millisecond)
	before := f.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, before, f.calls.Load())
}

func TestPoller_SharedKeyRunsOneLoop(t *testing.T) {
	f := &countingFetcher{}
	p := New(f.fetch, nil, Options{Interval: time.Hour})
	defer p.Close()

	var got1, got2 atomic.Int64
	unsub1 := p.Subscribe("a", func(e Entry[int]) { got1.Add(1) })
	unsub2 := p.Subscribe("a", func(e Entry[int]) { got2.Add(1) })

	assert.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	unsub1()
	assert.True(t, p.Subscribed("a"))
	unsub2()
	assert.False(t, p.Subscribed("a"))
}

func TestPoller_FocusRevalidatesSubscribedKeys(t *testing.T) {
	f := &countingFetcher{}
	p := New(f.fetch, nil, Options{Interval: time.Hour})
	defer p.Close()

	defer p.Subscribe("a", nil)()
	defer p.Subscribe("b", nil)()
	assert.Eventually(t, func() bool { return f.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan struct{})
	go p.ListenFocus(ctx, signals)

	signals <- struct{}{}
	assert.Eventually(t, func() bool { return f.calls.Load() == 4 }, time.Second, 5*time.Millisecond)
}

func TestPoller_RevalidateDeduplicatesConcurrentCalls(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	fetch := func(ctx context.Context, key string) (int, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return 7, nil
	}
	p := New(fetch, nil, Options{Interval: time.Hour})
	defer p.Close()

	var wg sync.WaitGroup
	results := make([]Entry[int], 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = p.Revalidate(context.Background(), "a")
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = p.Revalidate(context.Background(), "a")
	}()

	// Give the second caller time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 7, results[0].Data)
	assert.Equal(t, 7, results[1].Data)
}

func TestPoller_FailureKeepsDataAndRecoveryClearsError(t *testing.T) {
	f := &countingFetcher{}
	p := New(f.fetch, nil, Options{Interval: time.Hour})
	defer p.Close()

	e, err := p.Revalidate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Data)

	f.setErr(errors.New("503"))
	e, err = p.Revalidate(context.Background(), "a")
	assert.EqualError(t, err, "503")
	assert.True(t, e.HasData)
	assert.Equal(t, 1, e.Data)

	f.setErr(nil)
	e, err = p.Revalidate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 3, e.Data)
	assert.NoError(t, e.Err)
}

func TestPoller_CanceledFetchIsNotRecorded(t *testing.T) {
	fetch := func(ctx context.Context, key string) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	p := New(fetch, nil, Options{Interval: time.Hour})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := p.Revalidate(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, e.HasData)
	assert.NoError(t, e.Err)
	_, ok := p.Cache().Get("a")
	assert.False(t, ok)
}

func TestPoller_RevalidateDeadlineKeepsCachedEntry(t *testing.T) {
	var slow atomic.Bool
	fetch := func(ctx context.Context, key string) (int, error) {
		if slow.Load() {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 7, nil
	}
	p := New(fetch, nil, Options{Interval: time.Hour})
	defer p.Close()

	_, err := p.Revalidate(context.Background(), "a")
	require.NoError(t, err)

	slow.Store(true)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	e, err := p.Revalidate(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 7, e.Data)
	assert.NoError(t, e.Err)

	cached, _ := p.Cache().Get("a")
	assert.NoError(t, cached.Err)
	assert.Equal(t, 7, cached.Data)
}

func TestPoller_CloseStopsLoops(t *testing.T) {
	f := &countingFetcher{}
	p := New(f.fetch, nil, Options{Interval: 5 * time.Millisecond})

	p.Subscribe("a", nil)
	p.Subscribe("b", nil)
	assert.Eventually(t, func() bool { return f.calls.Load() >= 2 }, time.Second, time.Millisecond)

	p.Close()
	before := f.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, f.calls.Load())

	// Subscribing after Close is a no-op.
	p.Subscribe("c", nil)()
	assert.False(t, p.Subscribed("c"))
}
