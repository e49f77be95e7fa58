/*
Package poller keeps keyed values fresh by re-fetching them on a fixed
interval and whenever a focus signal arrives.

The first Subscribe for a key starts a refresh loop for it; the last
unsubscribe stops it. Results land in an explicit Cache that callers
construct and can inspect directly. Overlapping fetches for the same key
are coalesced, so at most one request per key is in flight.

Usage:

	cache := poller.NewCache[Snapshot]()
	p := poller.New(fetch, cache, poller.Options{Interval: 15 * time.Second})
	defer p.Close()

	unsubscribe := p.Subscribe("/api/transaction?userId=42", func(e poller.Entry[Snapshot]) {
	    render(e)
	})
	defer unsubscribe()

	go p.ListenFocus(ctx, focusEvents)
*/
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultInterval is used when Options.Interval is zero.
const DefaultInterval = 15 * time.Second

// Fetcher loads the value stored under key.
type Fetcher[T any] func(ctx context.Context, key string) (T, error)

type Options struct {
	Interval time.Duration
	Logger   *zap.Logger
	// Now is used for Entry.UpdatedAt; defaults to time.Now.
	Now func() time.Time
}

type Poller[T any] struct {
	fetch    Fetcher[T]
	cache    *Cache[T]
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	group singleflight.Group
	wg    sync.WaitGroup

	mu     sync.Mutex
	nextID int
	keys   map[string]*subscription[T]
	closed bool
}

type subscription[T any] struct {
	ctx       context.Context
	cancel    context.CancelFunc
	trigger   chan struct{}
	listeners map[int]func(Entry[T])
}

func New[T any](fetch Fetcher[T], cache *Cache[T], opts Options) *Poller[T] {
	if fetch == nil {
		panic("fetch is required")
	}
	if cache == nil {
		cache = NewCache[T]()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Poller[T]{
		fetch:    fetch,
		cache:    cache,
		interval: opts.Interval,
		log:      opts.Logger,
		now:      opts.Now,
		keys:     make(map[string]*subscription[T]),
	}
}

// Cache returns the cache the poller writes into.
func (p *Poller[T]) Cache() *Cache[T] {
	return p.cache
}

// Subscribe registers fn for every update of key and returns a function that
// removes it. fn runs on the poller's goroutines and must not block; the
// Entry it receives is shared and must be treated as read-only.
func (p *Poller[T]) Subscribe(key string, fn func(Entry[T])) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return func() {}
	}

	sub, ok := p.keys[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		sub = &subscription[T]{
			ctx:       ctx,
			cancel:    cancel,
			trigger:   make(chan struct{}, 1),
			listeners: make(map[int]func(Entry[T])),
		}
		p.keys[key] = sub
		p.wg.Add(1)
		go p.loop(sub, key)
	}

	id := p.nextID
	p.nextID++
	if fn != nil {
		sub.listeners[id] = fn
	} else {
		sub.listeners[id] = func(Entry[T]) {}
	}

	var once sync.Once
	return func() {
		once.Do(func() { p.unsubscribe(key, sub, id) })
	}
}

func (p *Poller[T]) unsubscribe(key string, sub *subscription[T], id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(sub.listeners, id)
	if len(sub.listeners) == 0 && p.keys[key] == sub {
		sub.cancel()
		delete(p.keys, key)
	}
}

func (p *Poller[T]) loop(sub *subscription[T], key string) {
	defer p.wg.Done()

	_, _ = p.revalidate(sub.ctx, key)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.revalidate(sub.ctx, key)
		case <-sub.trigger:
			_, _ = p.revalidate(sub.ctx, key)
		}
	}
}

// Revalidate fetches key now, outside the regular interval, and returns the
// resulting entry together with its fault. If ctx ends before the fetch
// completes, the cached entry is returned unchanged along with ctx.Err().
func (p *Poller[T]) Revalidate(ctx context.Context, key string) (Entry[T], error) {
	e, err := p.revalidate(ctx, key)
	if err != nil && ctx.Err() == nil {
		// Joined a fetch started under another, now canceled, context.
		e, err = p.revalidate(ctx, key)
	}
	if err != nil {
		return e, err
	}
	return e, e.Err
}

// revalidate returns a non-nil error only when the fetch was abandoned
// because ctx ended; fetch faults are recorded in the entry instead.
func (p *Poller[T]) revalidate(ctx context.Context, key string) (Entry[T], error) {
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		data, err := p.fetch(ctx, key)

		// An abandoned fetch is not a fault of the key.
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			e, _ := p.cache.Get(key)
			return e, ctx.Err()
		}

		var e Entry[T]
		if err != nil {
			p.log.Warn("revalidation failed", zap.String("key", key), zap.Error(err))
			e = p.cache.Fail(key, err, p.now())
		} else {
			e = p.cache.Set(key, data, p.now())
		}
		p.notify(key, e)
		return e, nil
	})
	return v.(Entry[T]), err
}

func (p *Poller[T]) notify(key string, e Entry[T]) {
	p.mu.Lock()
	sub, ok := p.keys[key]
	var listeners []func(Entry[T])
	if ok {
		listeners = make([]func(Entry[T]), 0, len(sub.listeners))
		for _, fn := range sub.listeners {
			listeners = append(listeners, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
}

// Focus asks every subscribed key to revalidate. Signals arriving while a
// revalidation is already pending are merged.
func (p *Poller[T]) Focus() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, sub := range p.keys {
		select {
		case sub.trigger <- struct{}{}:
		default:
		}
	}
}

// ListenFocus calls Focus for every value received on signals until ctx is
// done or signals is closed.
func (p *Poller[T]) ListenFocus(ctx context.Context, signals <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			p.Focus()
		}
	}
}

// Subscribed reports whether key currently has a refresh loop.
func (p *Poller[T]) Subscribed(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.keys[key]
	return ok
}

// Close stops every refresh loop and waits for them to exit.
func (p *Poller[T]) Close() {
	p.mu.Lock()
	p.closed = true
	for key, sub := range p.keys {
		sub.cancel()
		delete(p.keys, key)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
