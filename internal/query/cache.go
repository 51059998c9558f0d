// Package query caches server-fetched results by key with per-class
// staleness, stale-while-revalidate reads, per-key fetch de-duplication,
// and declarative invalidation after successful writes.
package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var errNotInFlight = errors.New("query: no fetch in flight")

// Status is the lifecycle state of a cache entry.
type Status int

const (
	StatusPending Status = iota // First fetch in flight, no value yet.
	StatusFresh                 // Value fetched within its staleness window.
	StatusStale                 // Window elapsed or invalidated; next read refetches.
	StatusError                 // Last fetch failed.
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is a snapshot of one cached query.
type Entry struct {
	Key       Key
	Value     any
	HasValue  bool
	Status    Status
	Err       error
	FetchedAt time.Time
	Fetching  bool
}

// Loading reports whether there is nothing to show yet.
func (e Entry) Loading() bool {
	return !e.HasValue && (e.Status == StatusPending || e.Fetching)
}

// Value returns the entry's value as T.
func Value[T any](e Entry) (T, bool) {
	var zero T
	if !e.HasValue {
		return zero, false
	}
	v, ok := e.Value.(T)
	return v, ok
}

// FetchFunc loads the value for a key from the server.
type FetchFunc func(ctx context.Context) (any, error)

// Fetcher adapts a typed fetch function to FetchFunc.
func Fetcher[T any](fn func(ctx context.Context) (T, error)) FetchFunc {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

// MutateFunc performs a remote write.
type MutateFunc func(ctx context.Context) (any, error)

type entry struct {
	key       Key
	value     any
	hasValue  bool
	status    Status
	err       error
	fetchedAt time.Time
	gen       uint64 // changes on creation and every invalidation
	inflight  bool   // a fetch for gen is running
	flight    uint64 // singleflight id of the latest fetch
	cancel    context.CancelFunc
}

func (e *entry) snapshot() Entry {
	return Entry{
		Key:       append(Key(nil), e.key...),
		Value:     e.value,
		HasValue:  e.hasValue,
		Status:    e.status,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Fetching:  e.inflight,
	}
}

// Cache is the process-wide query cache. It is safe for concurrent use.
type Cache struct {
	mu            sync.Mutex
	entries       map[string]*entry
	seq           uint64
	group         singleflight.Group
	refresh       map[string]time.Duration
	invalidations InvalidationTable
	listeners     []func(Entry)
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithRefresh sets the staleness window per key class. Classes not
// listed are fetched once and never go stale on their own.
func WithRefresh(refresh map[string]time.Duration) Option {
	return func(c *Cache) {
		c.refresh = make(map[string]time.Duration, len(refresh))
		for k, v := range refresh {
			c.refresh[k] = v
		}
	}
}

// WithInvalidations replaces the invalidation table.
func WithInvalidations(t InvalidationTable) Option {
	return func(c *Cache) { c.invalidations = t }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates an empty Cache with DefaultInvalidations and the
// default event refresh windows.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		refresh: map[string]time.Duration{
			ClassEvents: 4 * time.Minute,
			ClassEvent:  4 * time.Minute,
		},
		invalidations: DefaultInvalidations(),
		now:           time.Now,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUpdate registers fn to receive a snapshot whenever a fetch settles or
// an entry is invalidated. fn runs on the goroutine that caused the change
// and must not block.
func (c *Cache) OnUpdate(fn func(Entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// RefreshInterval returns the staleness window for key, or 0.
func (c *Cache) RefreshInterval(key Key) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh[key.Class()]
}

// Read returns the current entry for key without blocking.
// A missing entry is created pending and one fetch starts. A fresh entry
// is served as is. A stale or failed entry keeps its last value and
// refetches in the background. Concurrent reads share one fetch.
func (c *Cache) Read(ctx context.Context, key Key, fetch FetchFunc) Entry {
	snap, _ := c.read(ctx, key, fetch)
	return snap
}

// Load is Read, except that when no value has been fetched yet it waits
// for the in-flight fetch (or ctx) and returns the settled entry.
func (c *Cache) Load(ctx context.Context, key Key, fetch FetchFunc) Entry {
	snap, ch := c.read(ctx, key, fetch)
	if snap.HasValue || ch == nil {
		return snap
	}
	select {
	case <-ch:
	case <-ctx.Done():
	}
	if e, ok := c.Peek(key); ok {
		return e
	}
	return snap
}

// Wait blocks until the fetch in flight for key, if any, settles or ctx
// is done, and returns the latest entry. It never starts a fetch.
func (c *Cache) Wait(ctx context.Context, key Key) (Entry, bool) {
	c.mu.Lock()
	e, ok := c.entries[key.id()]
	if !ok {
		c.mu.Unlock()
		return Entry{}, false
	}
	var ch <-chan singleflight.Result
	if e.inflight {
		ch = c.joinLocked(e)
	}
	c.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
		}
	}
	return c.Peek(key)
}

// read applies the read policy under the lock. It returns the snapshot
// and the channel of the fetch now serving key, if any.
func (c *Cache) read(ctx context.Context, key Key, fetch FetchFunc) (Entry, <-chan singleflight.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := key.id()
	e, ok := c.entries[id]
	if !ok {
		c.seq++
		e = &entry{key: append(Key(nil), key...), status: StatusPending, gen: c.seq}
		c.entries[id] = e
	}
	c.expireLocked(e)

	var ch <-chan singleflight.Result
	switch {
	case e.inflight:
		ch = c.joinLocked(e)
	case e.status == StatusFresh:
	default:
		ch = c.startLocked(ctx, e, fetch)
	}
	return e.snapshot(), ch
}

// Peek returns the entry for key without fetching.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok {
		return Entry{}, false
	}
	c.expireLocked(e)
	return e.snapshot(), true
}

// Write runs mutate exactly once. On success every entry under the
// prefixes registered for kind is marked stale before Write returns.
// On failure nothing is invalidated and the error is returned.
func (c *Cache) Write(ctx context.Context, kind MutationKind, mutate MutateFunc) (any, error) {
	v, err := mutate(ctx)
	if err != nil {
		c.logger.Info("mutation failed", "kind", string(kind), "error", err)
		return nil, err
	}
	c.mu.Lock()
	prefixes := c.invalidations[kind]
	c.mu.Unlock()
	n := c.Invalidate(prefixes...)
	c.logger.Debug("mutation succeeded", "kind", string(kind), "invalidated", n)
	return v, nil
}

// Invalidate marks every entry under any of prefixes stale and cancels
// fetches started before the invalidation. It returns the number of
// entries affected.
func (c *Cache) Invalidate(prefixes ...Key) int {
	c.mu.Lock()
	var snaps []Entry
	for _, e := range c.entries {
		if !matchesAny(e.key, prefixes) {
			continue
		}
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		c.seq++
		e.gen = c.seq
		e.inflight = false
		e.status = StatusStale
		snaps = append(snaps, e.snapshot())
	}
	c.mu.Unlock()

	for _, s := range snaps {
		c.notify(s)
	}
	return len(snaps)
}

// Clear drops every entry and cancels in-flight fetches.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.cancel != nil {
			e.cancel()
		}
	}
	c.entries = make(map[string]*entry)
}

// expireLocked moves a fresh entry past its window to stale.
func (c *Cache) expireLocked(e *entry) {
	if e.status != StatusFresh {
		return
	}
	window := c.refresh[e.key.Class()]
	if window > 0 && c.now().Sub(e.fetchedAt) >= window {
		e.status = StatusStale
	}
}

// startLocked begins a fetch for e's current generation. The fetch runs
// detached from the caller's cancellation since later readers may share
// it; only invalidation or Clear cancels it.
func (c *Cache) startLocked(ctx context.Context, e *entry, fetch FetchFunc) <-chan singleflight.Result {
	c.seq++
	e.flight = c.seq
	e.inflight = true
	if !e.hasValue {
		e.status = StatusPending
	}
	key, gen, flight := e.key, e.gen, e.flight
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	c.logger.Debug("cache fetch", "key", key.String(), "gen", gen)
	return c.group.DoChan(flightKey(key.id(), flight), func() (any, error) {
		defer cancel()
		v, err := fetch(fctx)
		c.complete(key, gen, v, err)
		return v, err
	})
}

// joinLocked attaches to the fetch in flight for e. complete needs c.mu
// before the flight returns, so the flight is still registered and fn
// never runs. Every start gets a new flight id, so a finished flight that
// is still unwinding is never joined by the next start.
func (c *Cache) joinLocked(e *entry) <-chan singleflight.Result {
	return c.group.DoChan(flightKey(e.key.id(), e.flight), func() (any, error) {
		return nil, errNotInFlight
	})
}

// complete records a fetch result. Results for an outdated generation
// are dropped.
func (c *Cache) complete(key Key, gen uint64, v any, err error) {
	c.mu.Lock()
	e, ok := c.entries[key.id()]
	if !ok || e.gen != gen {
		c.mu.Unlock()
		c.logger.Debug("dropping outdated fetch result", "key", key.String(), "gen", gen)
		return
	}
	e.inflight = false
	e.cancel = nil
	if err != nil {
		e.status = StatusError
		e.err = err
		c.logger.Warn("cache fetch failed", "key", key.String(), "error", err)
	} else {
		e.value = v
		e.hasValue = true
		e.status = StatusFresh
		e.err = nil
		e.fetchedAt = c.now()
	}
	snap := e.snapshot()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Cache) notify(e Entry) {
	c.mu.Lock()
	listeners := append([]func(Entry){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(e)
	}
}

func matchesAny(k Key, prefixes []Key) bool {
	for _, p := range prefixes {
		if k.HasPrefix(p) {
			return true
		}
	}
	return false
}

func flightKey(id string, flight uint64) string {
	return id + "#" + strconv.FormatUint(flight, 10)
}
