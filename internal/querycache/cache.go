// Package querycache keeps the last resolved result per query key and
// collapses concurrent fetches of the same key into one upstream call.
package querycache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Key identifies a query: an operation name plus its parameters.
// Keys with different parameters are independent entries.
type Key struct {
	Op     string
	Params []string
}

func NewKey(op string, params ...string) Key {
	return Key{Op: op, Params: params}
}

// String renders the key as "Op:p1:p2".
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Op
	}
	return k.Op + ":" + strings.Join(k.Params, ":")
}

// State is what a consumer sees for a key. Data is nil until the first
// successful resolution and survives later failures, which land in Err.
type State struct {
	Data      any
	IsLoading bool
	Err       error
	UpdatedAt time.Time
}

type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	state      State
	generation uint64
}

type Cache struct {
	group     singleflight.Group
	mu        sync.Mutex
	entries   map[string]*entry
	staleTime time.Duration
	now       func() time.Time
	logger    *logrus.Entry
}

// New returns a cache. With staleTime 0 every Fetch revalidates.
func New(staleTime time.Duration, logger *logrus.Logger) *Cache {
	return &Cache{
		entries:   make(map[string]*entry),
		staleTime: staleTime,
		now:       time.Now,
		logger:    logger.WithField("component", "querycache"),
	}
}

// Fetch resolves key through fn, sharing one in-flight call among concurrent
// callers. A caller whose ctx ends stops waiting; the shared call continues.
func (c *Cache) Fetch(ctx context.Context, key Key, fn FetchFunc) State {
	name := key.String()

	c.mu.Lock()
	e, ok := c.entries[name]
	if !ok {
		e = &entry{}
		c.entries[name] = e
	}
	if c.staleTime > 0 && e.state.Data != nil && e.state.Err == nil && c.now().Sub(e.state.UpdatedAt) < c.staleTime {
		st := e.state
		c.mu.Unlock()
		return st
	}
	gen := e.generation
	e.state.IsLoading = true
	c.mu.Unlock()

	flightKey := name + "#" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		data, err := fn(context.WithoutCancel(ctx))
		c.store(name, gen, data, err)
		return data, err
	})

	select {
	case <-ch:
		return c.Peek(key)
	case <-ctx.Done():
		st := c.Peek(key)
		st.Err = ctx.Err()
		return st
	}
}

func (c *Cache) store(name string, gen uint64, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok || e.generation != gen {
		c.logger.WithField("key", name).Debug("Discarding result for invalidated key")
		return
	}

	e.state.IsLoading = false
	e.state.Err = err
	if err != nil {
		c.logger.WithError(err).WithField("key", name).Warn("Query failed")
		return
	}
	e.state.Data = data
	e.state.UpdatedAt = c.now()
}

// Peek returns the current state for key without fetching.
func (c *Cache) Peek(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key.String()]; ok {
		return e.state
	}
	return State{}
}

// Invalidate drops the entry. A fetch still in flight for it will not be stored.
func (c *Cache) Invalidate(key Key) {
	name := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[name]; ok {
		c.entries[name] = &entry{generation: e.generation + 1}
	}
}

// Query is Fetch with a typed result. On failure it returns the last good
// data, if any, together with the error.
func Query[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	st := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	data, _ := st.Data.(T)
	return data, st.Err
}
