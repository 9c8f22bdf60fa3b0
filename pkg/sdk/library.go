package sdk

import (
	"context"
	"sync"

	"github.com/vango-dev/payelements/internal/errors"
)

// Library is the process-wide SDK slot. It holds the configured Loader and
// caches one Handle per publishable key and load options, so every provider
// scope for the same key shares one loaded SDK. Concurrent loads of the same
// key wait for the first one. Failed loads are not cached; a new provider
// scope starts a fresh attempt.
type Library struct {
	mu       sync.Mutex
	loader   Loader
	handles  map[string]Handle
	inflight map[string]*loadCall
}

type loadCall struct {
	done   chan struct{}
	handle Handle
	err    error
}

var (
	defaultLibrary   *Library
	defaultLibraryMu sync.Mutex
)

// NewLibrary creates a library that loads through loader.
func NewLibrary(loader Loader) *Library {
	return &Library{
		loader:   loader,
		handles:  make(map[string]Handle),
		inflight: make(map[string]*loadCall),
	}
}

// DefaultLibrary returns the process-wide library, creating it on first use.
func DefaultLibrary() *Library {
	defaultLibraryMu.Lock()
	defer defaultLibraryMu.Unlock()

	if defaultLibrary == nil {
		defaultLibrary = NewLibrary(nil)
	}
	return defaultLibrary
}

// SetDefaultLoader configures the loader of the process-wide library and
// drops any cached handles.
func SetDefaultLoader(loader Loader) {
	DefaultLibrary().SetLoader(loader)
}

// ResetLibrary discards the process-wide library. Tests call it for
// isolation; the next DefaultLibrary call starts from an empty slot.
func ResetLibrary() {
	defaultLibraryMu.Lock()
	defer defaultLibraryMu.Unlock()
	defaultLibrary = nil
}

// SetLoader replaces the loader and clears cached handles.
func (l *Library) SetLoader(loader Loader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loader = loader
	l.handles = make(map[string]Handle)
}

// Cached reports whether a handle for key and opts is cached.
func (l *Library) Cached(publicKey string, opts LoadOptions) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.handles[opts.cacheKey(publicKey)]
	return ok
}

// Load implements Loader.
func (l *Library) Load(ctx context.Context, publicKey string, opts LoadOptions) (Handle, error) {
	key := opts.cacheKey(publicKey)

	l.mu.Lock()
	if h, ok := l.handles[key]; ok {
		l.mu.Unlock()
		return h, nil
	}
	if c, ok := l.inflight[key]; ok {
		l.mu.Unlock()
		return c.wait(ctx)
	}
	loader := l.loader
	if loader == nil {
		l.mu.Unlock()
		return nil, errors.New("P011").WithDetail("no SDK loader configured")
	}
	c := &loadCall{done: make(chan struct{})}
	l.inflight[key] = c
	l.mu.Unlock()

	c.handle, c.err = loader.Load(ctx, publicKey, opts)
	if c.err == nil && c.handle == nil {
		c.err = errors.New("P012")
	}

	l.mu.Lock()
	delete(l.inflight, key)
	if c.err == nil {
		l.handles[key] = c.handle
	}
	l.mu.Unlock()
	close(c.done)

	return c.handle, c.err
}

func (c *loadCall) wait(ctx context.Context) (Handle, error) {
	select {
	case <-c.done:
		return c.handle, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
