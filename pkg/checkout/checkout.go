package checkout

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/metrics"
	"github.com/vango-dev/payelements/pkg/provider"
	"github.com/vango-dev/payelements/pkg/reactive"
	"github.com/vango-dev/payelements/pkg/scope"
)

// Checkout redirects the buyer to a hosted checkout page, once per trigger.
type Checkout struct {
	opts     Options
	mode     Mode
	provider *provider.Provider
	scope    *scope.Scope
	logger   *slog.Logger

	loading  *reactive.Signal[bool]
	inFlight atomic.Bool
	disposed atomic.Bool

	mu       sync.Mutex
	lastErr  error
	handlers []func(error)
}

// New creates a checkout control under parent. Options are validated
// immediately. Session and price checkouts need a provider scope above
// parent; URL checkouts do not.
func New(parent *scope.Scope, opts Options) (*Checkout, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	mode := opts.Kind()
	p, ok := provider.From(parent)
	if !ok && mode != ModeURL {
		return nil, errors.New("P003").
			WithSuggestion("Create the checkout under a provider scope, or use URL mode")
	}

	logger := opts.Logger
	if logger == nil {
		if p != nil {
			logger = p.Logger()
		} else {
			logger = slog.Default()
		}
	}

	c := &Checkout{
		opts:     opts,
		mode:     mode,
		provider: p,
		scope:    scope.NewNamed(parent, "checkout"),
		logger:   logger.With("component", "checkout", "mode", string(mode)),
		loading:  reactive.NewSignal(false),
	}
	c.scope.OnCleanup(func() { c.disposed.Store(true) })
	return c, nil
}

// Mode returns how the checkout is identified.
func (c *Checkout) Mode() Mode {
	return c.mode
}

// Loading reports whether a redirect is in flight.
func (c *Checkout) Loading() bool {
	return c.loading.Get()
}

// WatchLoading calls fn whenever the loading flag changes.
func (c *Checkout) WatchLoading(fn func(bool)) (unsubscribe func()) {
	return c.loading.Subscribe(fn)
}

// Err returns the error of the last redirect, or nil.
func (c *Checkout) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// OnError registers fn to receive every redirect failure.
func (c *Checkout) OnError(fn func(error)) (off func()) {
	c.mu.Lock()
	c.handlers = append(c.handlers, fn)
	idx := len(c.handlers) - 1
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.handlers[idx] = nil
		})
	}
}

// Dispose disposes the checkout scope. Later triggers are ignored.
func (c *Checkout) Dispose() {
	c.scope.Dispose()
}

// Redirect performs the redirect. A trigger while another redirect is in
// flight is ignored and returns nil. Failures are not retried; they are
// passed to OnError handlers and returned.
func (c *Checkout) Redirect(ctx context.Context) error {
	if c.disposed.Load() {
		c.logger.Warn("redirect triggered after dispose")
		return nil
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		c.logger.Debug("redirect already in flight")
		return nil
	}

	c.loading.Set(true)
	err := c.redirect(ctx)

	c.mu.Lock()
	c.lastErr = err
	var handlers []func(error)
	if err != nil {
		for _, h := range c.handlers {
			if h != nil {
				handlers = append(handlers, h)
			}
		}
	}
	c.mu.Unlock()

	c.loading.Set(false)
	c.inFlight.Store(false)

	if err != nil {
		metrics.RecordRedirect(string(c.mode), "error")
		c.logger.Error("checkout redirect failed", "error", err)
		for _, h := range handlers {
			h(err)
		}
		return err
	}
	metrics.RecordRedirect(string(c.mode), "ok")
	return nil
}

func (c *Checkout) redirect(ctx context.Context) error {
	if c.mode == ModeURL {
		if err := c.opts.Navigator.Navigate(ctx, c.opts.URL); err != nil {
			return errors.New("P040").Wrap(err)
		}
		return nil
	}

	handle, err := c.provider.Wait(ctx)
	if err != nil {
		return errors.New("P040").WithDetail("The provider is not ready").Wrap(err)
	}

	res, err := handle.RedirectToCheckout(ctx, c.opts.redirectOptions())
	if err != nil {
		return errors.New("P040").Wrap(err)
	}
	if res != nil && res.Error != nil {
		return errors.New("P041").
			WithMessage("%s", res.Error.Message).
			WithDetail(res.Error.Code)
	}
	return nil
}
