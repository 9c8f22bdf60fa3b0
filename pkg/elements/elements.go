package elements

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/metrics"
	"github.com/vango-dev/payelements/pkg/provider"
	"github.com/vango-dev/payelements/pkg/reactive"
	"github.com/vango-dev/payelements/pkg/scope"
	"github.com/vango-dev/payelements/pkg/sdk"
)

// State is the elements state shared with widgets.
type State struct {
	// Group is the live group, nil while loading, after a failure and after
	// disposal.
	Group sdk.Group

	// Loading is true until the provider is ready and a group exists.
	Loading bool

	// Err is the provider load error or the group creation error.
	Err error
}

func stateEqual(a, b State) bool {
	return a.Loading == b.Loading && a.Group == b.Group && a.Err == b.Err
}

// Elements owns the single live elements group of its scope.
type Elements struct {
	scope    *scope.Scope
	provider *provider.Provider
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	group *reactive.Signal[sdk.Group]
	state *reactive.Signal[State]

	// pub publishes states in the order mu decided them, outside mu, so
	// subscribers may call back into the scope.
	pub reactive.Serial

	// mu guards the fields below.
	mu       sync.Mutex
	opts     Options
	handle   sdk.Handle
	current  sdk.Group
	gen      uint64
	disposed bool
}

var elementsKey = scope.NewKey[*Elements]("elements")

// New creates an elements scope under parent. It fails when parent has no
// provider above it. The group is created once the provider is ready.
func New(parent *scope.Scope, opts Options) (*Elements, error) {
	p, ok := provider.From(parent)
	if !ok {
		return nil, errors.New("P001").
			WithSuggestion("Create the elements scope under a provider scope")
	}

	logger := opts.Logger
	if logger == nil {
		logger = p.Logger()
	}

	s := scope.NewNamed(parent, "elements")
	ctx, cancel := context.WithCancel(context.Background())
	e := &Elements{
		scope:    s,
		provider: p,
		logger:   logger.With("component", "elements"),
		ctx:      ctx,
		cancel:   cancel,
		group:    reactive.NewSignal[sdk.Group](nil).WithEquals(reactive.Identity[sdk.Group]),
		state:    reactive.NewSignal(State{Loading: true}).WithEquals(stateEqual),
		opts:     opts,
	}
	elementsKey.Provide(s, e)
	s.OnCleanup(e.dispose)

	go e.start()
	return e, nil
}

// From returns the nearest elements scope above s.
func From(s *scope.Scope) (*Elements, bool) {
	return elementsKey.Inject(s)
}

// Scope returns the elements scope. Widgets are created under it.
func (e *Elements) Scope() *scope.Scope {
	return e.scope
}

// Provider returns the provider the group belongs to.
func (e *Elements) Provider() *provider.Provider {
	return e.provider
}

// Logger returns the elements logger.
func (e *Elements) Logger() *slog.Logger {
	return e.logger
}

// Context is cancelled when the scope is disposed.
func (e *Elements) Context() context.Context {
	return e.ctx
}

// Group returns the live group, or nil.
func (e *Elements) Group() sdk.Group {
	return e.group.Get()
}

// WatchGroup calls fn whenever the live group is replaced. fn receives nil
// before a replacement group is created, so widgets bound to the stale
// group can tear down first.
func (e *Elements) WatchGroup(fn func(sdk.Group)) (unsubscribe func()) {
	return e.group.Subscribe(fn)
}

// State returns the current state.
func (e *Elements) State() State {
	return e.state.Get()
}

// Watch calls fn after every state change.
func (e *Elements) Watch(fn func(State)) (unsubscribe func()) {
	return e.state.Subscribe(fn)
}

// Options returns the current options.
func (e *Elements) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// Wait blocks until the group is created or creation fails.
func (e *Elements) Wait(ctx context.Context) (sdk.Group, error) {
	wake := make(chan struct{}, 1)
	unsubscribe := e.state.Subscribe(func(State) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		st := e.state.Get()
		if !st.Loading {
			if st.Err != nil {
				return nil, st.Err
			}
			if st.Group == nil {
				return nil, errors.New("P053").WithDetail("The elements scope was disposed")
			}
			return st.Group, nil
		}
		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// SetOptions replaces the options. A new client secret or a new
// mode/currency/amount triple replaces the group: widgets see a nil group,
// destroy their stale instances, then recreate against the new group.
// Appearance, locale, fonts and payment method type changes are applied to
// the live group in place.
func (e *Elements) SetOptions(ctx context.Context, opts Options) error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return nil
	}
	old := e.opts
	e.opts = opts
	handle, current := e.handle, e.current
	e.mu.Unlock()

	if handle == nil {
		// Still loading; the load picks up the latest options.
		return nil
	}

	if current == nil || !sameIntent(old, opts) {
		e.logger.Debug("intent changed, replacing group")
		e.invalidate()
		return e.build(ctx, handle)
	}

	if sameLook(old, opts) {
		return nil
	}
	if err := current.Update(ctx, opts.SDKOptions()); err != nil {
		e.logger.Warn("group update failed", "error", err)
		return err
	}
	return nil
}

// ConfirmPayment confirms the payment with the details collected by the
// widgets of the live group. An empty ClientSecret defaults to the scope's.
func (e *Elements) ConfirmPayment(ctx context.Context, params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	group, err := e.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if params.ClientSecret == "" {
		params.ClientSecret = e.Options().ClientSecret
	}
	return e.provider.ConfirmPayment(ctx, group, params)
}

// ConfirmSetup confirms a setup intent with the live group.
func (e *Elements) ConfirmSetup(ctx context.Context, params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	group, err := e.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if params.ClientSecret == "" {
		params.ClientSecret = e.Options().ClientSecret
	}
	return e.provider.ConfirmSetup(ctx, group, params)
}

// Dispose disposes the scope and every widget under it.
func (e *Elements) Dispose() {
	e.scope.Dispose()
}

func (e *Elements) start() {
	handle, err := e.provider.Wait(e.ctx)
	if err != nil {
		e.mu.Lock()
		if !e.disposed {
			e.publish(State{Err: err})
		}
		e.mu.Unlock()
		e.pub.Flush()
		return
	}

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.handle = handle
	e.mu.Unlock()

	_ = e.build(e.ctx, handle)
}

// build creates a group from the current options. A build superseded by a
// later one, or finishing after disposal, publishes nothing.
func (e *Elements) build(ctx context.Context, handle sdk.Handle) error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return nil
	}
	e.gen++
	gen := e.gen
	opts := e.opts
	e.mu.Unlock()

	if err := opts.Validate(); err != nil {
		e.logger.Error("invalid elements options", "error", err)
		e.settle(gen, nil, err)
		return err
	}

	group, err := handle.Elements(ctx, opts.SDKOptions())
	if err != nil {
		err = errors.FromError(err, "P053")
		e.logger.Error("group creation failed", "error", err)
		e.settle(gen, nil, err)
		return err
	}
	metrics.RecordGroupCreated()
	e.settle(gen, group, nil)
	return nil
}

func (e *Elements) settle(gen uint64, group sdk.Group, err error) {
	e.mu.Lock()
	if !e.disposed && gen == e.gen {
		e.current = group
		e.publish(State{Group: group, Err: err})
	}
	e.mu.Unlock()
	e.pub.Flush()
}

// invalidate drops the live group and supersedes any in-flight build.
func (e *Elements) invalidate() {
	e.mu.Lock()
	e.gen++
	e.current = nil
	e.publish(State{Loading: true})
	e.mu.Unlock()
	e.pub.Flush()
}

// publish queues both signals to be set in one batch. Callers hold mu and
// call e.pub.Flush after releasing it.
func (e *Elements) publish(st State) {
	e.pub.Schedule(func() {
		reactive.Batch(func() {
			e.group.Set(st.Group)
			e.state.Set(st)
		})
	})
}

func (e *Elements) dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	e.cancel()
	e.current = nil
	e.publish(State{})
	e.mu.Unlock()
	e.pub.Flush()
}
