package provider

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/metrics"
	"github.com/vango-dev/payelements/pkg/reactive"
	"github.com/vango-dev/payelements/pkg/scope"
	"github.com/vango-dev/payelements/pkg/sdk"
)

const tracerName = "payelements"

// LibraryVersion is reported in the default app info.
var LibraryVersion = "0.1.0"

// DefaultAppInfo is registered on every loaded handle unless Options.AppInfo
// overrides it.
var DefaultAppInfo = sdk.AppInfo{
	Name: "payelements",
	URL:  "https://payelements.dev",
}

// Options configure a provider scope.
type Options struct {
	// PublicKey is the publishable key. Required.
	PublicKey string

	// AccountID loads the SDK on behalf of a connected account.
	AccountID string

	// APIVersion pins the provider API version.
	APIVersion string

	// Locale sets the SDK locale.
	Locale string

	// Loader loads the SDK. Default: sdk.DefaultLibrary().
	Loader sdk.Loader

	// AppInfo is registered after a successful load. Default: DefaultAppInfo.
	AppInfo *sdk.AppInfo

	// Context bounds the load. Default: context.Background().
	Context context.Context

	// Logger receives lifecycle logs. Default: slog.Default().
	Logger *slog.Logger
}

// State is the provider state shared with descendants.
type State struct {
	// Handle is the loaded SDK, nil until ready and after disposal.
	Handle sdk.Handle

	// Loading is true until the load settles.
	Loading bool

	// Err is the load failure, if any.
	Err error
}

// Ready reports whether the handle is available.
func (s State) Ready() bool {
	return s.Handle != nil
}

// Message returns the load failure message as reported by the loader, or ""
// when there is no failure.
func (s State) Message() string {
	if s.Err == nil {
		return ""
	}
	return errors.MessageOf(s.Err)
}

func stateEqual(a, b State) bool {
	return a.Loading == b.Loading && a.Handle == b.Handle && a.Err == b.Err
}

// Provider loads the SDK once per scope and exposes its state to the
// subtree. The state machine is loading -> ready or loading -> error, both
// terminal; there is no retry. A new provider scope starts a new attempt.
type Provider struct {
	scope  *scope.Scope
	opts   Options
	logger *slog.Logger
	state  *reactive.Signal[State]

	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once

	// mu serializes state transitions with disposal.
	mu       sync.Mutex
	disposed bool

	// pub publishes the state outside mu, so a Watch callback may dispose
	// the provider or call back into it.
	pub reactive.Serial

	resultMu sync.Mutex
	result   State
}

var providerKey = scope.NewKey[*Provider]("provider")

// New creates a provider scope under parent and starts loading the SDK in
// the background. An empty PublicKey fails immediately.
func New(parent *scope.Scope, opts Options) (*Provider, error) {
	if opts.PublicKey == "" {
		return nil, errors.New("P010").
			WithSuggestion("Pass the publishable key (pk_test_... or pk_live_...) in provider.Options.PublicKey")
	}
	if opts.Loader == nil {
		opts.Loader = sdk.DefaultLibrary()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := scope.NewNamed(parent, "provider")
	ctx, cancel := context.WithCancel(opts.Context)

	p := &Provider{
		scope:  s,
		opts:   opts,
		logger: logger.With("component", "provider"),
		state:  reactive.NewSignal(State{Loading: true}).WithEquals(stateEqual),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	providerKey.Provide(s, p)
	s.OnCleanup(p.dispose)

	go p.load(ctx)
	return p, nil
}

// From returns the nearest provider above s.
func From(s *scope.Scope) (*Provider, bool) {
	return providerKey.Inject(s)
}

// Scope returns the provider scope. Descendants are created under it.
func (p *Provider) Scope() *scope.Scope {
	return p.scope
}

// Logger returns the provider logger.
func (p *Provider) Logger() *slog.Logger {
	return p.logger
}

// State returns the current state. Once the load settles it agrees with
// Wait, even before Watch callbacks have run.
func (p *Provider) State() State {
	select {
	case <-p.done:
		p.resultMu.Lock()
		defer p.resultMu.Unlock()
		return p.result
	default:
		return p.state.Get()
	}
}

// Handle returns the loaded handle, or nil.
func (p *Provider) Handle() sdk.Handle {
	return p.State().Handle
}

// Watch calls fn after every state change.
func (p *Provider) Watch(fn func(State)) (unsubscribe func()) {
	return p.state.Subscribe(fn)
}

// Done is closed when the load settles or the scope is disposed.
func (p *Provider) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the load settles and returns the handle or the load
// error.
func (p *Provider) Wait(ctx context.Context) (sdk.Handle, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	p.resultMu.Lock()
	st := p.result
	p.resultMu.Unlock()
	if st.Err != nil {
		return nil, st.Err
	}
	if st.Handle == nil {
		return nil, errors.New("P012").WithDetail("The provider scope was disposed")
	}
	return st.Handle, nil
}

// Dispose disposes the provider scope and every descendant.
func (p *Provider) Dispose() {
	p.scope.Dispose()
}

func (p *Provider) dispose() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	p.cancel()
	p.settle(State{})
	p.mu.Unlock()
	p.pub.Flush()
}

// settle records the final state and releases waiters, then queues the
// state for subscribers. Callers hold mu and call p.pub.Flush after
// releasing it.
func (p *Provider) settle(st State) {
	p.resultMu.Lock()
	p.result = st
	p.resultMu.Unlock()
	p.doneOnce.Do(func() { close(p.done) })
	p.pub.Schedule(func() { p.state.Set(st) })
}

func (p *Provider) load(ctx context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "payelements.provider.load",
		trace.WithAttributes(
			attribute.String("payelements.account_id", p.opts.AccountID),
			attribute.String("payelements.api_version", p.opts.APIVersion),
			attribute.String("payelements.locale", p.opts.Locale),
		),
	)
	defer span.End()

	start := time.Now()
	handle, err := p.opts.Loader.Load(ctx, p.opts.PublicKey, sdk.LoadOptions{
		StripeAccount: p.opts.AccountID,
		APIVersion:    p.opts.APIVersion,
		Locale:        p.opts.Locale,
	})
	if err == nil && handle == nil {
		err = errors.New("P012")
	}

	p.mu.Lock()
	defer p.pub.Flush()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}

	if err != nil {
		loadErr := errors.FromError(err, "P011")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordProviderLoad("error")
		p.logger.Error("sdk load failed",
			"error", err,
			"duration", time.Since(start),
		)
		p.settle(State{Err: loadErr})
		return
	}

	span.SetStatus(codes.Ok, "")
	metrics.RecordProviderLoad("ready")
	p.logger.Debug("sdk loaded", "duration", time.Since(start))
	p.settle(State{Handle: handle})

	go p.registerAppInfo(ctx, handle)
}

// registerAppInfo attributes API calls to this integration. Failures are
// logged and otherwise ignored.
func (p *Provider) registerAppInfo(ctx context.Context, handle sdk.Handle) {
	info := DefaultAppInfo
	if info.Version == "" {
		info.Version = LibraryVersion
	}
	if p.opts.AppInfo != nil {
		info = *p.opts.AppInfo
	}
	if err := handle.RegisterAppInfo(ctx, info); err != nil {
		p.logger.Warn("register app info failed", "error", err)
	}
}

// ConfirmPayment confirms a payment with the widgets of group. Provider
// failures such as card declines come back in the result.
func (p *Provider) ConfirmPayment(ctx context.Context, group sdk.Group, params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	handle, err := p.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return handle.ConfirmPayment(ctx, group, params)
}

// ConfirmSetup confirms a setup intent with the widgets of group.
func (p *Provider) ConfirmSetup(ctx context.Context, group sdk.Group, params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	handle, err := p.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return handle.ConfirmSetup(ctx, group, params)
}
