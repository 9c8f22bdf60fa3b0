package element

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/elements"
	"github.com/vango-dev/payelements/pkg/metrics"
	"github.com/vango-dev/payelements/pkg/reactive"
	"github.com/vango-dev/payelements/pkg/scope"
	"github.com/vango-dev/payelements/pkg/sdk"
)

// teardownTimeout bounds Off/Destroy calls made while tearing a widget
// down. Teardown may run after the elements context is cancelled.
const teardownTimeout = 5 * time.Second

// Config configures one controller instance.
type Config struct {
	// Slot is where the widget is mounted (a DOM selector on the client).
	Slot string

	// Options are the widget options. Binding defaults fill in missing keys.
	Options sdk.Options

	// Logger receives lifecycle logs. Default: the elements logger.
	Logger *slog.Logger
}

type subscription struct {
	name sdk.EventName
	id   sdk.HandlerID
}

type listener struct {
	id   uint64
	name sdk.EventName // empty for OnAny
	fn   sdk.Handler
}

// Controller creates, mounts, updates and destroys one widget against the
// live group of its elements scope, and re-emits the widget's events.
//
// The widget is created when a group is available and recreated when the
// group is replaced. Option changes are pushed to the live widget with
// Update and never recreate it.
type Controller struct {
	binding  Binding
	elements *elements.Elements
	scope    *scope.Scope
	logger   *slog.Logger
	slot     string

	status  *reactive.Signal[Status]
	options *reactive.Signal[sdk.Options]

	unsubElements func()
	unsubOptions  func()

	// gen invalidates in-flight creations and stale event handlers. It is
	// bumped on every group change and on Destroy.
	gen       atomic.Uint64
	destroyed atomic.Bool

	// mu guards the widget state below.
	mu       sync.Mutex
	group    sdk.Group
	widget   sdk.Widget
	subs     []subscription
	snapshot sdk.Options

	listenersMu sync.RWMutex
	listeners   []listener
	nextID      uint64
}

// New creates a controller for binding under parent. It fails immediately,
// naming the widget, when parent has no elements scope above it.
func New(parent *scope.Scope, binding Binding, cfg Config) (*Controller, error) {
	e, ok := elements.From(parent)
	if !ok {
		return nil, errors.New("P002").
			WithMessage("%s used outside of an elements scope", binding.Name).
			WithSuggestion("Create " + binding.Name + " under an elements scope")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = e.Logger()
	}

	c := &Controller{
		binding:  binding,
		elements: e,
		scope:    scope.NewNamed(parent, binding.Name),
		logger:   logger.With("widget", binding.Name, "kind", string(binding.Kind)),
		slot:     cfg.Slot,
		status:   reactive.NewSignal(Status{Phase: PhaseUninitialized, Loading: true}).WithEquals(statusEqual),
		options:  reactive.NewSignal(cfg.Options.WithDefaults(binding.Defaults)),
	}
	c.scope.OnCleanup(c.Destroy)

	c.unsubOptions = c.options.Subscribe(c.onOptions)
	c.unsubElements = e.Watch(c.follow)
	c.follow(e.State())
	return c, nil
}

// Binding returns the widget binding.
func (c *Controller) Binding() Binding {
	return c.binding
}

// Scope returns the controller scope.
func (c *Controller) Scope() *scope.Scope {
	return c.scope
}

// Status returns the current status.
func (c *Controller) Status() Status {
	return c.status.Get()
}

// Watch calls fn after every status change.
func (c *Controller) Watch(fn func(Status)) (unsubscribe func()) {
	return c.status.Subscribe(fn)
}

// Options returns the current options, defaults included.
func (c *Controller) Options() sdk.Options {
	return c.options.Get().Clone()
}

// Destroyed reports whether Destroy was called.
func (c *Controller) Destroyed() bool {
	return c.destroyed.Load()
}

// SetOptions replaces the widget options. When they differ deeply from the
// options last applied, the live widget receives one Update call. Calls
// made inside reactive.Batch coalesce into a single Update.
func (c *Controller) SetOptions(opts sdk.Options) {
	if c.destroyed.Load() {
		return
	}
	c.options.Set(opts.WithDefaults(c.binding.Defaults))
}

// On registers fn for events named name and returns a function removing it.
// Payloads are delivered exactly as the widget emitted them.
func (c *Controller) On(name sdk.EventName, fn sdk.Handler) (off func()) {
	if !c.binding.Supports(name) {
		c.logger.Warn("widget does not emit event", "event", string(name))
	}
	return c.addListener(name, fn)
}

// OnAny registers fn for every event the widget emits.
func (c *Controller) OnAny(fn sdk.Handler) (off func()) {
	return c.addListener("", fn)
}

func (c *Controller) addListener(name sdk.EventName, fn sdk.Handler) func() {
	c.listenersMu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, name: name, fn: fn})
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) emit(ev sdk.Event) {
	c.listenersMu.RLock()
	var fns []sdk.Handler
	for _, l := range c.listeners {
		if l.name == "" || l.name == ev.EventName() {
			fns = append(fns, l.fn)
		}
	}
	c.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Focus focuses the widget. It does nothing, with a warning, before the
// widget exists.
func (c *Controller) Focus(ctx context.Context) error {
	f, ok := c.capability("focus").(sdk.Focuser)
	if !ok {
		return nil
	}
	return f.Focus(ctx)
}

// Blur removes focus from the widget. It does nothing, with a warning,
// before the widget exists.
func (c *Controller) Blur(ctx context.Context) error {
	f, ok := c.capability("blur").(sdk.Focuser)
	if !ok {
		return nil
	}
	return f.Blur(ctx)
}

// Clear clears the widget input. It does nothing, with a warning, before
// the widget exists.
func (c *Controller) Clear(ctx context.Context) error {
	cl, ok := c.capability("clear").(sdk.Clearer)
	if !ok {
		return nil
	}
	return cl.Clear(ctx)
}

func (c *Controller) capability(op string) sdk.Widget {
	c.mu.Lock()
	w := c.widget
	c.mu.Unlock()
	if w == nil {
		c.logger.Warn("no widget instance", "op", op)
	}
	return w
}

// Destroy destroys the widget, removes its event subscriptions and stops
// following the group and options. It is safe to call more than once.
func (c *Controller) Destroy() {
	if !c.destroyed.CompareAndSwap(false, true) {
		return
	}
	c.gen.Add(1)

	c.unsubElements()
	c.unsubOptions()

	c.mu.Lock()
	w, subs := c.widget, c.subs
	c.widget, c.subs, c.group = nil, nil, nil
	c.mu.Unlock()

	if w != nil {
		c.teardown(w, subs)
		metrics.RecordWidgetDestroyed(string(c.binding.Kind))
	}

	c.listenersMu.Lock()
	c.listeners = nil
	c.listenersMu.Unlock()

	c.status.Set(Status{Phase: PhaseUninitialized})
	c.scope.Dispose()
}

// follow tracks the elements state. A failed elements scope (provider load
// error, missing intent, group creation failure) ends loading and surfaces
// the failure so the widget can render its error region.
func (c *Controller) follow(st elements.State) {
	if c.destroyed.Load() {
		return
	}
	c.bind(st.Group)
	if st.Group != nil || st.Loading || st.Err == nil {
		return
	}
	c.logger.Warn("elements unavailable", "error", st.Err)
	c.status.Set(Status{
		Phase:     PhaseUninitialized,
		LastError: errors.MessageOf(st.Err),
		Err:       st.Err,
	})
}

// bind follows the live group. A replaced group tears the stale widget
// down and starts a new creation; a nil group leaves the controller
// uninitialized until the next group arrives.
func (c *Controller) bind(g sdk.Group) {
	if c.destroyed.Load() {
		return
	}

	c.mu.Lock()
	if g == c.group {
		c.mu.Unlock()
		return
	}
	stale, subs := c.widget, c.subs
	c.widget, c.subs, c.group = nil, nil, g
	gen := c.gen.Add(1)
	c.mu.Unlock()

	if stale != nil {
		c.logger.Debug("group replaced, recreating widget")
		metrics.RecordWidgetRecreate(string(c.binding.Kind))
		c.teardown(stale, subs)
		metrics.RecordWidgetDestroyed(string(c.binding.Kind))
	}

	c.status.Set(Status{Phase: PhaseUninitialized, Loading: true})
	if g != nil {
		go c.create(gen, g)
	}
}

func (c *Controller) current(gen uint64) bool {
	return !c.destroyed.Load() && c.gen.Load() == gen
}

// setStatus applies fn to the status unless gen is stale.
func (c *Controller) setStatus(gen uint64, fn func(Status) Status) {
	c.status.Update(func(cur Status) Status {
		if !c.current(gen) {
			return cur
		}
		return fn(cur)
	})
}

// create runs creation, mount and event subscription, in that order. A
// result that arrives after Destroy or after a group change is torn down
// without touching controller state.
func (c *Controller) create(gen uint64, g sdk.Group) {
	opts := c.options.Get().Clone()
	c.mu.Lock()
	if !c.current(gen) {
		c.mu.Unlock()
		return
	}
	c.snapshot = opts
	c.mu.Unlock()

	c.setStatus(gen, func(Status) Status {
		return Status{Phase: PhaseCreating, Loading: true}
	})

	ctx := c.elements.Context()
	kind := c.binding.Kind

	w, err := g.Create(ctx, kind, opts)
	if err != nil {
		c.fail(gen, "create", errors.New("P050").
			WithMessage("%s creation failed", c.binding.Name).Wrap(err), err)
		return
	}
	if !c.current(gen) {
		c.teardown(w, nil)
		return
	}

	if err := w.Mount(ctx, c.slot); err != nil {
		c.teardown(w, nil)
		c.fail(gen, "mount", errors.New("P051").
			WithMessage("%s mount failed", c.binding.Name).Wrap(err), err)
		return
	}

	subs := make([]subscription, 0, len(c.binding.Events))
	for _, name := range c.binding.Events {
		id := w.On(name, c.dispatch(gen))
		subs = append(subs, subscription{name: name, id: id})
	}

	c.mu.Lock()
	if !c.current(gen) {
		c.mu.Unlock()
		c.logger.Debug("discarding widget created after teardown")
		c.teardown(w, subs)
		return
	}
	c.widget, c.subs = w, subs
	c.mu.Unlock()

	metrics.RecordWidgetCreated(string(kind))
	c.logger.Debug("widget mounted", "slot", c.slot)

	// Options set while creation was in flight.
	c.onOptions(c.options.Get())
}

func (c *Controller) fail(gen uint64, stage string, err *errors.Error, cause error) {
	if !c.current(gen) {
		return
	}
	metrics.RecordWidgetError(string(c.binding.Kind), stage)
	c.logger.Error("widget "+stage+" failed", "error", cause)
	c.setStatus(gen, func(Status) Status {
		return Status{Phase: PhaseFailed, LastError: cause.Error(), Err: err}
	})
}

// dispatch returns the handler subscribed on the widget for generation gen.
func (c *Controller) dispatch(gen uint64) sdk.Handler {
	return func(ev sdk.Event) {
		if !c.current(gen) {
			return
		}
		switch ev := ev.(type) {
		case sdk.ReadyEvent:
			c.setStatus(gen, func(cur Status) Status {
				cur.Phase = PhaseReady
				cur.Loading = false
				return cur
			})
		case sdk.ChangeEvent:
			c.setStatus(gen, func(cur Status) Status {
				if ev.Error != nil {
					cur.LastError = ev.Error.Message
					cur.Err = errors.New("P052").WithMessage("%s", ev.Error.Message).WithDetail(ev.Error.Code)
				} else {
					cur.LastError = ""
					cur.Err = nil
				}
				return cur
			})
			if ev.Error != nil {
				metrics.RecordWidgetError(string(c.binding.Kind), "input")
			}
		case sdk.LoadErrorEvent:
			c.logger.Warn("widget load error", "error", ev.Error.Message)
		}
		c.emit(ev)
	}
}

// onOptions pushes opts to the live widget when they differ from the last
// applied snapshot.
func (c *Controller) onOptions(opts sdk.Options) {
	c.mu.Lock()
	w := c.widget
	if w == nil || c.destroyed.Load() || reactive.DeepEqual(opts, c.snapshot) {
		c.mu.Unlock()
		return
	}
	c.snapshot = opts.Clone()
	c.mu.Unlock()

	u, ok := w.(sdk.Updater)
	if !ok {
		c.logger.Warn("widget does not support option updates")
		return
	}
	if err := u.Update(c.elements.Context(), opts.Clone()); err != nil {
		c.logger.Warn("widget update failed", "error", err)
		return
	}
	metrics.RecordWidgetUpdate(string(c.binding.Kind))
}

func (c *Controller) teardown(w sdk.Widget, subs []subscription) {
	for _, s := range subs {
		w.Off(s.name, s.id)
	}
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := w.Destroy(ctx); err != nil {
		c.logger.Warn("widget destroy failed", "error", err)
	}
}
