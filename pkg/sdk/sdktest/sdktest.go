package sdktest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/payelements/pkg/sdk"
)

// Loader is a recording sdk.Loader.
type Loader struct {
	mu sync.Mutex

	handle *Handle
	err    error
	gate   chan struct{}

	calls []LoadCall
}

// LoadCall records one Load invocation.
type LoadCall struct {
	PublicKey string
	Options   sdk.LoadOptions
}

// NewLoader creates a loader that succeeds with a fresh Handle.
func NewLoader() *Loader {
	return &Loader{handle: NewHandle()}
}

// WithError makes every Load fail with err.
func (l *Loader) WithError(err error) *Loader {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
	return l
}

// WithGate makes Load block until Release is called or ctx ends.
func (l *Loader) WithGate() *Loader {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gate = make(chan struct{})
	return l
}

// Release unblocks gated loads.
func (l *Loader) Release() {
	l.mu.Lock()
	gate := l.gate
	l.gate = nil
	l.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// Handle returns the handle returned by successful loads.
func (l *Loader) Handle() *Handle {
	return l.handle
}

// Calls returns the recorded Load calls.
func (l *Loader) Calls() []LoadCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LoadCall(nil), l.calls...)
}

// Load implements sdk.Loader.
func (l *Loader) Load(ctx context.Context, publicKey string, opts sdk.LoadOptions) (sdk.Handle, error) {
	l.mu.Lock()
	l.calls = append(l.calls, LoadCall{PublicKey: publicKey, Options: opts})
	gate, err, h := l.gate, l.err, l.handle
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Handle is a recording sdk.Handle.
type Handle struct {
	mu sync.Mutex

	groups      []*Group
	elementsErr error

	appInfo []sdk.AppInfo

	redirects      []sdk.RedirectOptions
	redirectResult *sdk.RedirectResult
	redirectErr    error
	redirectGate   chan struct{}

	confirms      []sdk.ConfirmParams
	confirmResult *sdk.ConfirmResult
	confirmErr    error
}

// NewHandle creates an empty handle.
func NewHandle() *Handle {
	return &Handle{}
}

// FailElements makes Elements fail with err.
func (h *Handle) FailElements(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.elementsErr = err
}

// SetRedirectResult scripts the outcome of RedirectToCheckout.
func (h *Handle) SetRedirectResult(res *sdk.RedirectResult, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redirectResult, h.redirectErr = res, err
}

// GateRedirects makes RedirectToCheckout block until the returned function
// is called.
func (h *Handle) GateRedirects() (release func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	gate := make(chan struct{})
	h.redirectGate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// SetConfirmResult scripts the outcome of ConfirmPayment and ConfirmSetup.
func (h *Handle) SetConfirmResult(res *sdk.ConfirmResult, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.confirmResult, h.confirmErr = res, err
}

// Groups returns the groups created so far, oldest first.
func (h *Handle) Groups() []*Group {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Group(nil), h.groups...)
}

// LastGroup returns the newest group or nil.
func (h *Handle) LastGroup() *Group {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.groups) == 0 {
		return nil
	}
	return h.groups[len(h.groups)-1]
}

// AppInfo returns the registered app infos.
func (h *Handle) AppInfo() []sdk.AppInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]sdk.AppInfo(nil), h.appInfo...)
}

// Redirects returns the recorded redirect calls.
func (h *Handle) Redirects() []sdk.RedirectOptions {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]sdk.RedirectOptions(nil), h.redirects...)
}

// Confirms returns the recorded confirm calls.
func (h *Handle) Confirms() []sdk.ConfirmParams {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]sdk.ConfirmParams(nil), h.confirms...)
}

// Elements implements sdk.Handle.
func (h *Handle) Elements(ctx context.Context, opts sdk.ElementsOptions) (sdk.Group, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.elementsErr != nil {
		return nil, h.elementsErr
	}
	g := &Group{options: opts}
	h.groups = append(h.groups, g)
	return g, nil
}

// ConfirmPayment implements sdk.Handle.
func (h *Handle) ConfirmPayment(ctx context.Context, group sdk.Group, params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	return h.confirm(params)
}

// ConfirmSetup implements sdk.Handle.
func (h *Handle) ConfirmSetup(ctx context.Context, group sdk.Group, params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	return h.confirm(params)
}

func (h *Handle) confirm(params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.confirms = append(h.confirms, params)
	if h.confirmErr != nil {
		return nil, h.confirmErr
	}
	if h.confirmResult != nil {
		return h.confirmResult, nil
	}
	return &sdk.ConfirmResult{}, nil
}

// RedirectToCheckout implements sdk.Handle.
func (h *Handle) RedirectToCheckout(ctx context.Context, opts sdk.RedirectOptions) (*sdk.RedirectResult, error) {
	h.mu.Lock()
	h.redirects = append(h.redirects, opts)
	gate, res, err := h.redirectGate, h.redirectResult, h.redirectErr
	h.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &sdk.RedirectResult{}
	}
	return res, nil
}

// RegisterAppInfo implements sdk.Handle.
func (h *Handle) RegisterAppInfo(ctx context.Context, info sdk.AppInfo) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appInfo = append(h.appInfo, info)
	return nil
}

// CreateCall records one Group.Create invocation.
type CreateCall struct {
	Kind    sdk.Kind
	Options sdk.Options
}

// Group is a recording sdk.Group.
type Group struct {
	mu sync.Mutex

	options sdk.ElementsOptions
	updates []sdk.ElementsOptions

	createErr  error
	mountErr   error
	createGate chan struct{}

	calls   []CreateCall
	widgets []*Widget
}

// Options returns the options the group was created with.
func (g *Group) Options() sdk.ElementsOptions {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.options
}

// Updates returns the recorded group updates.
func (g *Group) Updates() []sdk.ElementsOptions {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sdk.ElementsOptions(nil), g.updates...)
}

// FailCreate makes Create fail with err.
func (g *Group) FailCreate(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createErr = err
}

// FailMount makes widgets created from now on fail Mount with err.
func (g *Group) FailMount(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mountErr = err
}

// GateCreate makes Create block until the returned function is called.
func (g *Group) GateCreate() (release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate := make(chan struct{})
	g.createGate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// CreateCalls returns the recorded Create calls.
func (g *Group) CreateCalls() []CreateCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]CreateCall(nil), g.calls...)
}

// Widgets returns the widgets created so far.
func (g *Group) Widgets() []*Widget {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Widget(nil), g.widgets...)
}

// LastWidget returns the newest widget or nil.
func (g *Group) LastWidget() *Widget {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.widgets) == 0 {
		return nil
	}
	return g.widgets[len(g.widgets)-1]
}

// Create implements sdk.Group.
func (g *Group) Create(ctx context.Context, kind sdk.Kind, opts sdk.Options) (sdk.Widget, error) {
	g.mu.Lock()
	g.calls = append(g.calls, CreateCall{Kind: kind, Options: opts.Clone()})
	gate := g.createGate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	w := &Widget{
		kind:     kind,
		group:    g,
		options:  opts.Clone(),
		mountErr: g.mountErr,
		handlers: make(map[sdk.EventName]map[sdk.HandlerID]sdk.Handler),
	}
	g.widgets = append(g.widgets, w)
	return w, nil
}

// Update implements sdk.Group.
func (g *Group) Update(ctx context.Context, opts sdk.ElementsOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, opts)
	return nil
}

// Widget is a recording sdk.Widget that also implements sdk.Updater,
// sdk.Focuser and sdk.Clearer.
type Widget struct {
	mu sync.Mutex

	kind     sdk.Kind
	group    *Group
	options  sdk.Options
	mountErr error

	slot     string
	mounts   int
	unmounts int
	destroys int
	updates  []sdk.Options
	focus    int
	blur     int
	clear    int

	handlers map[sdk.EventName]map[sdk.HandlerID]sdk.Handler
	nextID   sdk.HandlerID
}

// Kind implements sdk.Widget.
func (w *Widget) Kind() sdk.Kind { return w.kind }

// Group returns the group the widget was created from.
func (w *Widget) Group() *Group { return w.group }

// Options returns the creation options.
func (w *Widget) Options() sdk.Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.options
}

// Mount implements sdk.Widget.
func (w *Widget) Mount(ctx context.Context, slot string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mounts++
	if w.mountErr != nil {
		return w.mountErr
	}
	w.slot = slot
	return nil
}

// Unmount implements sdk.Widget.
func (w *Widget) Unmount(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unmounts++
	w.slot = ""
	return nil
}

// Destroy implements sdk.Widget.
func (w *Widget) Destroy(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroys++
	return nil
}

// On implements sdk.Widget.
func (w *Widget) On(name sdk.EventName, h sdk.Handler) sdk.HandlerID {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	if w.handlers[name] == nil {
		w.handlers[name] = make(map[sdk.HandlerID]sdk.Handler)
	}
	w.handlers[name][w.nextID] = h
	return w.nextID
}

// Off implements sdk.Widget.
func (w *Widget) Off(name sdk.EventName, id sdk.HandlerID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.handlers[name], id)
}

// Update implements sdk.Updater.
func (w *Widget) Update(ctx context.Context, opts sdk.Options) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates = append(w.updates, opts.Clone())
	return nil
}

// Focus implements sdk.Focuser.
func (w *Widget) Focus(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focus++
	return nil
}

// Blur implements sdk.Focuser.
func (w *Widget) Blur(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blur++
	return nil
}

// Clear implements sdk.Clearer.
func (w *Widget) Clear(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clear++
	return nil
}

// Emit delivers ev to the subscribed handlers, outside of the widget lock.
func (w *Widget) Emit(ev sdk.Event) {
	w.mu.Lock()
	hs := make([]sdk.Handler, 0, len(w.handlers[ev.EventName()]))
	for _, h := range w.handlers[ev.EventName()] {
		hs = append(hs, h)
	}
	w.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// Ready emits a ready event.
func (w *Widget) Ready() {
	w.Emit(sdk.ReadyEvent{ElementType: w.kind})
}

// Slot returns the mount slot, empty when unmounted.
func (w *Widget) Slot() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.slot
}

// MountCalls returns the number of Mount calls.
func (w *Widget) MountCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mounts
}

// UnmountCalls returns the number of Unmount calls.
func (w *Widget) UnmountCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unmounts
}

// DestroyCalls returns the number of Destroy calls.
func (w *Widget) DestroyCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroys
}

// Updates returns the options passed to Update.
func (w *Widget) Updates() []sdk.Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]sdk.Options(nil), w.updates...)
}

// FocusCalls returns the number of Focus, Blur and Clear calls.
func (w *Widget) FocusCalls() (focus, blur, clear int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focus, w.blur, w.clear
}

// HandlerCount returns the number of live subscriptions for name.
func (w *Widget) HandlerCount(name sdk.EventName) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.handlers[name])
}

// TotalHandlers returns the number of live subscriptions for all events.
func (w *Widget) TotalHandlers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, hs := range w.handlers {
		n += len(hs)
	}
	return n
}

// WaitFor polls cond until it returns true or the timeout elapses.
func WaitFor(t testing.TB, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %v", timeout)
	}
}
