package element

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/elements"
	"github.com/vango-dev/payelements/pkg/provider"
	"github.com/vango-dev/payelements/pkg/reactive"
	"github.com/vango-dev/payelements/pkg/scope"
	"github.com/vango-dev/payelements/pkg/sdk"
	"github.com/vango-dev/payelements/pkg/sdk/sdktest"
)

var (
	cardBinding = Binding{
		Kind:   sdk.KindCard,
		Name:   "CardElement",
		Events: []sdk.EventName{sdk.EventReady, sdk.EventChange, sdk.EventFocus, sdk.EventBlur, sdk.EventEscape},
	}
	numberBinding = Binding{
		Kind:   sdk.KindCardNumber,
		Name:   "CardNumberElement",
		Events: []sdk.EventName{sdk.EventReady, sdk.EventChange},
	}
	expiryBinding = Binding{
		Kind:   sdk.KindCardExpiry,
		Name:   "CardExpiryElement",
		Events: []sdk.EventName{sdk.EventReady, sdk.EventChange},
	}
)

const waitTimeout = 2 * time.Second

type fixture struct {
	loader   *sdktest.Loader
	provider *provider.Provider
	elements *elements.Elements
}

func setup(t *testing.T, loader *sdktest.Loader, opts elements.Options) *fixture {
	t.Helper()
	p, err := provider.New(scope.New(nil), provider.Options{PublicKey: "pk_test_123", Loader: loader})
	if err != nil {
		t.Fatalf("provider.New() error = %v", err)
	}
	t.Cleanup(p.Dispose)
	e, err := elements.New(p.Scope(), opts)
	if err != nil {
		t.Fatalf("elements.New() error = %v", err)
	}
	return &fixture{loader: loader, provider: p, elements: e}
}

func (f *fixture) group(t *testing.T) *sdktest.Group {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if _, err := f.elements.Wait(ctx); err != nil {
		t.Fatalf("elements.Wait() error = %v", err)
	}
	return f.loader.Handle().LastGroup()
}

func (f *fixture) mount(t *testing.T, b Binding, cfg Config) *Controller {
	t.Helper()
	c, err := New(f.elements.Scope(), b, cfg)
	if err != nil {
		t.Fatalf("New(%s) error = %v", b.Name, err)
	}
	return c
}

// mounted waits until c holds a widget and returns it.
func mounted(t *testing.T, c *Controller) *sdktest.Widget {
	t.Helper()
	var w sdk.Widget
	sdktest.WaitFor(t, waitTimeout, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		w = c.widget
		return w != nil
	})
	return w.(*sdktest.Widget)
}

func TestNewOutsideElementsNamesWidget(t *testing.T) {
	for _, b := range []Binding{cardBinding, numberBinding, expiryBinding} {
		t.Run(b.Name, func(t *testing.T) {
			c, err := New(scope.New(nil), b, Config{})
			if err == nil {
				t.Fatal("New() outside elements should fail")
			}
			if c != nil {
				t.Error("New() should not return a controller on error")
			}
			if !errors.IsUsage(err) {
				t.Errorf("category = %q, want usage", errors.CategoryOf(err))
			}
			if !strings.Contains(err.Error(), b.Name) {
				t.Errorf("error %q should name %s", err, b.Name)
			}
		})
	}
}

func TestCardScenario(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	g := f.group(t)

	c := f.mount(t, cardBinding, Config{Slot: "#card", Options: sdk.Options{"hidePostalCode": true}})
	w := mounted(t, c)

	calls := g.CreateCalls()
	if len(calls) != 1 {
		t.Fatalf("Create calls = %d, want 1", len(calls))
	}
	if calls[0].Kind != sdk.KindCard || calls[0].Options["hidePostalCode"] != true {
		t.Errorf("Create call = %+v", calls[0])
	}
	if n := w.MountCalls(); n != 1 {
		t.Errorf("Mount calls = %d, want 1", n)
	}
	if w.Slot() != "#card" {
		t.Errorf("slot = %q", w.Slot())
	}

	if st := c.Status(); !st.Loading || st.Phase != PhaseCreating {
		t.Errorf("status before ready = %+v", st)
	}

	w.Ready()

	st := c.Status()
	if st.Loading || st.Phase != PhaseReady {
		t.Errorf("status after ready = %+v", st)
	}
}

func TestLoadFailureCreatesNothing(t *testing.T) {
	loader := sdktest.NewLoader().WithError(stderrors.New("Network error"))
	f := setup(t, loader, elements.Options{ClientSecret: "pi_test_secret_123"})
	c := f.mount(t, cardBinding, Config{})

	<-f.provider.Done()
	sdktest.WaitFor(t, waitTimeout, func() bool { return !c.Status().Loading })

	if st := f.provider.State(); st.Ready() || st.Message() != "Network error" {
		t.Errorf("provider state = %+v", st)
	}
	if n := len(loader.Handle().Groups()); n != 0 {
		t.Errorf("groups = %d, want 0", n)
	}
	st := c.Status()
	if st.Phase != PhaseUninitialized || st.Loading {
		t.Errorf("status = %+v, want uninitialized and not loading", st)
	}
	if st.LastError != "Network error" {
		t.Errorf("LastError = %q, want %q", st.LastError, "Network error")
	}
}

func TestElementsFailureEndsLoading(t *testing.T) {
	tests := []struct {
		name    string
		loader  func() *sdktest.Loader
		opts    elements.Options
		code    string
		message string
	}{
		{
			name:    "provider load",
			loader:  func() *sdktest.Loader { return sdktest.NewLoader().WithError(context.DeadlineExceeded) },
			opts:    elements.Options{ClientSecret: "pi_test_secret_123"},
			code:    "P011",
			message: context.DeadlineExceeded.Error(),
		},
		{
			name:    "missing intent",
			loader:  sdktest.NewLoader,
			opts:    elements.Options{},
			code:    "P020",
			message: errors.New("P020").Message,
		},
		{
			name: "group creation",
			loader: func() *sdktest.Loader {
				l := sdktest.NewLoader()
				l.Handle().FailElements(stderrors.New("Invalid client secret"))
				return l
			},
			opts:    elements.Options{ClientSecret: "pi_test_secret_123"},
			code:    "P053",
			message: "Invalid client secret",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, tt.loader(), tt.opts)
			c := f.mount(t, cardBinding, Config{})

			sdktest.WaitFor(t, waitTimeout, func() bool { return !c.Status().Loading })

			st := c.Status()
			if st.Phase != PhaseUninitialized {
				t.Errorf("phase = %v, want uninitialized", st.Phase)
			}
			if st.LastError != tt.message {
				t.Errorf("LastError = %q, want %q", st.LastError, tt.message)
			}
			if !stderrors.Is(st.Err, errors.New(tt.code)) {
				t.Errorf("Err = %v, want %s", st.Err, tt.code)
			}
		})
	}
}

func TestMountAfterElementsFailed(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{})
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if _, err := f.elements.Wait(ctx); err == nil {
		t.Fatal("elements.Wait() should fail without an intent")
	}

	c := f.mount(t, cardBinding, Config{})
	if st := c.Status(); st.Loading || st.LastError == "" {
		t.Errorf("status = %+v, want the elements failure", st)
	}
}

func TestWatchersMayCallBackIntoScopes(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_a"})

	var secrets []string
	var mu sync.Mutex
	unwatch := f.elements.Watch(func(elements.State) {
		opts := f.elements.Options()
		mu.Lock()
		secrets = append(secrets, opts.ClientSecret)
		mu.Unlock()
	})
	defer unwatch()

	c := f.mount(t, cardBinding, Config{})
	unstatus := c.Watch(func(Status) { _ = f.elements.State() })
	defer unstatus()
	mounted(t, c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		if err := f.elements.SetOptions(ctx, elements.Options{ClientSecret: "pi_b"}); err != nil {
			t.Errorf("SetOptions() error = %v", err)
		}
		f.elements.Dispose()
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("watcher calling back into the elements scope deadlocked")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(secrets) == 0 {
		t.Error("watcher never ran")
	}
}

func TestEventsSubscribedOnceAndReemitted(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	f.group(t)
	c := f.mount(t, cardBinding, Config{})

	var mu sync.Mutex
	var changes []sdk.Event
	var all []sdk.EventName
	c.On(sdk.EventChange, func(ev sdk.Event) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, ev)
	})
	off := c.OnAny(func(ev sdk.Event) {
		mu.Lock()
		defer mu.Unlock()
		all = append(all, ev.EventName())
	})

	w := mounted(t, c)
	for _, name := range cardBinding.Events {
		if n := w.HandlerCount(name); n != 1 {
			t.Errorf("handlers for %s = %d, want 1", name, n)
		}
	}

	change := sdk.ChangeEvent{ElementType: sdk.KindCard, Complete: true, Brand: "visa"}
	w.Emit(change)
	w.Emit(sdk.FocusEvent{ElementType: sdk.KindCard})
	off()
	w.Emit(sdk.BlurEvent{ElementType: sdk.KindCard})

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 1 {
		t.Fatalf("change events = %d, want 1", len(changes))
	}
	got, ok := changes[0].(sdk.ChangeEvent)
	if !ok || got.Brand != "visa" || !got.Complete {
		t.Errorf("re-emitted change = %#v", changes[0])
	}
	if len(all) != 2 || all[0] != sdk.EventChange || all[1] != sdk.EventFocus {
		t.Errorf("OnAny events = %v", all)
	}
}

func TestChangeErrorSetsAndClears(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	f.group(t)
	c := f.mount(t, cardBinding, Config{})
	w := mounted(t, c)
	w.Ready()

	w.Emit(sdk.ChangeEvent{
		ElementType: sdk.KindCard,
		Error:       &sdk.EventError{Type: "validation_error", Code: "incomplete_number", Message: "Your card number is incomplete."},
	})
	st := c.Status()
	if st.LastError != "Your card number is incomplete." {
		t.Errorf("LastError = %q", st.LastError)
	}
	if !errors.IsWidget(st.Err) {
		t.Errorf("Err category = %q, want widget", errors.CategoryOf(st.Err))
	}
	if st.Phase != PhaseReady || st.Loading {
		t.Errorf("input errors must not change the phase: %+v", st)
	}

	w.Emit(sdk.ChangeEvent{ElementType: sdk.KindCard, Complete: true})
	if st := c.Status(); st.LastError != "" || st.Err != nil {
		t.Errorf("status after valid change = %+v", st)
	}
}

func TestSetOptionsUpdatesOncePerBatch(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	g := f.group(t)
	c := f.mount(t, cardBinding, Config{Options: sdk.Options{"disabled": false}})
	w := mounted(t, c)

	reactive.Batch(func() {
		c.SetOptions(sdk.Options{"disabled": true})
		c.SetOptions(sdk.Options{"disabled": true, "hidePostalCode": true})
	})

	updates := w.Updates()
	if len(updates) != 1 {
		t.Fatalf("Update calls = %d, want 1", len(updates))
	}
	if updates[0]["hidePostalCode"] != true || updates[0]["disabled"] != true {
		t.Errorf("update options = %v", updates[0])
	}

	// Deeply equal options are not pushed.
	c.SetOptions(sdk.Options{"disabled": true, "hidePostalCode": true})
	if n := len(w.Updates()); n != 1 {
		t.Errorf("Update calls after equal options = %d, want 1", n)
	}

	c.SetOptions(sdk.Options{"disabled": false})
	if n := len(w.Updates()); n != 2 {
		t.Errorf("Update calls = %d, want 2", n)
	}

	if n := len(g.CreateCalls()); n != 1 {
		t.Errorf("Create calls = %d, option changes must not recreate", n)
	}
}

func TestOptionsDuringCreationAreApplied(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	g := f.group(t)
	release := g.GateCreate()

	c := f.mount(t, cardBinding, Config{Options: sdk.Options{"disabled": false}})
	sdktest.WaitFor(t, waitTimeout, func() bool { return len(g.CreateCalls()) == 1 })
	c.SetOptions(sdk.Options{"disabled": true})
	release()

	w := mounted(t, c)
	sdktest.WaitFor(t, waitTimeout, func() bool { return len(w.Updates()) == 1 })
	if w.Updates()[0]["disabled"] != true {
		t.Errorf("update = %v", w.Updates()[0])
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	f.group(t)
	c := f.mount(t, cardBinding, Config{})
	w := mounted(t, c)

	c.Destroy()
	c.Destroy()
	c.Scope().Dispose()

	if n := w.DestroyCalls(); n != 1 {
		t.Errorf("Destroy calls = %d, want 1", n)
	}
	if n := w.TotalHandlers(); n != 0 {
		t.Errorf("handlers left = %d, want 0", n)
	}
	if !c.Destroyed() {
		t.Error("Destroyed() = false")
	}

	// Events after teardown reach nobody and focus is a no-op.
	w.Ready()
	if c.Status().Phase == PhaseReady {
		t.Error("status changed after destroy")
	}
	if err := c.Focus(context.Background()); err != nil {
		t.Errorf("Focus() after destroy = %v", err)
	}
}

func TestScopeDisposeDestroysWidget(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	f.group(t)
	c := f.mount(t, cardBinding, Config{})
	w := mounted(t, c)

	f.provider.Dispose()

	if n := w.DestroyCalls(); n != 1 {
		t.Errorf("Destroy calls = %d, want 1", n)
	}
	if !c.Destroyed() {
		t.Error("controller should be destroyed with its scope")
	}
}

func TestDestroyDuringCreation(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	g := f.group(t)
	release := g.GateCreate()

	c := f.mount(t, cardBinding, Config{})
	sdktest.WaitFor(t, waitTimeout, func() bool { return len(g.CreateCalls()) == 1 })

	var mu sync.Mutex
	var seen []Status
	c.Watch(func(st Status) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st)
	})

	c.Destroy()
	release()

	sdktest.WaitFor(t, waitTimeout, func() bool {
		w := g.LastWidget()
		return w != nil && w.DestroyCalls() == 1
	})

	w := g.LastWidget()
	if n := w.TotalHandlers(); n != 0 {
		t.Errorf("late widget handlers = %d, want 0", n)
	}
	c.mu.Lock()
	if c.widget != nil {
		t.Error("late widget must not be adopted")
	}
	c.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	for _, st := range seen {
		if st.Phase != PhaseUninitialized {
			t.Errorf("status changed after destroy: %+v", st)
		}
	}
}

func TestCreateFailure(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	g := f.group(t)
	g.FailCreate(stderrors.New("Invalid element type"))

	c := f.mount(t, cardBinding, Config{})
	sdktest.WaitFor(t, waitTimeout, func() bool { return c.Status().Phase == PhaseFailed })

	st := c.Status()
	if st.Loading {
		t.Error("loading should stop on failure")
	}
	if st.LastError != "Invalid element type" {
		t.Errorf("LastError = %q", st.LastError)
	}
	if !stderrors.Is(st.Err, errors.New("P050")) {
		t.Errorf("Err = %v, want P050", st.Err)
	}
}

func TestMountFailure(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_test_secret_123"})
	g := f.group(t)
	g.FailMount(stderrors.New("slot not found"))

	c := f.mount(t, cardBinding, Config{Slot: "#missing"})
	sdktest.WaitFor(t, waitTimeout, func() bool { return c.Status().Phase == PhaseFailed })

	if got := c.Status().LastError; got != "slot not found" {
		t.Errorf("LastError = %q", got)
	}
	if !errors.IsWidget(c.Status().Err) {
		t.Errorf("Err category = %q", errors.CategoryOf(c.Status().Err))
	}
	if n := g.LastWidget().DestroyCalls(); n != 1 {
		t.Errorf("failed widget Destroy calls = %d, want 1", n)
	}
}

func TestFocusBlurClear(t *testing.T) {
	loader := sdktest.NewLoader().WithGate()
	f := setup(t, loader, elements.Options{ClientSecret: "pi_test_secret_123"})
	c := f.mount(t, cardBinding, Config{})

	ctx := context.Background()
	for name, op := range map[string]func(context.Context) error{"Focus": c.Focus, "Blur": c.Blur, "Clear": c.Clear} {
		if err := op(ctx); err != nil {
			t.Errorf("%s() without widget = %v", name, err)
		}
	}

	loader.Release()
	w := mounted(t, c)
	_ = c.Focus(ctx)
	_ = c.Blur(ctx)
	_ = c.Clear(ctx)
	_ = c.Clear(ctx)

	focus, blur, clear := w.FocusCalls()
	if focus != 1 || blur != 1 || clear != 2 {
		t.Errorf("calls = focus %d, blur %d, clear %d", focus, blur, clear)
	}
}

func TestSiblingsRecreateOnGroupChange(t *testing.T) {
	f := setup(t, sdktest.NewLoader(), elements.Options{ClientSecret: "pi_1_secret_a"})
	first := f.group(t)

	number := f.mount(t, numberBinding, Config{Slot: "#number"})
	expiry := f.mount(t, expiryBinding, Config{Slot: "#expiry"})
	oldNumber, oldExpiry := mounted(t, number), mounted(t, expiry)
	oldNumber.Ready()
	oldExpiry.Ready()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := f.elements.SetOptions(ctx, elements.Options{ClientSecret: "pi_2_secret_b"}); err != nil {
		t.Fatalf("SetOptions() error = %v", err)
	}

	// Stale instances are gone before the new group is used.
	if oldNumber.DestroyCalls() != 1 || oldExpiry.DestroyCalls() != 1 {
		t.Errorf("stale Destroy calls = %d, %d", oldNumber.DestroyCalls(), oldExpiry.DestroyCalls())
	}

	second := f.loader.Handle().LastGroup()
	if second == first {
		t.Fatal("group was not replaced")
	}
	sdktest.WaitFor(t, waitTimeout, func() bool { return len(second.Widgets()) == 2 })
	for _, w := range second.Widgets() {
		w.Ready()
	}

	for _, c := range []*Controller{number, expiry} {
		sdktest.WaitFor(t, waitTimeout, func() bool { return c.Status().Phase == PhaseReady })
		if c.Status().Loading {
			t.Errorf("%s still loading", c.Binding().Name)
		}
	}
	if n := len(first.CreateCalls()); n != 2 {
		t.Errorf("old group Create calls = %d, want 2", n)
	}
	if mounted(t, number).Slot() != "#number" {
		t.Error("recreated widget mounted to wrong slot")
	}
}
