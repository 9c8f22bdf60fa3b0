package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vango-dev/payelements/pkg/sdk"
)

// maxBufferedEvents bounds the events kept for an event name nobody
// subscribed to yet.
const maxBufferedEvents = 16

// Loader returns an sdk.Loader whose handles, groups and widgets live in
// the browser at the other end of conn.
func Loader(conn *Conn) sdk.Loader {
	return sdk.LoaderFunc(func(ctx context.Context, publicKey string, opts sdk.LoadOptions) (sdk.Handle, error) {
		h := &remoteHandle{conn: conn, id: uuid.NewString()}
		var res loadResult
		err := conn.Invoke(ctx, OpLoad, "", loadArgs{Handle: h.id, PublicKey: publicKey, Options: opts}, &res)
		if err != nil {
			return nil, err
		}
		if !res.OK {
			return nil, nil
		}
		return h, nil
	})
}

type remoteHandle struct {
	conn *Conn
	id   string
}

func (h *remoteHandle) Elements(ctx context.Context, opts sdk.ElementsOptions) (sdk.Group, error) {
	g := &remoteGroup{conn: h.conn, id: uuid.NewString()}
	if err := h.conn.Invoke(ctx, OpElements, h.id, elementsArgs{Group: g.id, Options: opts}, nil); err != nil {
		return nil, err
	}
	return g, nil
}

func (h *remoteHandle) confirm(ctx context.Context, op string, group sdk.Group, params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	args := confirmArgs{Params: params}
	if g, ok := group.(*remoteGroup); ok {
		args.Group = g.id
	}
	var res sdk.ConfirmResult
	if err := h.conn.Invoke(ctx, op, h.id, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (h *remoteHandle) ConfirmPayment(ctx context.Context, group sdk.Group, params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	return h.confirm(ctx, OpConfirmPayment, group, params)
}

func (h *remoteHandle) ConfirmSetup(ctx context.Context, group sdk.Group, params sdk.ConfirmParams) (*sdk.ConfirmResult, error) {
	return h.confirm(ctx, OpConfirmSetup, group, params)
}

func (h *remoteHandle) RedirectToCheckout(ctx context.Context, opts sdk.RedirectOptions) (*sdk.RedirectResult, error) {
	var res sdk.RedirectResult
	if err := h.conn.Invoke(ctx, OpRedirect, h.id, opts, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (h *remoteHandle) RegisterAppInfo(ctx context.Context, info sdk.AppInfo) error {
	return h.conn.Invoke(ctx, OpRegisterAppInfo, h.id, info, nil)
}

type remoteGroup struct {
	conn *Conn
	id   string
}

func (g *remoteGroup) Create(ctx context.Context, kind sdk.Kind, opts sdk.Options) (sdk.Widget, error) {
	w := &remoteWidget{
		conn:     g.conn,
		id:       uuid.NewString(),
		kind:     kind,
		handlers: make(map[sdk.EventName]map[sdk.HandlerID]sdk.Handler),
		buffered: make(map[sdk.EventName][]sdk.Event),
	}
	// Registered before the call so no event is lost.
	g.conn.register(w.id, w)
	if err := g.conn.Invoke(ctx, OpCreate, g.id, createArgs{Widget: w.id, Kind: string(kind), Options: opts}, nil); err != nil {
		g.conn.unregister(w.id)
		return nil, err
	}
	return w, nil
}

func (g *remoteGroup) Update(ctx context.Context, opts sdk.ElementsOptions) error {
	return g.conn.Invoke(ctx, OpUpdateGroup, g.id, opts, nil)
}

// remoteWidget implements sdk.Widget, sdk.Updater, sdk.Focuser and
// sdk.Clearer over the bridge. Events that arrive before the first
// subscription for their name are buffered and replayed to it.
type remoteWidget struct {
	conn *Conn
	id   string
	kind sdk.Kind

	mu       sync.Mutex
	handlers map[sdk.EventName]map[sdk.HandlerID]sdk.Handler
	buffered map[sdk.EventName][]sdk.Event
	nextID   sdk.HandlerID
}

func (w *remoteWidget) Kind() sdk.Kind { return w.kind }

func (w *remoteWidget) Mount(ctx context.Context, slot string) error {
	return w.conn.Invoke(ctx, OpMount, w.id, mountArgs{Slot: slot}, nil)
}

func (w *remoteWidget) Unmount(ctx context.Context) error {
	return w.conn.Invoke(ctx, OpUnmount, w.id, nil, nil)
}

func (w *remoteWidget) Destroy(ctx context.Context) error {
	defer w.conn.unregister(w.id)
	return w.conn.Invoke(ctx, OpDestroy, w.id, nil, nil)
}

func (w *remoteWidget) Update(ctx context.Context, opts sdk.Options) error {
	return w.conn.Invoke(ctx, OpUpdate, w.id, opts, nil)
}

func (w *remoteWidget) Focus(ctx context.Context) error {
	return w.conn.Invoke(ctx, OpFocus, w.id, nil, nil)
}

func (w *remoteWidget) Blur(ctx context.Context) error {
	return w.conn.Invoke(ctx, OpBlur, w.id, nil, nil)
}

func (w *remoteWidget) Clear(ctx context.Context) error {
	return w.conn.Invoke(ctx, OpClear, w.id, nil, nil)
}

func (w *remoteWidget) On(name sdk.EventName, h sdk.Handler) sdk.HandlerID {
	w.mu.Lock()
	w.nextID++
	id := w.nextID
	if w.handlers[name] == nil {
		w.handlers[name] = make(map[sdk.HandlerID]sdk.Handler)
	}
	w.handlers[name][id] = h
	replay := w.buffered[name]
	delete(w.buffered, name)
	w.mu.Unlock()

	for _, ev := range replay {
		h(ev)
	}
	return id
}

func (w *remoteWidget) Off(name sdk.EventName, id sdk.HandlerID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.handlers[name], id)
}

func (w *remoteWidget) deliver(ev sdk.Event) {
	name := ev.EventName()

	w.mu.Lock()
	hs := make([]sdk.Handler, 0, len(w.handlers[name]))
	for _, h := range w.handlers[name] {
		hs = append(hs, h)
	}
	if len(hs) == 0 {
		if len(w.buffered[name]) < maxBufferedEvents {
			w.buffered[name] = append(w.buffered[name], ev)
		}
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}
