package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/metrics"
	"github.com/vango-dev/payelements/pkg/sdk"
)

const (
	writeTimeout   = 10 * time.Second
	eventQueueSize = 64
)

// CallHandler answers calls received from the other side. It is used by
// tools and tests that play the browser role.
type CallHandler func(ctx context.Context, f *Frame) (any, error)

// Conn is one bridge connection. Calls may be made from any goroutine.
// Widget events are delivered in order on a dedicated goroutine, so event
// handlers may make calls.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	readTimeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *Frame
	widgets map[string]*remoteWidget
	calls   CallHandler

	events    chan *Frame
	closed    chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, cfg config) *Conn {
	c := &Conn{
		ws:          ws,
		logger:      cfg.logger,
		readTimeout: cfg.readTimeout,
		pending:     make(map[string]chan *Frame),
		widgets:     make(map[string]*remoteWidget),
		events:      make(chan *Frame, eventQueueSize),
		closed:      make(chan struct{}),
	}
	c.ws.SetReadLimit(cfg.maxMessageSize)
	if c.readTimeout > 0 {
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
		})
		go c.keepalive(c.readTimeout / 2)
	}
	go c.dispatchLoop()
	return c
}

// Done is closed when the connection closes.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

// HandleCalls installs the handler for calls received from the other side.
func (c *Conn) HandleCalls(h CallHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = h
}

// Invoke sends a call and waits for its reply. When result is non-nil the
// reply result is decoded into it. An error thrown remotely is returned as
// *RemoteError.
func (c *Conn) Invoke(ctx context.Context, op, target string, args, result any) (err error) {
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordBridgeCall(op, status)
	}()

	var raw json.RawMessage
	if args != nil {
		if raw, err = json.Marshal(args); err != nil {
			return errors.New("P061").WithDetailf("Encoding %s arguments", op).Wrap(err)
		}
	}

	id := uuid.NewString()
	reply := make(chan *Frame, 1)

	c.mu.Lock()
	select {
	case <-c.closed:
		c.mu.Unlock()
		return errors.New("P060")
	default:
	}
	c.pending[id] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(&Frame{ID: id, Op: op, Target: target, Args: raw}); err != nil {
		return errors.New("P060").Wrap(err)
	}

	select {
	case f := <-reply:
		if f.Error != nil {
			f.Error.Op = op
			return f.Error
		}
		if result != nil && len(f.Result) > 0 {
			if err := json.Unmarshal(f.Result, result); err != nil {
				return errors.New("P061").WithDetailf("Decoding %s result", op).Wrap(err)
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return errors.New("P060")
	}
}

// Emit sends a widget event. It is used by the side playing the browser.
func (c *Conn) Emit(target string, name sdk.EventName, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.New("P061").Wrap(err)
	}
	return c.write(&Frame{Op: OpEvent, Target: target, Event: string(name), Payload: raw})
}

func (c *Conn) write(f *Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(f)
}

// ReadLoop reads frames until the connection fails or closes, then closes
// the connection.
func (c *Conn) ReadLoop() error {
	defer c.Close()

	for {
		if c.readTimeout > 0 {
			_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
		}

		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("bridge read error", "error", err)
				return err
			}
			return nil
		}

		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			c.logger.Warn("invalid bridge frame", "error", errors.New("P061").Wrap(err))
			continue
		}

		switch {
		case f.isReply():
			c.mu.Lock()
			reply, ok := c.pending[f.ID]
			c.mu.Unlock()
			if !ok {
				c.logger.Debug("reply for unknown call", "id", f.ID)
				continue
			}
			select {
			case reply <- &f:
			default:
				c.logger.Warn("duplicate reply dropped", "id", f.ID)
			}

		case f.Op == OpEvent:
			select {
			case c.events <- &f:
			case <-c.closed:
				return nil
			}

		case f.Op != "":
			go c.answer(&f)

		default:
			c.logger.Warn("invalid bridge frame", "error", errors.New("P061").WithDetail("Frame has no op and no id"))
		}
	}
}

func (c *Conn) answer(f *Frame) {
	c.mu.Lock()
	h := c.calls
	c.mu.Unlock()

	reply := &Frame{ID: f.ID}
	if h == nil {
		reply.Error = &RemoteError{Message: "unsupported operation " + f.Op}
	} else {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-c.closed:
				cancel()
			case <-ctx.Done():
			}
		}()
		result, err := h(ctx, f)
		cancel()
		if err != nil {
			re, ok := err.(*RemoteError)
			if !ok {
				re = &RemoteError{Message: err.Error()}
			}
			reply.Error = re
		} else if result != nil {
			raw, err := json.Marshal(result)
			if err != nil {
				reply.Error = &RemoteError{Message: err.Error()}
			} else {
				reply.Result = raw
			}
		}
	}
	if err := c.write(reply); err != nil {
		c.logger.Debug("reply write failed", "error", err)
	}
}

func (c *Conn) dispatchLoop() {
	for {
		select {
		case f := <-c.events:
			c.dispatch(f)
		case <-c.closed:
			return
		}
	}
}

func (c *Conn) dispatch(f *Frame) {
	c.mu.Lock()
	w, ok := c.widgets[f.Target]
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("event for unknown widget", "target", f.Target, "event", f.Event)
		return
	}

	ev, err := sdk.DecodeEvent(sdk.EventName(f.Event), f.Payload)
	if err != nil {
		c.logger.Warn("dropping widget event", "target", f.Target, "error", err)
		return
	}
	w.deliver(ev)
}

func (c *Conn) keepalive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *Conn) register(id string, w *remoteWidget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.widgets[id] = w
}

func (c *Conn) unregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.widgets, id)
}

// Close closes the connection. Pending calls fail with a closed-bridge
// error. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.closed)
		c.mu.Unlock()

		c.writeMu.Lock()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
