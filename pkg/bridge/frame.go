package bridge

import "encoding/json"

// Operations sent from the server to the browser shim.
const (
	OpLoad            = "load"
	OpElements        = "elements"
	OpUpdateGroup     = "updateGroup"
	OpCreate          = "create"
	OpMount           = "mount"
	OpUnmount         = "unmount"
	OpDestroy         = "destroy"
	OpUpdate          = "update"
	OpFocus           = "focus"
	OpBlur            = "blur"
	OpClear           = "clear"
	OpConfirmPayment  = "confirmPayment"
	OpConfirmSetup    = "confirmSetup"
	OpRedirect        = "redirectToCheckout"
	OpRegisterAppInfo = "registerAppInfo"
)

// OpEvent marks a widget event sent by the browser shim.
const OpEvent = "event"

// Frame is one JSON message on the bridge.
//
// A call carries ID, Op, Target and Args. The reply carries the same ID and
// either Result or Error, and no Op. A widget event carries Op "event",
// Target (the widget ID), Event and Payload.
type Frame struct {
	ID      string          `json:"id,omitempty"`
	Op      string          `json:"op,omitempty"`
	Target  string          `json:"target,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RemoteError    `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (f *Frame) isReply() bool {
	return f.Op == "" && f.ID != ""
}

// RemoteError is an error thrown by the remote side of a call.
type RemoteError struct {
	Op      string `json:"op,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Error returns the remote message unchanged.
func (e *RemoteError) Error() string {
	return e.Message
}

type loadArgs struct {
	Handle    string `json:"handle"`
	PublicKey string `json:"publicKey"`
	Options   any    `json:"options"`
}

type elementsArgs struct {
	Group   string `json:"group"`
	Options any    `json:"options"`
}

type createArgs struct {
	Widget  string `json:"widget"`
	Kind    string `json:"kind"`
	Options any    `json:"options,omitempty"`
}

type mountArgs struct {
	Slot string `json:"slot"`
}

type confirmArgs struct {
	Group  string `json:"group,omitempty"`
	Params any    `json:"params"`
}

type loadResult struct {
	OK bool `json:"ok"`
}
