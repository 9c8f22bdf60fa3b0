package sdk

import (
	"encoding/json"

	"github.com/vango-dev/payelements/internal/errors"
)

// EventName is the name of a widget event.
type EventName string

const (
	EventReady                 EventName = "ready"
	EventChange                EventName = "change"
	EventFocus                 EventName = "focus"
	EventBlur                  EventName = "blur"
	EventEscape                EventName = "escape"
	EventClick                 EventName = "click"
	EventLoadError             EventName = "loaderror"
	EventLoaderStart           EventName = "loaderstart"
	EventShippingAddressChange EventName = "shippingaddresschange"
	EventShippingRateChange    EventName = "shippingratechange"
	EventConfirm               EventName = "confirm"
	EventCancel                EventName = "cancel"
	EventNetworksChange        EventName = "networkschange"
)

// Event is a widget event. The concrete type is determined by the name.
type Event interface {
	EventName() EventName
}

// EventError is the error object carried by change and loaderror events.
type EventError struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ReadyEvent fires once the widget is fully rendered.
type ReadyEvent struct {
	ElementType             Kind            `json:"elementType"`
	AvailablePaymentMethods map[string]bool `json:"availablePaymentMethods,omitempty"`
}

// ChangeEvent fires when the widget value changes.
type ChangeEvent struct {
	ElementType Kind            `json:"elementType"`
	Empty       bool            `json:"empty"`
	Complete    bool            `json:"complete"`
	Collapsed   bool            `json:"collapsed,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Value       json.RawMessage `json:"value,omitempty"`
	Error       *EventError     `json:"error,omitempty"`
}

// FocusEvent fires when the widget gains focus.
type FocusEvent struct {
	ElementType Kind `json:"elementType"`
}

// BlurEvent fires when the widget loses focus.
type BlurEvent struct {
	ElementType Kind `json:"elementType"`
}

// EscapeEvent fires when the escape key is pressed inside the widget.
type EscapeEvent struct {
	ElementType Kind `json:"elementType"`
}

// ClickEvent fires when an express checkout button is clicked.
type ClickEvent struct {
	ElementType        Kind   `json:"elementType"`
	ExpressPaymentType string `json:"expressPaymentType,omitempty"`
}

// LoadErrorEvent fires when the widget fails to load.
type LoadErrorEvent struct {
	ElementType Kind       `json:"elementType"`
	Error       EventError `json:"error"`
}

// LoaderStartEvent fires when the widget loader UI is shown.
type LoaderStartEvent struct {
	ElementType Kind `json:"elementType"`
}

// Address is a postal address reported by address-aware widgets.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// ShippingAddressChangeEvent fires when the buyer picks a shipping address
// in an express checkout sheet.
type ShippingAddressChangeEvent struct {
	ElementType Kind    `json:"elementType"`
	Name        string  `json:"name,omitempty"`
	Address     Address `json:"address"`
}

// ShippingRate is a selectable shipping option.
type ShippingRate struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	DisplayName string `json:"displayName"`
}

// ShippingRateChangeEvent fires when the buyer picks a shipping rate.
type ShippingRateChangeEvent struct {
	ElementType  Kind         `json:"elementType"`
	ShippingRate ShippingRate `json:"shippingRate"`
}

// ConfirmEvent fires when the buyer authorizes an express payment.
type ConfirmEvent struct {
	ElementType        Kind            `json:"elementType"`
	ExpressPaymentType string          `json:"expressPaymentType,omitempty"`
	BillingDetails     json.RawMessage `json:"billingDetails,omitempty"`
	ShippingAddress    json.RawMessage `json:"shippingAddress,omitempty"`
	ShippingRate       *ShippingRate   `json:"shippingRate,omitempty"`
}

// CancelEvent fires when the buyer dismisses the express payment sheet.
type CancelEvent struct {
	ElementType Kind `json:"elementType"`
}

// NetworksChangeEvent fires when the detected card networks change.
type NetworksChangeEvent struct {
	ElementType Kind     `json:"elementType"`
	Networks    []string `json:"networks,omitempty"`
}

func (ReadyEvent) EventName() EventName                 { return EventReady }
func (ChangeEvent) EventName() EventName                { return EventChange }
func (FocusEvent) EventName() EventName                 { return EventFocus }
func (BlurEvent) EventName() EventName                  { return EventBlur }
func (EscapeEvent) EventName() EventName                { return EventEscape }
func (ClickEvent) EventName() EventName                 { return EventClick }
func (LoadErrorEvent) EventName() EventName             { return EventLoadError }
func (LoaderStartEvent) EventName() EventName           { return EventLoaderStart }
func (ShippingAddressChangeEvent) EventName() EventName { return EventShippingAddressChange }
func (ShippingRateChangeEvent) EventName() EventName    { return EventShippingRateChange }
func (ConfirmEvent) EventName() EventName               { return EventConfirm }
func (CancelEvent) EventName() EventName                { return EventCancel }
func (NetworksChangeEvent) EventName() EventName        { return EventNetworksChange }

// DecodeEvent turns a raw SDK event payload into its typed form.
// Unknown names and malformed payloads are rejected with protocol errors.
func DecodeEvent(name EventName, payload []byte) (Event, error) {
	if len(payload) == 0 || string(payload) == "null" {
		payload = []byte("{}")
	}

	var ev Event
	var err error
	switch name {
	case EventReady:
		ev, err = decode[ReadyEvent](payload)
	case EventChange:
		ev, err = decodeChange(payload)
	case EventFocus:
		ev, err = decode[FocusEvent](payload)
	case EventBlur:
		ev, err = decode[BlurEvent](payload)
	case EventEscape:
		ev, err = decode[EscapeEvent](payload)
	case EventClick:
		ev, err = decode[ClickEvent](payload)
	case EventLoadError:
		ev, err = decodeLoadError(payload)
	case EventLoaderStart:
		ev, err = decode[LoaderStartEvent](payload)
	case EventShippingAddressChange:
		ev, err = decode[ShippingAddressChangeEvent](payload)
	case EventShippingRateChange:
		ev, err = decode[ShippingRateChangeEvent](payload)
	case EventConfirm:
		ev, err = decode[ConfirmEvent](payload)
	case EventCancel:
		ev, err = decode[CancelEvent](payload)
	case EventNetworksChange:
		ev, err = decode[NetworksChangeEvent](payload)
	default:
		return nil, errors.New("P062").WithDetailf("unknown event %q", name)
	}
	if err != nil {
		return nil, errors.New("P061").WithDetailf("event %q", name).Wrap(err)
	}
	return ev, nil
}

func decode[T Event](payload []byte) (Event, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeChange(payload []byte) (Event, error) {
	var v ChangeEvent
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	// An error object without a message carries nothing to display.
	if v.Error != nil && v.Error.Message == "" {
		v.Error = nil
	}
	return v, nil
}

func decodeLoadError(payload []byte) (Event, error) {
	var v LoadErrorEvent
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	if v.Error.Message == "" {
		v.Error.Message = "widget failed to load"
	}
	return v, nil
}
