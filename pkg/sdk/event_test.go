package sdk

import (
	"testing"

	"github.com/vango-dev/payelements/internal/errors"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    EventName
		payload string
		check   func(t *testing.T, ev Event)
	}{
		{
			name:    EventReady,
			payload: `{"elementType":"card"}`,
			check: func(t *testing.T, ev Event) {
				if ev.(ReadyEvent).ElementType != KindCard {
					t.Errorf("ElementType = %q", ev.(ReadyEvent).ElementType)
				}
			},
		},
		{
			name:    EventChange,
			payload: `{"elementType":"card","empty":false,"complete":false,"brand":"visa","error":{"type":"validation_error","code":"invalid_number","message":"Your card number is invalid."}}`,
			check: func(t *testing.T, ev Event) {
				ch := ev.(ChangeEvent)
				if ch.Brand != "visa" || ch.Error == nil || ch.Error.Message != "Your card number is invalid." {
					t.Errorf("ChangeEvent = %+v", ch)
				}
			},
		},
		{
			name:    EventChange,
			payload: `{"elementType":"card","complete":true,"error":{"message":""}}`,
			check: func(t *testing.T, ev Event) {
				if ev.(ChangeEvent).Error != nil {
					t.Error("empty error message should decode as no error")
				}
			},
		},
		{
			name:    EventShippingAddressChange,
			payload: `{"elementType":"expressCheckout","name":"Jenny","address":{"city":"Berlin","country":"DE","postal_code":"10115"}}`,
			check: func(t *testing.T, ev Event) {
				sa := ev.(ShippingAddressChangeEvent)
				if sa.Address.PostalCode != "10115" || sa.Name != "Jenny" {
					t.Errorf("ShippingAddressChangeEvent = %+v", sa)
				}
			},
		},
		{
			name:    EventLoadError,
			payload: `{"elementType":"payment","error":{}}`,
			check: func(t *testing.T, ev Event) {
				if ev.(LoadErrorEvent).Error.Message == "" {
					t.Error("load errors always carry a message")
				}
			},
		},
		{
			name:    EventFocus,
			payload: ``,
			check: func(t *testing.T, ev Event) {
				if _, ok := ev.(FocusEvent); !ok {
					t.Errorf("got %T", ev)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			ev, err := DecodeEvent(tt.name, []byte(tt.payload))
			if err != nil {
				t.Fatalf("DecodeEvent() error = %v", err)
			}
			if ev.EventName() != tt.name {
				t.Errorf("EventName() = %q, want %q", ev.EventName(), tt.name)
			}
			tt.check(t, ev)
		})
	}
}

func TestDecodeEventErrors(t *testing.T) {
	_, err := DecodeEvent("explode", []byte(`{}`))
	if err == nil || errors.CategoryOf(err) != errors.CategoryProtocol {
		t.Errorf("unknown event: err = %v", err)
	}

	_, err = DecodeEvent(EventChange, []byte(`{"complete":"yes"}`))
	if err == nil {
		t.Fatal("expected decode error for mistyped field")
	}
	pe := errors.FromError(err, "P061")
	if pe.Code != "P061" {
		t.Errorf("Code = %q, want P061", pe.Code)
	}
}

func TestKinds(t *testing.T) {
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if Kind("hologram").Valid() {
		t.Error("unknown kind should be invalid")
	}
}

func TestOptionsCloneIsDeep(t *testing.T) {
	orig := Options{
		"style":  map[string]any{"base": map[string]any{"color": "#000"}},
		"fields": []any{"name"},
	}
	c := orig.Clone()
	c["style"].(map[string]any)["base"].(map[string]any)["color"] = "#fff"
	c["fields"].([]any)[0] = "email"

	if orig["style"].(map[string]any)["base"].(map[string]any)["color"] != "#000" {
		t.Error("Clone shares nested maps")
	}
	if orig["fields"].([]any)[0] != "name" {
		t.Error("Clone shares slices")
	}
	if Options(nil).Clone() != nil {
		t.Error("nil Clone should be nil")
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	defaults := Options{"supportedCountries": []string{"SEPA"}, "placeholderCountry": "DE"}
	got := Options{"placeholderCountry": "AT"}.WithDefaults(defaults)

	if got["placeholderCountry"] != "AT" {
		t.Errorf("caller value should win, got %v", got["placeholderCountry"])
	}
	if countries, ok := got["supportedCountries"].([]string); !ok || countries[0] != "SEPA" {
		t.Errorf("default missing: %v", got["supportedCountries"])
	}
	got["supportedCountries"].([]string)[0] = "XX"
	if defaults["supportedCountries"].([]string)[0] != "SEPA" {
		t.Error("WithDefaults must not share default slices")
	}
}

func TestProviderError(t *testing.T) {
	e := &ProviderError{Code: "resource_missing", Message: "Session expired"}
	if e.Error() != "resource_missing: Session expired" {
		t.Errorf("Error() = %q", e.Error())
	}
	if (&ProviderError{Message: "x"}).Error() != "x" {
		t.Error("Error() without code")
	}
}
