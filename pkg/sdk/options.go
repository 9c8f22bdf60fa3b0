package sdk

import (
	"encoding/json"
	"fmt"
)

// Options is a widget configuration object, passed to the SDK as JSON.
type Options map[string]any

// Clone returns a deep copy of o, so later caller mutation cannot alter a
// stored snapshot. Nested maps and slices are copied; other values are
// shared.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Options:
		return t.Clone()
	case map[string]any:
		return map[string]any(Options(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// WithDefaults returns a copy of o in which keys missing from o are taken
// from defaults. Caller values always win.
func (o Options) WithDefaults(defaults Options) Options {
	if len(defaults) == 0 {
		return o.Clone()
	}
	out := defaults.Clone()
	for k, v := range o {
		out[k] = cloneValue(v)
	}
	return out
}

// LoadOptions are the regional options of Loader.Load.
type LoadOptions struct {
	StripeAccount string `json:"stripeAccount,omitempty"`
	APIVersion    string `json:"apiVersion,omitempty"`
	Locale        string `json:"locale,omitempty"`
}

func (o LoadOptions) cacheKey(publicKey string) string {
	return fmt.Sprintf("%s|%s|%s|%s", publicKey, o.StripeAccount, o.APIVersion, o.Locale)
}

// Elements modes for deferred intent creation.
const (
	ModePayment      = "payment"
	ModeSetup        = "setup"
	ModeSubscription = "subscription"
)

// ElementsOptions configure an elements group. Either ClientSecret or the
// Mode/Currency/Amount triple identifies the intent.
type ElementsOptions struct {
	ClientSecret       string         `json:"clientSecret,omitempty"`
	Mode               string         `json:"mode,omitempty"`
	Currency           string         `json:"currency,omitempty"`
	Amount             *int64         `json:"amount,omitempty"`
	Appearance         map[string]any `json:"appearance,omitempty"`
	Locale             string         `json:"locale,omitempty"`
	Fonts              []any          `json:"fonts,omitempty"`
	PaymentMethodTypes []string       `json:"paymentMethodTypes,omitempty"`
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// AppInfo is the integration metadata registered on a handle.
type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
	URL       string `json:"url,omitempty"`
	PartnerID string `json:"partner_id,omitempty"`
}

// ConfirmParams are the arguments of ConfirmPayment and ConfirmSetup.
type ConfirmParams struct {
	ClientSecret string `json:"clientSecret,omitempty"`
	ReturnURL    string `json:"returnUrl,omitempty"`
	// Redirect is "always" or "if_required".
	Redirect      string         `json:"redirect,omitempty"`
	ConfirmParams map[string]any `json:"confirmParams,omitempty"`
}

// ProviderError is an error reported by the provider in a result payload.
type ProviderError struct {
	Type        string `json:"type,omitempty"`
	Code        string `json:"code,omitempty"`
	DeclineCode string `json:"decline_code,omitempty"`
	Param       string `json:"param,omitempty"`
	Message     string `json:"message"`
}

// Error implements error.
func (e *ProviderError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ConfirmResult is the outcome of a confirm call.
type ConfirmResult struct {
	PaymentIntent json.RawMessage `json:"paymentIntent,omitempty"`
	SetupIntent   json.RawMessage `json:"setupIntent,omitempty"`
	Error         *ProviderError  `json:"error,omitempty"`
}

// LineItem is one price in a client-side checkout redirect.
type LineItem struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

// RedirectOptions are the arguments of RedirectToCheckout.
type RedirectOptions struct {
	SessionID         string     `json:"sessionId,omitempty"`
	LineItems         []LineItem `json:"lineItems,omitempty"`
	Mode              string     `json:"mode,omitempty"`
	SuccessURL        string     `json:"successUrl,omitempty"`
	CancelURL         string     `json:"cancelUrl,omitempty"`
	CustomerEmail     string     `json:"customerEmail,omitempty"`
	ClientReferenceID string     `json:"clientReferenceId,omitempty"`
}

// RedirectResult is the outcome of RedirectToCheckout. A successful redirect
// usually never returns, since the page navigates away.
type RedirectResult struct {
	Error *ProviderError `json:"error,omitempty"`
}
