package elements

import (
	"log/slog"

	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/reactive"
	"github.com/vango-dev/payelements/pkg/sdk"
)

// Options configure an elements scope. Either ClientSecret or the full
// Mode, Currency and Amount triple must be set.
type Options struct {
	// ClientSecret is the secret of an existing payment or setup intent.
	ClientSecret string

	// Mode, Currency and Amount describe a deferred intent.
	Mode     string
	Currency string
	Amount   *int64

	// Appearance is the theme object passed to the SDK.
	Appearance map[string]any

	Locale             string
	Fonts              []any
	PaymentMethodTypes []string

	// Logger receives lifecycle logs. Default: the provider logger.
	Logger *slog.Logger
}

// Validate checks that the options identify an intent.
func (o Options) Validate() error {
	if o.Mode != "" {
		switch o.Mode {
		case sdk.ModePayment, sdk.ModeSetup, sdk.ModeSubscription:
		default:
			return errors.New("P021").
				WithDetailf("Got mode %q", o.Mode).
				WithSuggestion("Use payment, setup or subscription")
		}
	}
	if o.ClientSecret != "" {
		return nil
	}
	if o.Mode == "" || o.Currency == "" || o.Amount == nil {
		return errors.New("P020").
			WithSuggestion("Pass ClientSecret, or Mode together with Currency and Amount")
	}
	return nil
}

// SDKOptions converts the options to the SDK shape.
func (o Options) SDKOptions() sdk.ElementsOptions {
	return sdk.ElementsOptions{
		ClientSecret:       o.ClientSecret,
		Mode:               o.Mode,
		Currency:           o.Currency,
		Amount:             o.Amount,
		Appearance:         o.Appearance,
		Locale:             o.Locale,
		Fonts:              o.Fonts,
		PaymentMethodTypes: o.PaymentMethodTypes,
	}
}

// sameIntent reports whether a and b address the same intent. A change of
// intent requires a new group.
func sameIntent(a, b Options) bool {
	if a.ClientSecret != b.ClientSecret || a.Mode != b.Mode || a.Currency != b.Currency {
		return false
	}
	switch {
	case a.Amount == nil && b.Amount == nil:
		return true
	case a.Amount == nil || b.Amount == nil:
		return false
	default:
		return *a.Amount == *b.Amount
	}
}

// sameLook reports whether the group-level options that can be updated in
// place are equal.
func sameLook(a, b Options) bool {
	return a.Locale == b.Locale &&
		reactive.DeepEqual(a.Appearance, b.Appearance) &&
		reactive.DeepEqual(a.Fonts, b.Fonts) &&
		reactive.DeepEqual(a.PaymentMethodTypes, b.PaymentMethodTypes)
}
