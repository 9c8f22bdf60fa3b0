package checkout

import (
	"context"
	"log/slog"

	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/sdk"
)

// Navigator performs a direct browser navigation.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Mode is the way a checkout is identified.
type Mode string

const (
	ModeSession Mode = "session"
	ModePrice   Mode = "price"
	ModeURL     Mode = "url"
)

// Options configure a checkout control. Exactly one of SessionID, the
// price set (PriceID, Mode, SuccessURL, CancelURL) or URL identifies the
// checkout; when several are set, SessionID wins over the price set, which
// wins over URL.
type Options struct {
	SessionID string

	PriceID    string
	Quantity   int64 // default 1
	Mode       string
	SuccessURL string
	CancelURL  string

	CustomerEmail     string
	ClientReferenceID string

	// URL is a hosted checkout link opened with Navigator.
	URL       string
	Navigator Navigator

	// Logger receives redirect logs. Default: the provider logger, or
	// slog.Default() without a provider.
	Logger *slog.Logger
}

// Kind reports how the options identify the checkout, or "" when they
// don't.
func (o Options) Kind() Mode {
	switch {
	case o.SessionID != "":
		return ModeSession
	case o.PriceID != "" || o.Mode != "" || o.SuccessURL != "" || o.CancelURL != "":
		return ModePrice
	case o.URL != "":
		return ModeURL
	default:
		return ""
	}
}

// Validate checks that the options identify a checkout.
func (o Options) Validate() error {
	switch o.Kind() {
	case ModeSession:
		return nil
	case ModePrice:
		var missing []string
		if o.PriceID == "" {
			missing = append(missing, "PriceID")
		}
		if o.Mode == "" {
			missing = append(missing, "Mode")
		}
		if o.SuccessURL == "" {
			missing = append(missing, "SuccessURL")
		}
		if o.CancelURL == "" {
			missing = append(missing, "CancelURL")
		}
		if len(missing) > 0 {
			return errors.New("P031").WithDetailf("Missing %v", missing)
		}
		switch o.Mode {
		case sdk.ModePayment, sdk.ModeSubscription:
		default:
			return errors.New("P021").
				WithDetailf("Got mode %q", o.Mode).
				WithSuggestion("Use payment or subscription")
		}
		return nil
	case ModeURL:
		if o.Navigator == nil {
			return errors.New("P032")
		}
		return nil
	default:
		return errors.New("P030").
			WithSuggestion("Pass SessionID, PriceID with Mode, SuccessURL and CancelURL, or URL")
	}
}

func (o Options) redirectOptions() sdk.RedirectOptions {
	if o.SessionID != "" {
		return sdk.RedirectOptions{SessionID: o.SessionID}
	}
	qty := o.Quantity
	if qty <= 0 {
		qty = 1
	}
	return sdk.RedirectOptions{
		LineItems:         []sdk.LineItem{{Price: o.PriceID, Quantity: qty}},
		Mode:              o.Mode,
		SuccessURL:        o.SuccessURL,
		CancelURL:         o.CancelURL,
		CustomerEmail:     o.CustomerEmail,
		ClientReferenceID: o.ClientReferenceID,
	}
}
