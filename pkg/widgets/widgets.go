package widgets

import (
	"github.com/vango-dev/payelements/pkg/element"
	"github.com/vango-dev/payelements/pkg/scope"
	"github.com/vango-dev/payelements/pkg/sdk"
)

var baseEvents = []sdk.EventName{
	sdk.EventReady,
	sdk.EventChange,
	sdk.EventFocus,
	sdk.EventBlur,
	sdk.EventEscape,
}

func events(extra ...sdk.EventName) []sdk.EventName {
	out := make([]sdk.EventName, 0, len(baseEvents)+len(extra))
	out = append(out, baseEvents...)
	return append(out, extra...)
}

// Bindings for every supported widget.
var (
	Card = element.Binding{
		Kind:   sdk.KindCard,
		Name:   "CardElement",
		Events: events(sdk.EventNetworksChange),
	}
	CardNumber = element.Binding{
		Kind:   sdk.KindCardNumber,
		Name:   "CardNumberElement",
		Events: events(sdk.EventNetworksChange),
	}
	CardExpiry = element.Binding{
		Kind:   sdk.KindCardExpiry,
		Name:   "CardExpiryElement",
		Events: events(),
	}
	CardCvc = element.Binding{
		Kind:   sdk.KindCardCvc,
		Name:   "CardCvcElement",
		Events: events(),
	}
	Payment = element.Binding{
		Kind:   sdk.KindPayment,
		Name:   "PaymentElement",
		Events: events(sdk.EventLoadError, sdk.EventLoaderStart),
	}
	Address = element.Binding{
		Kind:   sdk.KindAddress,
		Name:   "AddressElement",
		Events: events(sdk.EventLoadError, sdk.EventLoaderStart),
	}
	LinkAuthentication = element.Binding{
		Kind:   sdk.KindLinkAuthentication,
		Name:   "LinkAuthenticationElement",
		Events: events(sdk.EventLoadError, sdk.EventLoaderStart),
	}
	ExpressCheckout = element.Binding{
		Kind: sdk.KindExpressCheckout,
		Name: "ExpressCheckoutElement",
		Events: events(
			sdk.EventClick,
			sdk.EventConfirm,
			sdk.EventCancel,
			sdk.EventShippingAddressChange,
			sdk.EventShippingRateChange,
			sdk.EventLoadError,
		),
	}
	Iban = element.Binding{
		Kind:     sdk.KindIban,
		Name:     "IbanElement",
		Events:   events(),
		Defaults: sdk.Options{"supportedCountries": []any{"SEPA"}},
	}
	IdealBank = element.Binding{
		Kind:   sdk.KindIdealBank,
		Name:   "IdealBankElement",
		Events: events(),
	}
	P24Bank = element.Binding{
		Kind:   sdk.KindP24Bank,
		Name:   "P24BankElement",
		Events: events(),
	}
	EpsBank = element.Binding{
		Kind:   sdk.KindEpsBank,
		Name:   "EpsBankElement",
		Events: events(),
	}
	AuBankAccount = element.Binding{
		Kind:   sdk.KindAuBankAccount,
		Name:   "AuBankAccountElement",
		Events: events(),
	}
)

var all = []element.Binding{
	Card, CardNumber, CardExpiry, CardCvc,
	Payment, Address, LinkAuthentication, ExpressCheckout,
	Iban, IdealBank, P24Bank, EpsBank, AuBankAccount,
}

// All returns every binding.
func All() []element.Binding {
	return append([]element.Binding(nil), all...)
}

// ByKind returns the binding for kind.
func ByKind(kind sdk.Kind) (element.Binding, bool) {
	for _, b := range all {
		if b.Kind == kind {
			return b, true
		}
	}
	return element.Binding{}, false
}

// Mount creates a controller for binding under parent.
func Mount(parent *scope.Scope, binding element.Binding, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, binding, cfg)
}

// NewCard creates a combined card widget (number, expiry, CVC and postal code).
func NewCard(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, Card, cfg)
}

// NewCardNumber creates a card number widget.
func NewCardNumber(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, CardNumber, cfg)
}

// NewCardExpiry creates a card expiry widget.
func NewCardExpiry(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, CardExpiry, cfg)
}

// NewCardCvc creates a card CVC widget.
func NewCardCvc(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, CardCvc, cfg)
}

// NewPayment creates a payment form widget covering every enabled payment method.
func NewPayment(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, Payment, cfg)
}

// NewAddress creates an address collection widget.
func NewAddress(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, Address, cfg)
}

// NewLinkAuthentication creates an email widget that signs in saved payment details.
func NewLinkAuthentication(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, LinkAuthentication, cfg)
}

// NewExpressCheckout creates a one-click wallet button widget.
func NewExpressCheckout(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, ExpressCheckout, cfg)
}

// NewIban creates an IBAN widget. supportedCountries defaults to SEPA.
func NewIban(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, Iban, cfg)
}

// NewIdealBank creates an iDEAL bank selector.
func NewIdealBank(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, IdealBank, cfg)
}

// NewP24Bank creates a Przelewy24 bank selector.
func NewP24Bank(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, P24Bank, cfg)
}

// NewEpsBank creates an EPS bank selector.
func NewEpsBank(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, EpsBank, cfg)
}

// NewAuBankAccount creates an Australian BECS bank account widget.
func NewAuBankAccount(parent *scope.Scope, cfg element.Config) (*element.Controller, error) {
	return element.New(parent, AuBankAccount, cfg)
}
