package sdk

// Kind is the type tag of a widget, as understood by the remote SDK.
type Kind string

const (
	KindCard               Kind = "card"
	KindCardNumber         Kind = "cardNumber"
	KindCardExpiry         Kind = "cardExpiry"
	KindCardCvc            Kind = "cardCvc"
	KindPayment            Kind = "payment"
	KindAddress            Kind = "address"
	KindLinkAuthentication Kind = "linkAuthentication"
	KindExpressCheckout    Kind = "expressCheckout"
	KindIban               Kind = "iban"
	KindIdealBank          Kind = "idealBank"
	KindP24Bank            Kind = "p24Bank"
	KindEpsBank            Kind = "epsBank"
	KindAuBankAccount      Kind = "auBankAccount"
)

var kinds = []Kind{
	KindCard, KindCardNumber, KindCardExpiry, KindCardCvc,
	KindPayment, KindAddress, KindLinkAuthentication, KindExpressCheckout,
	KindIban, KindIdealBank, KindP24Bank, KindEpsBank, KindAuBankAccount,
}

// Kinds returns every known widget kind.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// Valid reports whether k is a known widget kind.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the SDK type tag.
func (k Kind) String() string {
	return string(k)
}
