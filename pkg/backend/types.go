package backend

// PaymentIntentRequest is the body of POST /payment-intent and the regional
// intent endpoints.
type PaymentIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
	// PaymentMethodTypes restricts the intent. Empty enables automatic
	// payment methods.
	PaymentMethodTypes []string `json:"paymentMethodTypes,omitempty"`
	Customer           string   `json:"customer,omitempty"`
	ReceiptEmail       string   `json:"receiptEmail,omitempty"`
}

// SetupIntentRequest is the body of POST /setup-intent.
type SetupIntentRequest struct {
	Customer           string   `json:"customer,omitempty"`
	PaymentMethodTypes []string `json:"paymentMethodTypes,omitempty"`
}

// Intent is the client-facing part of a payment or setup intent.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status,omitempty"`
}

// CheckoutSessionRequest is the body of POST /checkout-session.
type CheckoutSessionRequest struct {
	PriceID       string `json:"priceId"`
	Quantity      int64  `json:"quantity,omitempty"`
	Mode          string `json:"mode,omitempty"`
	SuccessURL    string `json:"successUrl"`
	CancelURL     string `json:"cancelUrl"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// CheckoutSession is a created hosted checkout session.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url,omitempty"`
}

// SubscriptionRequest is the body of POST /subscription.
type SubscriptionRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	PriceID string `json:"priceId"`
}

// Subscription is an incomplete subscription awaiting its first payment.
type Subscription struct {
	ID           string `json:"subscriptionId"`
	CustomerID   string `json:"customerId"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status,omitempty"`
}

// Product is a purchasable product with its default price.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	PriceID     string   `json:"priceId,omitempty"`
	UnitAmount  int64    `json:"unitAmount"`
	Currency    string   `json:"currency"`
	// Interval is set for recurring prices ("month", "year").
	Interval string `json:"interval,omitempty"`
}

// ClientConfig is served by GET /config.
type ClientConfig struct {
	PublishableKey string `json:"publishableKey"`
	Currency       string `json:"currency"`
}
