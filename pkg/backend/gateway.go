package backend

import "context"

// Gateway is the provider server API the endpoints proxy to.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*Intent, error)
	CreateSetupIntent(ctx context.Context, req SetupIntentRequest) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	// CreateSubscription creates a customer and an incomplete subscription
	// whose first invoice is paid with the returned client secret.
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

// Catalog lists products.
type Catalog interface {
	Products(ctx context.Context) ([]Product, error)
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func(ctx context.Context) ([]Product, error)

// Products implements Catalog.
func (f CatalogFunc) Products(ctx context.Context) ([]Product, error) {
	return f(ctx)
}
