package backend

import (
	"context"
	stderrors "errors"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/vango-dev/payelements/internal/errors"
)

// StripeGateway implements Gateway with the Stripe server API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a gateway authenticated with secretKey. A nil
// backends uses the default Stripe endpoints.
func NewStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api}
}

// CreatePaymentIntent implements Gateway.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	params.Context = ctx
	if len(req.PaymentMethodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(req.PaymentMethodTypes)
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}
	if req.Customer != "" {
		params.Customer = stripe.String(req.Customer)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, providerError("create payment intent", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

// CreateSetupIntent implements Gateway.
func (g *StripeGateway) CreateSetupIntent(ctx context.Context, req SetupIntentRequest) (*Intent, error) {
	params := &stripe.SetupIntentParams{}
	params.Context = ctx
	if len(req.PaymentMethodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(req.PaymentMethodTypes)
	} else {
		params.AutomaticPaymentMethods = &stripe.SetupIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}
	if req.Customer != "" {
		params.Customer = stripe.String(req.Customer)
	}

	si, err := g.api.SetupIntents.New(params)
	if err != nil {
		return nil, providerError("create setup intent", err)
	}
	return &Intent{ID: si.ID, ClientSecret: si.ClientSecret, Status: string(si.Status)}, nil
}

// CreateCheckoutSession implements Gateway.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(req.Mode),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(req.Quantity),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, providerError("create checkout session", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CreateSubscription implements Gateway.
func (g *StripeGateway) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	cparams := &stripe.CustomerParams{Email: stripe.String(req.Email)}
	cparams.Context = ctx
	if req.Name != "" {
		cparams.Name = stripe.String(req.Name)
	}
	cust, err := g.api.Customers.New(cparams)
	if err != nil {
		return nil, providerError("create customer", err)
	}

	params := &stripe.SubscriptionParams{
		Customer:        stripe.String(cust.ID),
		Items:           []*stripe.SubscriptionItemsParams{{Price: stripe.String(req.PriceID)}},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := g.api.Subscriptions.New(params)
	if err != nil {
		return nil, providerError("create subscription", err)
	}
	out := &Subscription{ID: sub.ID, CustomerID: cust.ID, Status: string(sub.Status)}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		out.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out, nil
}

// ListProducts implements Gateway. Only active products are listed.
func (g *StripeGateway) ListProducts(ctx context.Context) ([]Product, error) {
	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.Limit = stripe.Int64(100)
	params.AddExpand("data.default_price")

	var out []Product
	it := g.api.Products.List(params)
	for it.Next() {
		out = append(out, productFromStripe(it.Product()))
	}
	if err := it.Err(); err != nil {
		return nil, providerError("list products", err)
	}
	return out, nil
}

func productFromStripe(p *stripe.Product) Product {
	out := Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Images:      p.Images,
	}
	if price := p.DefaultPrice; price != nil {
		out.PriceID = price.ID
		out.UnitAmount = price.UnitAmount
		out.Currency = string(price.Currency)
		if price.Recurring != nil {
			out.Interval = string(price.Recurring.Interval)
		}
	}
	return out
}

func providerError(op string, err error) error {
	e := errors.New("P071").WithDetail(op).Wrap(err)
	var se *stripe.Error
	if stderrors.As(err, &se) {
		e = e.WithMessage("%s", se.Msg)
	}
	return e
}
