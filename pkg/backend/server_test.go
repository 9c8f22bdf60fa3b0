package backend

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/payelements/internal/errors"
)

type fakeGateway struct {
	mu       sync.Mutex
	intents  []PaymentIntentRequest
	setups   []SetupIntentRequest
	sessions []CheckoutSessionRequest
	subs     []SubscriptionRequest
	products []Product
	err      error
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req PaymentIntentRequest) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.intents = append(g.intents, req)
	return &Intent{ID: "pi_123", ClientSecret: "pi_123_secret_abc", Status: "requires_payment_method"}, nil
}

func (g *fakeGateway) CreateSetupIntent(_ context.Context, req SetupIntentRequest) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.setups = append(g.setups, req)
	return &Intent{ID: "seti_123", ClientSecret: "seti_123_secret_abc"}, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.sessions = append(g.sessions, req)
	return &CheckoutSession{ID: "cs_test_123", URL: "https://checkout.example/cs_test_123"}, nil
}

func (g *fakeGateway) CreateSubscription(_ context.Context, req SubscriptionRequest) (*Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.subs = append(g.subs, req)
	return &Subscription{ID: "sub_123", CustomerID: "cus_123", ClientSecret: "pi_sub_secret"}, nil
}

func (g *fakeGateway) ListProducts(context.Context) ([]Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.products, g.err
}

func newTestServer(t *testing.T, g *fakeGateway, catalog Catalog) http.Handler {
	t.Helper()
	s, err := New(Options{Gateway: g, Catalog: catalog, PublishableKey: "pk_test_123"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s.Routes()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %s", rec.Body)
	}
	if len(body) != 1 {
		t.Errorf("error body has extra fields: %v", body)
	}
	return body["error"]
}

func TestNewRequiresGateway(t *testing.T) {
	_, err := New(Options{})
	if !stderrors.Is(err, errors.New("P081")) {
		t.Errorf("New() error = %v, want P081", err)
	}
}

func TestPaymentIntent(t *testing.T) {
	g := &fakeGateway{}
	h := newTestServer(t, g, nil)

	rec := do(h, http.MethodPost, "/payment-intent", `{"amount":1999,"currency":"EUR"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var intent Intent
	if err := json.Unmarshal(rec.Body.Bytes(), &intent); err != nil {
		t.Fatal(err)
	}
	if intent.ClientSecret != "pi_123_secret_abc" {
		t.Errorf("clientSecret = %q", intent.ClientSecret)
	}
	if got := g.intents[0]; got.Amount != 1999 || got.Currency != "eur" {
		t.Errorf("gateway request = %+v", got)
	}

	do(h, http.MethodPost, "/payment-intent", `{"amount":500}`)
	if got := g.intents[1].Currency; got != "usd" {
		t.Errorf("default currency = %q, want usd", got)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"missing amount", "/payment-intent", `{}`, "amount must be a positive integer"},
		{"empty body", "/payment-intent", ``, "amount must be a positive integer"},
		{"negative amount", "/ideal-intent", `{"amount":-1}`, "amount must be a positive integer"},
		{"malformed json", "/payment-intent", `{"amount":`, "Invalid request body"},
		{"wrong type", "/setup-intent", `{"customer":42}`, "Invalid request body"},
		{"eps in usd", "/eps-intent", `{"amount":100,"currency":"usd"}`, "eps payments require currency eur"},
		{"p24 in usd", "/p24-intent", `{"amount":100,"currency":"usd"}`, "p24 payments require currency eur or pln"},
		{"no price", "/checkout-session", `{"successUrl":"a","cancelUrl":"b"}`, "priceId is required"},
		{"no urls", "/checkout-session", `{"priceId":"price_1"}`, "successUrl and cancelUrl are required"},
		{"bad mode", "/checkout-session", `{"priceId":"price_1","successUrl":"a","cancelUrl":"b","mode":"rent"}`, "mode must be payment, subscription or setup"},
		{"bad email", "/subscription", `{"email":"nope","priceId":"price_1"}`, "a valid email is required"},
		{"subscription price", "/subscription", `{"email":"a@b.co"}`, "priceId is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGateway{}
			h := newTestServer(t, g, nil)
			if got := errorBody(t, do(h, http.MethodPost, tt.path, tt.body)); got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
			if len(g.intents)+len(g.setups)+len(g.sessions)+len(g.subs) != 0 {
				t.Error("gateway called for an invalid request")
			}
		})
	}
}

func TestRegionalIntents(t *testing.T) {
	tests := []struct {
		path     string
		body     string
		method   string
		currency string
	}{
		{"/ideal-intent", `{"amount":1000}`, "ideal", "eur"},
		{"/eps-intent", `{"amount":1000}`, "eps", "eur"},
		{"/p24-intent", `{"amount":1000,"currency":"PLN"}`, "p24", "pln"},
		{"/sepa-debit-intent", `{"amount":1000,"paymentMethodTypes":["card"]}`, "sepa_debit", "eur"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			g := &fakeGateway{}
			h := newTestServer(t, g, nil)
			if rec := do(h, http.MethodPost, tt.path, tt.body); rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
			got := g.intents[0]
			if len(got.PaymentMethodTypes) != 1 || got.PaymentMethodTypes[0] != tt.method {
				t.Errorf("payment method types = %v, want [%s]", got.PaymentMethodTypes, tt.method)
			}
			if got.Currency != tt.currency {
				t.Errorf("currency = %q, want %q", got.Currency, tt.currency)
			}
		})
	}
}

func TestCheckoutSessionDefaults(t *testing.T) {
	g := &fakeGateway{}
	h := newTestServer(t, g, nil)

	rec := do(h, http.MethodPost, "/checkout-session",
		`{"priceId":"price_1","successUrl":"https://shop/ok","cancelUrl":"https://shop/cancel"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"sessionId":"cs_test_123"`) {
		t.Errorf("body = %s", rec.Body)
	}
	if got := g.sessions[0]; got.Quantity != 1 || got.Mode != "payment" {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestSetupIntentAndSubscription(t *testing.T) {
	g := &fakeGateway{}
	h := newTestServer(t, g, nil)

	if rec := do(h, http.MethodPost, "/setup-intent", `{"customer":"cus_1"}`); rec.Code != http.StatusOK {
		t.Fatalf("setup-intent status = %d", rec.Code)
	}
	if g.setups[0].Customer != "cus_1" {
		t.Errorf("setup request = %+v", g.setups[0])
	}

	rec := do(h, http.MethodPost, "/subscription", `{"email":"jo@example.com","priceId":"price_basic"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("subscription status = %d: %s", rec.Code, rec.Body)
	}
	var sub Subscription
	_ = json.Unmarshal(rec.Body.Bytes(), &sub)
	if sub.ClientSecret != "pi_sub_secret" || sub.CustomerID != "cus_123" {
		t.Errorf("subscription = %+v", sub)
	}
}

func TestGatewayErrorIsUniform400(t *testing.T) {
	g := &fakeGateway{err: errors.New("P071").WithMessage("No such price: 'price_missing'")}
	h := newTestServer(t, g, nil)

	got := errorBody(t, do(h, http.MethodPost, "/checkout-session",
		`{"priceId":"price_missing","successUrl":"a","cancelUrl":"b"}`))
	if got != "No such price: 'price_missing'" {
		t.Errorf("error = %q", got)
	}

	g.err = stderrors.New("dial tcp: connection refused")
	if got := errorBody(t, do(h, http.MethodPost, "/payment-intent", `{"amount":1}`)); got != "Provider API request failed" {
		t.Errorf("plain error = %q", got)
	}
}

func TestProducts(t *testing.T) {
	g := &fakeGateway{products: []Product{{ID: "prod_1", Name: "Mug", UnitAmount: 1200, Currency: "usd"}}}

	rec := do(newTestServer(t, g, nil), http.MethodGet, "/products", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"prod_1"`) {
		t.Errorf("gateway products: %d %s", rec.Code, rec.Body)
	}

	catalog := CatalogFunc(func(context.Context) ([]Product, error) {
		return SampleProducts("eur"), nil
	})
	rec = do(newTestServer(t, g, catalog), http.MethodGet, "/products", "")
	if !strings.Contains(rec.Body.String(), "prod_sample_mug") || strings.Contains(rec.Body.String(), `"prod_1"`) {
		t.Errorf("catalog did not override gateway: %s", rec.Body)
	}

	empty := CatalogFunc(func(context.Context) ([]Product, error) { return nil, nil })
	rec = do(newTestServer(t, g, empty), http.MethodGet, "/products", "")
	if strings.TrimSpace(rec.Body.String()) != `{"products":[]}` {
		t.Errorf("empty catalog body = %s", rec.Body)
	}

	broken := CatalogFunc(func(context.Context) ([]Product, error) { return nil, stderrors.New("timeout") })
	if got := errorBody(t, do(newTestServer(t, g, broken), http.MethodGet, "/products", "")); got != "Product catalog unavailable" {
		t.Errorf("catalog error = %q", got)
	}
}

func TestConfig(t *testing.T) {
	rec := do(newTestServer(t, &fakeGateway{}, nil), http.MethodGet, "/config", "")
	var cfg ClientConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.PublishableKey != "pk_test_123" || cfg.Currency != "usd" {
		t.Errorf("config = %+v", cfg)
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Error("API responses should not be cached")
	}
}
