package backend

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/payelements/internal/config"
	"github.com/vango-dev/payelements/internal/errors"
)

// maxBodySize bounds request bodies.
const maxBodySize = 64 << 10

// Options configures a Server.
type Options struct {
	// Gateway is required.
	Gateway Gateway

	// Catalog overrides Gateway.ListProducts for GET /products.
	Catalog Catalog

	// PublishableKey is handed to clients by GET /config.
	PublishableKey string

	// Currency is used when a request omits one. Default: usd.
	Currency string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves the example backend API.
type Server struct {
	gateway  Gateway
	catalog  Catalog
	pubKey   string
	currency string
	logger   *slog.Logger
}

// regional describes an intent endpoint pinned to one payment method.
type regional struct {
	path       string
	method     string
	currencies []string
}

var regionalIntents = []regional{
	{path: "/ideal-intent", method: "ideal", currencies: []string{"eur"}},
	{path: "/eps-intent", method: "eps", currencies: []string{"eur"}},
	{path: "/p24-intent", method: "p24", currencies: []string{"eur", "pln"}},
	{path: "/sepa-debit-intent", method: "sepa_debit", currencies: []string{"eur"}},
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Gateway == nil {
		return nil, errors.New("P081").WithDetail("backend gateway is nil")
	}
	s := &Server{
		gateway:  opts.Gateway,
		catalog:  opts.Catalog,
		pubKey:   opts.PublishableKey,
		currency: strings.ToLower(opts.Currency),
		logger:   opts.Logger,
	}
	if s.currency == "" {
		s.currency = config.DefaultCurrency
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.catalog == nil {
		s.catalog = CatalogFunc(s.gateway.ListProducts)
	}
	return s, nil
}

// Routes returns the API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)

	r.Get("/config", s.handleConfig)
	r.Get("/products", s.handleProducts)

	r.Post("/payment-intent", s.handlePaymentIntent)
	r.Post("/setup-intent", s.handleSetupIntent)
	r.Post("/checkout-session", s.handleCheckoutSession)
	r.Post("/subscription", s.handleSubscription)
	for _, ri := range regionalIntents {
		r.Post(ri.path, s.handleRegionalIntent(ri))
	}
	return r
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ClientConfig{PublishableKey: s.pubKey, Currency: s.currency})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.Products(r.Context())
	if err != nil {
		s.fail(w, r, errors.FromError(err, "P072"))
		return
	}
	if products == nil {
		products = []Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) handlePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req PaymentIntentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Amount <= 0 {
		s.fail(w, r, invalid("amount must be a positive integer"))
		return
	}
	if req.Currency == "" {
		req.Currency = s.currency
	}
	req.Currency = strings.ToLower(req.Currency)

	intent, err := s.gateway.CreatePaymentIntent(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

func (s *Server) handleRegionalIntent(ri regional) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PaymentIntentRequest
		if !s.decode(w, r, &req) {
			return
		}
		if req.Amount <= 0 {
			s.fail(w, r, invalid("amount must be a positive integer"))
			return
		}
		req.Currency = strings.ToLower(req.Currency)
		if req.Currency == "" {
			req.Currency = ri.currencies[0]
		}
		if !slices.Contains(ri.currencies, req.Currency) {
			s.fail(w, r, invalid("%s payments require currency %s", ri.method, strings.Join(ri.currencies, " or ")))
			return
		}
		req.PaymentMethodTypes = []string{ri.method}

		intent, err := s.gateway.CreatePaymentIntent(r.Context(), req)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, intent)
	}
}

func (s *Server) handleSetupIntent(w http.ResponseWriter, r *http.Request) {
	var req SetupIntentRequest
	if !s.decode(w, r, &req) {
		return
	}
	intent, err := s.gateway.CreateSetupIntent(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

func (s *Server) handleCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req CheckoutSessionRequest
	if !s.decode(w, r, &req) {
		return
	}
	switch {
	case req.PriceID == "":
		s.fail(w, r, invalid("priceId is required"))
		return
	case req.SuccessURL == "" || req.CancelURL == "":
		s.fail(w, r, invalid("successUrl and cancelUrl are required"))
		return
	case req.Quantity < 0:
		s.fail(w, r, invalid("quantity must not be negative"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	switch req.Mode {
	case "":
		req.Mode = "payment"
	case "payment", "subscription", "setup":
	default:
		s.fail(w, r, invalid("mode must be payment, subscription or setup"))
		return
	}

	sess, err := s.gateway.CreateCheckoutSession(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		s.fail(w, r, invalid("a valid email is required"))
		return
	}
	if req.PriceID == "" {
		s.fail(w, r, invalid("priceId is required"))
		return
	}

	sub, err := s.gateway.CreateSubscription(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// decode reads a JSON body into v. An empty body leaves v zero. It writes
// the error response and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		s.fail(w, r, errors.New("P070").Wrap(err))
		return false
	}
	return true
}

// fail logs err and writes the uniform 400 body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := errors.FromError(err, "P071")
	s.logger.Warn("backend request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"code", e.Code,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": e.Message})
}

func invalid(format string, args ...any) *errors.Error {
	return errors.New("P070").WithMessage(format, args...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
