package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/payelements/internal/config"
	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/backend"
	"github.com/vango-dev/payelements/pkg/bridge"
	"github.com/vango-dev/payelements/pkg/metrics"
	"github.com/vango-dev/payelements/pkg/middleware"
	"github.com/vango-dev/payelements/pkg/sdk"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr   string
		widget string
		amount int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the backend API and browser bridge",
		Long: `Run the example backend API, the browser bridge WebSocket, the bridge
shim script and the Prometheus endpoint on one listener.

Each browser that connects to the bridge gets a demo session: a payment
intent is created and the chosen widget is mounted into #payment.

Examples:
  payelements serve
  payelements serve --addr=:8080 --widget=card --amount=2500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if _, ok := widgetKind(widget); !ok {
				return errors.New("P080").WithDetailf("unknown widget %q", widget)
			}

			logger := newLogger(cfg.Log, os.Stderr)
			slog.SetDefault(logger)

			printBanner(cmd.OutOrStdout())
			return runServe(cmd.Context(), cfg, demoOptions{kind: sdk.Kind(widget), amount: amount, slot: "#payment"}, logger)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&widget, "widget", string(sdk.KindPayment), "Widget mounted in demo sessions")
	cmd.Flags().Int64Var(&amount, "amount", 1999, "Demo payment amount in minor units")

	return cmd
}

// deps are the collaborators of the server mux.
type deps struct {
	gateway  backend.Gateway
	catalog  backend.Catalog
	registry *prometheus.Registry
	session  func(*bridge.Conn)
	logger   *slog.Logger
}

func runServe(ctx context.Context, cfg *config.Config, demo demoOptions, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Init(metrics.WithRegistry(reg))

	d := deps{
		gateway:  backend.NewStripeGateway(cfg.Backend.SecretKey, nil),
		registry: reg,
		logger:   logger,
	}
	if cfg.Backend.Catalog.Enabled() {
		c := cfg.Backend.Catalog
		d.catalog = backend.NewS3Catalog(backend.NewS3Client(c, os.Getenv), c.Bucket, c.Key)
	}
	demo.gateway = d.gateway
	demo.currency = cfg.Backend.Currency
	demo.provider = cfg.Provider
	demo.logger = logger
	d.session = demoSession(demo)

	handler, err := newMux(cfg, d)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"address", cfg.Server.Addr,
			"api", cfg.Server.APIBase,
			"bridge", cfg.Server.BridgePath,
			"metrics", cfg.Server.MetricsPath,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("P090").Wrap(err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.New("P090").Wrap(err)
		}
		return nil
	}
}

// newMux assembles the HTTP surface.
func newMux(cfg *config.Config, d deps) (http.Handler, error) {
	api, err := backend.New(backend.Options{
		Gateway:        d.gateway,
		Catalog:        d.catalog,
		PublishableKey: cfg.Provider.PublishableKey,
		Currency:       cfg.Backend.Currency,
		Logger:         d.logger,
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Prometheus(
		middleware.WithRegistry(d.registry),
		middleware.WithMetricsFilter(func(r *http.Request) bool {
			return r.URL.Path != cfg.Server.MetricsPath
		}),
	))
	r.Use(middleware.OpenTelemetry(
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != cfg.Server.MetricsPath
		}),
	))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle(cfg.Server.MetricsPath, promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry}))
	r.Handle("/bridge.js", bridge.ScriptHandler())
	r.Handle(cfg.Server.BridgePath, bridge.Handler(d.session,
		bridge.WithLogger(d.logger),
		bridge.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
	))
	r.Mount(cfg.Server.APIBase, api.Routes())

	return r, nil
}
