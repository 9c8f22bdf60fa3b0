package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the library collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "payelements").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "payelements",
		Registry:  prometheus.DefaultRegisterer,
	}
}

type collectors struct {
	providerLoads   *prometheus.CounterVec
	groupsCreated   prometheus.Counter
	widgetsCreated  *prometheus.CounterVec
	widgetsLive     *prometheus.GaugeVec
	widgetErrors    *prometheus.CounterVec
	widgetUpdates   *prometheus.CounterVec
	widgetRecreates *prometheus.CounterVec
	redirects       *prometheus.CounterVec
	bridgeCalls     *prometheus.CounterVec
}

var (
	global   *collectors
	globalMu sync.Mutex
)

// Init registers the collectors. Later calls are no-ops until Reset.
// Record functions do nothing before Init, so library users who do not
// scrape metrics pay nothing.
func Init(opts ...Option) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		return
	}
	global = newCollectors(config)
}

// Reset forgets the registered collectors. The registry keeps them; tests
// pass a fresh registry to the next Init.
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = nil
}

func current() *collectors {
	globalMu.Lock()
	defer globalMu.Unlock()
	return global
}

func newCollectors(config Config) *collectors {
	factory := promauto.With(config.Registry)
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &collectors{
		providerLoads: counterVec("provider_loads_total",
			"Provider SDK loads by status", "status"),
		groupsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "element_groups_created_total",
			Help:        "Elements groups created, including recreations",
			ConstLabels: config.ConstLabels,
		}),
		widgetsCreated: counterVec("widgets_created_total",
			"Widgets created by kind", "kind"),
		widgetsLive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "widgets_live",
			Help:        "Widgets currently created and not destroyed, by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
		widgetErrors: counterVec("widget_errors_total",
			"Widget failures by kind and stage", "kind", "stage"),
		widgetUpdates: counterVec("widget_option_updates_total",
			"In-place widget option updates by kind", "kind"),
		widgetRecreates: counterVec("widget_recreations_total",
			"Widgets recreated after a group change, by kind", "kind"),
		redirects: counterVec("checkout_redirects_total",
			"Checkout redirects by mode and status", "mode", "status"),
		bridgeCalls: counterVec("bridge_calls_total",
			"Bridge calls by operation and status", "op", "status"),
	}
}

// RecordProviderLoad records a provider load outcome ("ready" or "error").
func RecordProviderLoad(status string) {
	if m := current(); m != nil {
		m.providerLoads.WithLabelValues(status).Inc()
	}
}

// RecordGroupCreated records an elements group creation.
func RecordGroupCreated() {
	if m := current(); m != nil {
		m.groupsCreated.Inc()
	}
}

// RecordWidgetCreated records a widget creation.
func RecordWidgetCreated(kind string) {
	if m := current(); m != nil {
		m.widgetsCreated.WithLabelValues(kind).Inc()
		m.widgetsLive.WithLabelValues(kind).Inc()
	}
}

// RecordWidgetDestroyed records a widget destruction.
func RecordWidgetDestroyed(kind string) {
	if m := current(); m != nil {
		m.widgetsLive.WithLabelValues(kind).Dec()
	}
}

// RecordWidgetError records a widget failure at a stage ("create", "mount",
// "input").
func RecordWidgetError(kind, stage string) {
	if m := current(); m != nil {
		m.widgetErrors.WithLabelValues(kind, stage).Inc()
	}
}

// RecordWidgetUpdate records an in-place option update.
func RecordWidgetUpdate(kind string) {
	if m := current(); m != nil {
		m.widgetUpdates.WithLabelValues(kind).Inc()
	}
}

// RecordWidgetRecreate records a recreation after a group change.
func RecordWidgetRecreate(kind string) {
	if m := current(); m != nil {
		m.widgetRecreates.WithLabelValues(kind).Inc()
	}
}

// RecordRedirect records a checkout redirect outcome.
func RecordRedirect(mode, status string) {
	if m := current(); m != nil {
		m.redirects.WithLabelValues(mode, status).Inc()
	}
}

// RecordBridgeCall records a bridge call outcome.
func RecordBridgeCall(op, status string) {
	if m := current(); m != nil {
		m.bridgeCalls.WithLabelValues(op, status).Inc()
	}
}
