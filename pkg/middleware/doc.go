// Package middleware provides net/http observability middleware for the
// payelements server.
//
// # Prometheus
//
// Prometheus counts requests and observes their duration, labelled by chi
// route pattern, method and status:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus(middleware.WithNamespace("shop")))
//	r.Handle("/metrics", promhttp.Handler())
//
// Route labels use the matched pattern ("/api/products"), never the raw
// path, so label cardinality stays bounded. Requests that match no route
// are labelled "unmatched".
//
// # OpenTelemetry
//
// OpenTelemetry starts a server span per request, continuing any trace
// carried by the incoming headers:
//
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("shop")))
//
// The tracer comes from the global provider; configure it in main() with
// otel.SetTracerProvider before serving. Handlers reach the span through
// SpanFromContext(r.Context()).
//
// Both middlewares keep http.Hijacker working, so they can wrap the bridge
// WebSocket endpoint.
package middleware
