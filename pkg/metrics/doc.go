// Package metrics exposes Prometheus collectors for the widget lifecycle.
//
// Collected series (namespace "payelements" by default):
//   - provider_loads_total{status}
//   - element_groups_created_total
//   - widgets_created_total{kind}, widgets_live{kind}
//   - widget_errors_total{kind,stage}
//   - widget_option_updates_total{kind}, widget_recreations_total{kind}
//   - checkout_redirects_total{mode,status}
//   - bridge_calls_total{op,status}
//
// Call Init once at startup; Record functions are no-ops before that.
package metrics
