// Package metrics records build and stage metrics for docsite.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run builds ...
//	_ = metrics.WriteTextfile(reg, "/var/lib/node_exporter/docsite.prom")
//
// Builds are short-lived processes, so the Prometheus registry is written as a
// node_exporter textfile instead of being served over HTTP.
package metrics
