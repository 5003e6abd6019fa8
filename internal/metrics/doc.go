// Package metrics defines the observability hooks of the compile pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks:
//
//	p := docpress.New(cfg, docpress.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the given registry and
// HTTPHandler exposes that registry for scraping.
package metrics
