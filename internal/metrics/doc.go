// Package metrics provides build and live-reload metrics for sssg.
//
// Components receive a Recorder and default to NoopRecorder, so metrics stay
// optional without nil checks at every call site:
//
//	engine := build.NewEngine(paths, build.WithRecorder(metrics.NoopRecorder{}))
//
// When metrics are enabled the dev command constructs a PrometheusRecorder on
// a private registry and mounts HTTPHandler on the dev server.
package metrics
