// Package metrics defines the sinks that observe scheduling runs. Sinks like
// PromSink and InfluxSink record run outcomes, chosen assignments and solver
// progress, and can be combined with NewMultiSink. The factory helpers return
// a MultiSink automatically when multiple sinks are configured.
package metrics
