// Package infra holds the adapters the scheduler talks to the outside
// world through: Prometheus and InfluxDB sinks, the MQTT publisher, the
// Redis schedule cache, Sentry reporting and zerolog. Core packages only
// see their interfaces.
package infra
