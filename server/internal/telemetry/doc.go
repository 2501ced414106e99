// Package telemetry registers the server's Prometheus instruments: connection
// gauges, message and broadcast counters, and the malformed-payload counter.
// The exposition handler is mounted at /metrics on the API port.
package telemetry
