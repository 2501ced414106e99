// Package api implements the HTTP read surface that shares the metrics port
// with the relay WebSocket endpoint.
//
// GET /api/v1/snapshot returns the most recently received relay payload
// verbatim (`{}` before the first payload). GET /api/v1/health reports uptime
// and live client counts. GET /metrics is the Prometheus exposition.
package api
