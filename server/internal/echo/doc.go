// Package echo implements the text echo/broadcast service used to smoke-test
// WebSocket connectivity from embedded devices. Every client is greeted on
// connect; payloads are opaque text and are never parsed.
package echo
