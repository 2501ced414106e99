// Package link maintains the agent's persistent WebSocket to the relay.
//
// The link reconnects with a fixed delay whenever the transport drops, sends
// a ping frame at the configured heartbeat interval, and logs every payload
// the relay pushes back. Reports are buffered while the link is down; when
// the buffer fills, the oldest report is evicted.
package link
