// Package relay implements the metrics relay service.
//
// The relay holds a single mutable snapshot: the most recently received valid
// JSON payload. On connect a client is sent the current snapshot (the literal
// `{}` when none has arrived yet). On every valid message the snapshot is
// overwritten and the payload is broadcast verbatim to the whole active set.
// Malformed JSON is logged and discarded; the snapshot is untouched, the
// connection stays open, and the sender gets no error reply.
package relay
