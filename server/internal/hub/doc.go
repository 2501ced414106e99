// Package hub implements the connection registry shared by both WebSocket
// services.
//
// A Hub owns the active connection set for one service. Connect, message and
// close events are serialized through a single run loop and handed to one
// Handler function, so handlers observe payloads in arrival order and never
// run concurrently. Every member of the active set is open: removal happens
// synchronously with the close event inside the run loop.
//
// Broadcast and Send never block. A client whose outgoing buffer is full is
// skipped for that payload — it is neither queued behind nor disconnected.
package hub
