// Package types defines shared Go types used by both the agent and server
// tests. A Report is the JSON payload an agent ships over the relay link;
// the server itself treats payloads as opaque bytes.
package types
