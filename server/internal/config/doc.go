// Package config loads and validates the server side of config.yaml.
//
// The file is shared with the agent; only the `server:` section is read here.
// Missing fields fall back to the historical fixed ports: echo on 8080,
// metrics relay and HTTP API on 8000.
package config
