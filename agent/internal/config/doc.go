// Package config loads and validates the agent side of config.yaml, and can
// watch the file for changes. The relay URL, probe list, and all interval
// settings live here; defaults reproduce the original device sketches
// (30s reports, fixed 5s reconnect delay).
package config
