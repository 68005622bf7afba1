// Package config holds the audit configuration: CLI flag values with
// their defaults, the per-site YAML file and API keys read from the
// environment.
package config
