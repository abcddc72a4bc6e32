// Package config loads the server configuration from a JSON file, applies
// defaults and environment overrides, and validates the result.
package config
