// Package config loads and validates environment-based configuration.
// Missing required values fail process startup.
package config
