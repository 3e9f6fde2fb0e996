// Package env has small helpers for reading process environment variables.
package env

import "os"

// Get reads the named environment variable, returning fallback when the
// variable is unset or empty.
func Get(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
