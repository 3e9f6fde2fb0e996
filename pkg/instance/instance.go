// Package instance identifies the running worker replica for log correlation.
package instance

import "os"

// GetID returns the replica identifier: WORKER_ID when set, otherwise the
// hostname, otherwise a fixed default.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
