// Package instance names the running process for log correlation.
package instance

import (
	"os"

	"github.com/crumbworks/bakery-backend/pkg/env"
)

// ID returns the platform dyno name, BAKERY_INSTANCE_ID, the hostname or "local".
func ID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if id := env.Get("INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
