// Package env reads process settings that must be known before config.Load,
// such as the log format.
package env

import "os"

// Prefix namespaces every variable this service reads.
const Prefix = "BAKERY_"

// Get returns BAKERY_<key>, then the bare key, then fallback.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return fallback
}
