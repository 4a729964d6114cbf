package env

import "os"

// Prefix namespaces every storefront variable.
const Prefix = "HN_"

// Get returns HN_<key>, then the bare key, then the fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(Prefix + key); val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
