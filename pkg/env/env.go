// Package env reads process environment overrides that sit outside the
// structured config tree, such as log formatting toggles.
package env

import "os"

// Get looks up key and falls back when it is unset or empty.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
