package env

import (
	"os"
	"strings"
)

// Prefix namespaces the process-level variables read outside pkg/config.
const Prefix = "YARDOPS_"

// Get looks up Prefix+key, then the bare key (platform variables such as
// PORT or DYNO), then returns fallback. Blank values count as unset.
func Get(key, fallback string) string {
	key = strings.TrimPrefix(key, Prefix)
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
