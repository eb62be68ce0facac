package instance

import (
	"os"

	"github.com/angelmondragon/yardops-backend/pkg/env"
)

// GetID names this process in logs and consumer idempotency markers. It reads
// YARDOPS_WORKER_ID, then the platform's DYNO, then the hostname.
func GetID() string {
	for _, key := range []string{"WORKER_ID", "DYNO"} {
		if id := env.Get(key, ""); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
