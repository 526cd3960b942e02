package instance

import "github.com/targolabs/targo-backend/pkg/env"

// GetID returns the worker replica identifier used to tag logs emitted by
// background workers sharing the same deployment.
func GetID() string {
	return env.Get("TARGO_WORKER_ID", "worker-0")
}
