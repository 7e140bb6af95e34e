package instance

import (
	"os"
	"strings"
)

const fallbackID = "local"

// ID identifies this process in logs and lock ownership. SHAREIT_INSTANCE_ID
// wins, then the host name.
func ID() string {
	if id := strings.TrimSpace(os.Getenv("SHAREIT_INSTANCE_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
