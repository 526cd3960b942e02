package env

import (
	"os"
	"strings"
)

// Get reads an environment variable, falling back when it is unset or blank.
// Values are trimmed so a stray trailing newline in a secrets file does not
// leak into keys or hostnames.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
