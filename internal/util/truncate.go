package util

// Truncate cuts s down to at most max bytes. Used for webhook response
// bodies and upstream error bodies relayed back to callers.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
