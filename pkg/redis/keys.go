package redis

import "strings"

const keyNamespace = "yo"

// IdempotencyKey namespaces an idempotency record. Empty parts are dropped.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey("idempotency", scope, id)
}

// LockKey namespaces a distributed lock, e.g. LockKey("cron-worker", env).
func (c *Client) LockKey(parts ...string) string {
	return buildKey(append([]string{"lock"}, parts...)...)
}

func buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
