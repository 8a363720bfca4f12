// Package logging provides sanitization helpers so connection strings,
// API keys, and rendered SQL can be logged without leaking credentials.
package logging

import "regexp"

const (
	// MaxQueryLogLength caps rendered SQL in debug logs.
	MaxQueryLogLength = 100
	// Redacted replaces every matched credential in sanitized output.
	Redacted = "[REDACTED]"
)

// credentialPatterns are applied in order to every string that reaches a
// log field. Each pattern targets one way a credential leaks: key=value
// connection parameters, API keys, bearer headers echoed back in provider
// HTTP errors, and user:pass URL authorities.
var credentialPatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`), "${1}=" + Redacted},
	// 20-char minimum keeps short non-secret values like key=primary intact.
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`), "${1}=" + Redacted},
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_\.]+`), "Bearer " + Redacted},
	{regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`), "://" + Redacted + "@" + Redacted},
}

func redact(s string) string {
	for _, p := range credentialPatterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}

// SanitizeConnectionString masks credentials in a connection string so it
// can be logged.
func SanitizeConnectionString(connStr string) string {
	return redact(connStr)
}

// SanitizeError renders an error for logging with embedded credentials
// masked. Store and LLM errors routinely echo the connection string or
// API key that failed.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redact(err.Error())
}

// SanitizeQuery truncates rendered SQL to MaxQueryLogLength and masks
// anything credential-shaped that survives the cut.
func SanitizeQuery(query string) string {
	return redact(TruncateString(query, MaxQueryLogLength))
}

// TruncateString shortens s to maxLen bytes, appending an ellipsis when
// anything was cut.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
