package recorder

import (
	"net/http"
	"strings"
)

// RedactedValue replaces the value of a captured sensitive header.
const RedactedValue = "[REDACTED]"

// DefaultRedactedHeaders returns the headers redacted when no explicit list
// is configured. These are the headers that commonly carry credentials.
func DefaultRedactedHeaders() []string {
	return []string{"Authorization", "Cookie", "Proxy-Authorization"}
}

// RedactHeaderMap flattens request headers into a map suitable for storage.
// Multi-valued headers are joined with ", ". Headers named in redact have
// their values replaced with RedactedValue; matching is case-insensitive.
// Non-redacted values are truncated to maxLen.
func RedactHeaderMap(h http.Header, redact []string, maxLen int) map[string]string {
	if len(h) == 0 {
		return nil
	}

	redacted := make(map[string]bool, len(redact))
	for _, name := range redact {
		redacted[strings.ToLower(name)] = true
	}

	out := make(map[string]string, len(h))
	for name, values := range h {
		if redacted[strings.ToLower(name)] {
			out[name] = RedactedValue
			continue
		}
		out[name] = TruncateString(strings.Join(values, ", "), maxLen)
	}

	return out
}

// TruncateString truncates a string to the specified maximum length.
// If the string is longer than maxLen, it is truncated and "..." is appended.
//
// Returns the original string if it's shorter than maxLen.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}
