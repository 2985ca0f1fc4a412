package core

import (
	"net/url"
	"strings"
)

const RedactedValue = "[REDACTED]"

// RedactURL keeps scheme, host and path of raw and drops the query and
// fragment. Offer queries can carry pre-authorized codes and must not reach
// logs or the journal.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		prefix, _, found := strings.Cut(raw, "?")
		if !found {
			prefix, _, found = strings.Cut(raw, "#")
		}
		if found {
			return prefix + "?" + RedactedValue
		}
		return prefix
	}
	hadQuery := parsed.RawQuery != "" || parsed.ForceQuery || parsed.Fragment != ""
	parsed.RawQuery = ""
	parsed.ForceQuery = false
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.User = nil
	out := parsed.String()
	if hadQuery {
		out += "?" + RedactedValue
	}
	return out
}

// redactToken keeps a short prefix so log lines can be correlated without
// exposing the full state value.
func redactToken(token string) string {
	if token == "" {
		return ""
	}
	const visible = 4
	if len(token) <= visible {
		return strings.Repeat("*", len(token))
	}
	return token[:visible] + "..."
}
