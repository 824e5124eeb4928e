package payments

import (
	"math"
	"regexp"
	"strings"
)

// The matching heuristic lives here, isolated from transport code, so its
// false-positive/negative behavior can be unit-tested on its own. Bank UIs
// and gateways mangle transfer-reference text (truncation, stripped
// underscores), hence the ordered list of progressively looser patterns.

var (
	sessionTokenRe = regexp.MustCompile(`(?i)SESSION\d+`)
	orderCodeRe    = regexp.MustCompile(`(?i)ORD\d{3,6}`)
	sessionDigits  = regexp.MustCompile(`\d+`)
)

// candidatePatterns derives the search patterns for a session identifier,
// most specific first: the full id, the id with underscores stripped, the
// SESSION-prefixed numeric part, and the bare numeric part.
func candidatePatterns(sessionID string) []string {
	patterns := []string{sessionID}

	stripped := strings.ReplaceAll(sessionID, "_", "")
	if stripped != sessionID {
		patterns = append(patterns, stripped)
	}

	if digits := sessionDigits.FindString(sessionID); digits != "" {
		prefixed := "SESSION" + digits
		if prefixed != sessionID && prefixed != stripped {
			patterns = append(patterns, prefixed)
		}
		patterns = append(patterns, digits)
	}

	return patterns
}

// amountMatches applies the absolute tolerance shared by the ledger poller
// and the webhook handler.
func amountMatches(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}

// descriptionMatches reports whether a free-text ledger description refers to
// any of the candidate patterns. First match wins; no disambiguation between
// multiple candidate rows is attempted.
func descriptionMatches(description string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern != "" && strings.Contains(description, pattern) {
			return true
		}
	}
	return false
}

// ExtractSessionToken pulls a session identifier out of free-text transfer
// content. Returns "" when no token is present; callers treat that as "no
// identifiable session", not an error.
func ExtractSessionToken(content string) string {
	return strings.ToUpper(sessionTokenRe.FindString(content))
}

// ExtractOrderCode pulls a legacy order code (fixed ORD prefix plus a 3-6
// digit suffix) out of free-text transfer content.
func ExtractOrderCode(content string) string {
	return strings.ToUpper(orderCodeRe.FindString(content))
}
