package writer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Retry tuning for provider rate limits. The free-tier quota window is
// roughly a minute, so the initial backoff sits just under it.
const (
	maxRetries               = 5
	initialRateLimitBackoff  = 45 * time.Second
	maxRateLimitBackoff      = 90 * time.Second
	rateLimitBackoffMultiply = 1.5
)

// isRateLimitError matches 429 responses and quota-exhaustion errors from
// either provider.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay: Xs" hints
// embedded in rate-limit error messages.
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// extractRetryDelay parses the API-suggested retry delay from an error,
// returning 0 when none is present.
func extractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// rateLimitBackoff computes the wait before retry attempt. An
// API-provided delay overrides the default base and gets a small buffer.
func rateLimitBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := initialRateLimitBackoff
	if apiDelay > 0 {
		base = apiDelay + 5*time.Second
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= rateLimitBackoffMultiply
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > maxRateLimitBackoff {
		backoff = maxRateLimitBackoff
	}
	return backoff
}
