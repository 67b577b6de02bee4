package reply

import (
	"net/url"
	"regexp"
	"strings"
)

// Token extraction backing the preserve-or-reject rewrite check. Every
// URL, tracking-like token, and ETA window found in the original draft
// must reappear verbatim in the rewritten body.

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

var labeledTrackingPattern = regexp.MustCompile(
	`(?i)\btracking(?:\s+number|\s+no\.?|\s*#)?\s*[:#]?\s*([A-Za-z0-9]{6,})`)

// Query parameters known to carry tracking numbers.
var trackingQueryParams = []string{
	"tracknum", "tracking", "trackingnumber", "tracking_number",
	"tracknumbers", "track", "num", "trackingid",
}

var etaRangePattern = regexp.MustCompile(`\b\d+\s*-\s*\d+\s+business\s+days?\b`)
var etaSinglePattern = regexp.MustCompile(`\b\d+\s+(?:business\s+)?days?\b`)

// trackingLike reports whether a token is alphanumeric, at least six
// characters, and contains at least one digit.
func trackingLike(token string) bool {
	if len(token) < 6 {
		return false
	}
	hasDigit := false
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return hasDigit
}

// ExtractURLs returns all URLs in the body, in order, deduplicated.
func ExtractURLs(body string) []string {
	return dedupe(urlPattern.FindAllString(body, -1))
}

// ExtractTrackingTokens returns tracking-like tokens from labeled text
// and from the query parameters and path segments of URLs in the body.
func ExtractTrackingTokens(body string) []string {
	var tokens []string

	for _, m := range labeledTrackingPattern.FindAllStringSubmatch(body, -1) {
		if trackingLike(m[1]) {
			tokens = append(tokens, m[1])
		}
	}

	for _, raw := range urlPattern.FindAllString(body, -1) {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		for _, param := range trackingQueryParams {
			for _, v := range u.Query()[param] {
				if trackingLike(v) {
					tokens = append(tokens, v)
				}
			}
		}
		for _, segment := range strings.Split(u.Path, "/") {
			if trackingLike(segment) {
				tokens = append(tokens, segment)
			}
		}
	}

	return dedupe(tokens)
}

// ExtractETAWindows returns ETA phrases in the body. Range windows are
// extracted first and masked so their trailing half does not also match
// as a single-number window.
func ExtractETAWindows(body string) []string {
	windows := etaRangePattern.FindAllString(body, -1)
	masked := etaRangePattern.ReplaceAllString(body, "")
	windows = append(windows, etaSinglePattern.FindAllString(masked, -1)...)
	return dedupe(windows)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
