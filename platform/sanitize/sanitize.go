// Package sanitize provides text cleanup for inbound ticket content.
// Webhook payloads carry email-derived HTML fragments; classification
// and order-number extraction operate on plain text.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	spaceRegex   = regexp.MustCompile(`[ \t]+`)
)

// StripHTML removes all HTML tags from a string. Common entities are
// decoded first so encoded tags do not survive the strip.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, " ")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	result = strings.ReplaceAll(result, "&nbsp;", " ")
	result = htmlTagRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// Text sanitizes a string for keyword and pattern scanning by
// stripping HTML and collapsing runs of spaces and tabs.
func Text(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	return spaceRegex.ReplaceAllString(StripHTML(s), " ")
}
