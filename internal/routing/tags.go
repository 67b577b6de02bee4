package routing

// Canonical ticket tags applied by the pipeline.
const (
	// TagAutoReplied is the loop-prevention marker applied after an
	// automated reply. Its presence blocks any further auto-reply.
	TagAutoReplied = "mw-auto-replied"

	TagOrderStatusAnswered = "mw-order-status-answered"
	TagRoutingApplied      = "mw-routing-applied"
	TagEmailSupportTeam    = "route-email-support-team"
	TagEscalatedHuman      = "mw-escalated-human"
	TagReplySent           = "mw-reply-sent"

	TagSkipOrderStatusClosed      = "mw-skip-order-status-closed"
	TagSkipFollowupAfterAutoReply = "mw-skip-followup-after-auto-reply"
	TagSkipStatusReadFailed       = "mw-skip-status-read-failed"

	TagOrderLookupFailed     = "mw-order-lookup-failed"
	TagOrderStatusSuppressed = "mw-order-status-suppressed"
	TagLLMRouted             = "mw-llm-routed"

	// TagOrderLookupMissingPrefix is completed with the missing field name,
	// e.g. "mw-order-lookup-missing:created_at".
	TagOrderLookupMissingPrefix = "mw-order-lookup-missing:"
)

// OrderLookupMissingTag builds the missing-order-context tag for a field.
func OrderLookupMissingTag(field string) string {
	return TagOrderLookupMissingPrefix + field
}

// AppendTags appends tags to a list, preserving order and dropping
// duplicates and empty values.
func AppendTags(existing []string, tags ...string) []string {
	seen := make(map[string]struct{}, len(existing)+len(tags))
	out := make([]string, 0, len(existing)+len(tags))
	for _, tag := range existing {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
