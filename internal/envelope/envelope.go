// Package envelope defines the normalized inbound ticket event consumed by
// the pipeline. Envelopes are created by the ingestion layer and are
// read-only from that point on.
package envelope

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/KevinSGarrett/RichPanel-sub000/platform/sanitize"
)

// Envelope is the normalized representation of an inbound ticket event.
type Envelope struct {
	EventID        string         `json:"event_id"`
	ConversationID string         `json:"conversation_id"`
	ReceivedAt     time.Time      `json:"received_at"`
	Source         string         `json:"source"`
	Payload        map[string]any `json:"payload"`
}

// Subject returns the ticket subject line, if present.
func (e Envelope) Subject() string {
	return sanitize.Text(StringField(e.Payload, "subject", "title"))
}

// Body returns the primary message body as plain text. Email-derived
// payloads carry HTML fragments; scanning operates on stripped text.
func (e Envelope) Body() string {
	return sanitize.Text(StringField(e.Payload, "body", "message", "text", "description"))
}

// LatestComment returns the body of the most recent comment, if any.
func (e Envelope) LatestComment() string {
	comments := sliceField(e.Payload, "comments")
	if len(comments) == 0 {
		return ""
	}
	last, ok := comments[len(comments)-1].(map[string]any)
	if !ok {
		return ""
	}
	return sanitize.Text(StringField(last, "body", "text", "message"))
}

// Messages returns the bodies of the message list, oldest first.
func (e Envelope) Messages() []string {
	raw := sliceField(e.Payload, "messages")
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, sanitize.Text(s))
			}
			continue
		}
		if body := sanitize.Text(StringField(m, "body", "text", "message")); body != "" {
			out = append(out, body)
		}
	}
	return out
}

// CustomerEmail returns the structured customer email, if present.
func (e Envelope) CustomerEmail() string {
	if email := StringField(e.Payload, "customer_email", "customerEmail", "email"); email != "" {
		return email
	}
	if customer, ok := MapField(e.Payload, "customer", "from", "requester"); ok {
		return StringField(customer, "email", "customer_email")
	}
	return ""
}

// CustomerName returns the structured customer name, if present.
func (e Envelope) CustomerName() string {
	if name := StringField(e.Payload, "customer_name", "customerName"); name != "" {
		return name
	}
	if customer, ok := MapField(e.Payload, "customer", "from", "requester"); ok {
		return StringField(customer, "name", "full_name", "fullName")
	}
	return ""
}

// TicketCreatedAt returns the ticket creation time when the payload carries
// one in a recognized format.
func (e Envelope) TicketCreatedAt() (time.Time, bool) {
	raw := StringField(e.Payload, "created_at", "createdAt", "ticket_created_at")
	if raw == "" {
		return time.Time{}, false
	}
	return ParseTime(raw)
}

// ParseTime parses the timestamp formats seen in ticket payloads.
func ParseTime(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}

// StringField returns the first non-empty string-convertible value among the
// given keys. Numeric JSON values are rendered without an exponent, since
// identifiers frequently arrive as numbers.
func StringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s := Stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// MapField returns the first nested map among the given keys.
func MapField(m map[string]any, keys ...string) (map[string]any, bool) {
	for _, key := range keys {
		if nested, ok := m[key].(map[string]any); ok {
			return nested, true
		}
	}
	return nil, false
}

func sliceField(m map[string]any, key string) []any {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	return raw
}

// Stringify renders scalar payload values as strings.
func Stringify(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}
