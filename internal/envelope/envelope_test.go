package envelope

import (
	"testing"
	"time"
)

func TestBodyStripsHTML(t *testing.T) {
	env := Envelope{Payload: map[string]any{
		"body": "<p>Where is my <b>order</b>?</p>",
	}}

	// Tag boundaries become spaces so words never merge across markup.
	got := env.Body()
	if got != "Where is my order ?" {
		t.Fatalf("Body() = %q, want markup stripped", got)
	}
}

func TestLatestCommentReturnsLast(t *testing.T) {
	env := Envelope{Payload: map[string]any{
		"comments": []any{
			map[string]any{"body": "first message"},
			map[string]any{"body": "second message"},
		},
	}}

	if got := env.LatestComment(); got != "second message" {
		t.Fatalf("LatestComment() = %q, want %q", got, "second message")
	}
}

func TestMessagesSkipsEmptyEntries(t *testing.T) {
	env := Envelope{Payload: map[string]any{
		"messages": []any{
			map[string]any{"body": "hello"},
			map[string]any{"author": "agent"},
			"plain string entry",
		},
	}}

	got := env.Messages()
	if len(got) != 2 {
		t.Fatalf("Messages() returned %d entries, want 2: %v", len(got), got)
	}
	if got[0] != "hello" || got[1] != "plain string entry" {
		t.Fatalf("Messages() = %v", got)
	}
}

func TestCustomerEmailFallsBackToNested(t *testing.T) {
	env := Envelope{Payload: map[string]any{
		"customer": map[string]any{"email": "jo@example.com"},
	}}

	if got := env.CustomerEmail(); got != "jo@example.com" {
		t.Fatalf("CustomerEmail() = %q", got)
	}
}

func TestParseTime(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"2026-08-28T10:00:00Z", time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC), true},
		{"2026-08-28", time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), true},
		{"1756375200", time.Unix(1756375200, 0).UTC(), true},
		{"not-a-date", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseTime(tc.raw)
		if ok != tc.ok {
			t.Fatalf("ParseTime(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("ParseTime(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestStringFieldRendersNumbers(t *testing.T) {
	m := map[string]any{"order_id": float64(1057300)}
	if got := StringField(m, "order_id"); got != "1057300" {
		t.Fatalf("StringField = %q, want %q", got, "1057300")
	}
}
