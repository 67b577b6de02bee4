package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
)

const sourceRichpanel = "richpanel"

// NormalizeEnvelope converts a raw webhook payload into the envelope the
// pipeline consumes. Event and conversation identifiers are pulled from
// the common field spellings; an event without its own identifier gets a
// generated one so deduplication still has a key.
func NormalizeEnvelope(raw map[string]any, receivedAt time.Time) envelope.Envelope {
	eventID := envelope.StringField(raw, "event_id", "eventId", "id")
	if eventID == "" {
		eventID = uuid.NewString()
	}

	return envelope.Envelope{
		EventID:        eventID,
		ConversationID: extractConversationID(raw),
		ReceivedAt:     receivedAt.UTC(),
		Source:         sourceRichpanel,
		Payload:        raw,
	}
}

// extractConversationID looks for a conversation identifier at the top
// level first, then inside the nested ticket and conversation objects.
func extractConversationID(raw map[string]any) string {
	if id := envelope.StringField(raw, "conversation_id", "conversationId", "ticket_id", "ticketId"); id != "" {
		return id
	}

	for _, key := range []string{"ticket", "conversation"} {
		nested, ok := envelope.MapField(raw, key)
		if !ok {
			continue
		}
		if id := envelope.StringField(nested, "id", "conversation_id", "conversationId"); id != "" {
			return id
		}
	}

	return ""
}
