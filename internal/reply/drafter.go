package reply

import (
	"fmt"
	"strings"
	"time"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/orders"
)

// Fields reported when order context is insufficient to draft.
const (
	MissingOrderID        = "order_id"
	MissingCreatedAt      = "created_at"
	MissingShippingSignal = "tracking_or_shipping_method"
)

// Draft is a prepared order-status reply. Estimate is nil for tracking
// replies, which answer with the tracking number instead of a window.
type Draft struct {
	Body     string    `json:"body"`
	Estimate *Estimate `json:"delivery_estimate,omitempty"`
}

// Drafter builds order-status reply bodies from a resolved summary.
type Drafter struct {
	signature string
}

// NewDrafter creates a drafter signing replies with the given team name.
func NewDrafter(signature string) *Drafter {
	if signature == "" {
		signature = "Customer Support"
	}
	return &Drafter{signature: signature}
}

// MissingContextField reports the first required order signal the summary
// lacks: a real order id that is not the conversation id, a creation
// date, and either tracking or a shipping-method bucket. Empty means the
// summary is complete enough to draft from.
func MissingContextField(summary orders.Summary, conversationID string) string {
	if !summary.HasOrderID() || summary.OrderID == conversationID {
		return MissingOrderID
	}
	if _, ok := envelope.ParseTime(summary.CreatedAt); !ok {
		return MissingCreatedAt
	}
	if summary.TrackingNumber == "" && NormalizeBucket(summary.ShippingMethod) == "" {
		return MissingShippingSignal
	}
	return ""
}

// Draft builds the reply for a summary. The second return value names
// the missing context field when no draft can be produced.
func (d *Drafter) Draft(summary orders.Summary, conversationID string, ticketCreatedAt time.Time) (Draft, string) {
	if field := MissingContextField(summary, conversationID); field != "" {
		return Draft{}, field
	}

	if summary.TrackingNumber != "" {
		return Draft{Body: d.trackingBody(summary)}, ""
	}

	orderCreatedAt, _ := envelope.ParseTime(summary.CreatedAt)
	estimate := ComputeEstimate(orderCreatedAt, summary.ShippingMethod, ticketCreatedAt)
	return Draft{Body: d.noTrackingBody(summary, estimate), Estimate: &estimate}, ""
}

func (d *Drafter) trackingBody(summary orders.Summary) string {
	var sb strings.Builder
	sb.WriteString("Hi there,\n\n")
	sb.WriteString(fmt.Sprintf("Thanks for reaching out about order #%s. Good news: it has shipped", summary.OrderID))
	if summary.Carrier != "" {
		sb.WriteString(" via " + summary.Carrier)
	}
	sb.WriteString(".\n\n")
	sb.WriteString(fmt.Sprintf("Tracking number: %s\n", summary.TrackingNumber))
	if summary.ShippingMethod != "" {
		sb.WriteString(fmt.Sprintf("Shipping method: %s\n", summary.ShippingMethod))
	}
	sb.WriteString("\nYou can use the tracking number on the carrier's website for the latest scan updates.\n\n")
	sb.WriteString("Best,\n")
	sb.WriteString(d.signature)
	return sb.String()
}

func (d *Drafter) noTrackingBody(summary orders.Summary, estimate Estimate) string {
	var sb strings.Builder
	sb.WriteString("Hi there,\n\n")
	sb.WriteString(fmt.Sprintf("Thanks for reaching out about order #%s. ", summary.OrderID))
	if estimate.IsLate {
		sb.WriteString("We're sorry the delivery is taking longer than expected. ")
		sb.WriteString("We've flagged your order with our fulfillment team to find out what's holding it up.\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Your order is on its way and should arrive within %s of the order date.\n\n", estimate.EtaHuman))
	}
	if summary.ShippingMethod != "" {
		sb.WriteString(fmt.Sprintf("Shipping method: %s\n", summary.ShippingMethod))
	}
	sb.WriteString(fmt.Sprintf("Estimated delivery window: %s\n", estimate.EtaHuman))
	sb.WriteString("\nWe'll follow up as soon as tracking information is available.\n\n")
	sb.WriteString("Best,\n")
	sb.WriteString(d.signature)
	return sb.String()
}
