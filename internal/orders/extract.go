package orders

import (
	"regexp"
	"strings"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
)

// Order numbers are tried pattern by pattern; an earlier pattern match
// anywhere beats a later pattern match in an earlier text source.
type numberStrategy struct {
	name string
	re   *regexp.Regexp
}

var numberStrategies = []numberStrategy{
	{"labeled_field", regexp.MustCompile(`(?i)\borderNumber\s*[:=]\s*#?\s*(\d{3,})`)},
	{"order_number_text", regexp.MustCompile(`(?i)\border\s+number\s*[:#]?\s*#?\s*(\d{3,})`)},
	{"order_no_hash", regexp.MustCompile(`(?i)\border\s+no\.?\s*#?\s*(\d{3,})`)},
	{"order_hash", regexp.MustCompile(`(?i)\border\s*#\s*(\d{3,})`)},
	{"bare_hash", regexp.MustCompile(`#(\d{3,})\b`)},
}

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// textSources returns the envelope texts in scan order.
func textSources(env envelope.Envelope) []string {
	sources := []string{env.Subject(), env.Body(), env.LatestComment()}
	sources = append(sources, env.Messages()...)
	return sources
}

// ExtractOrderNumber scans the envelope text for an explicit order
// number and returns the number with any leading '#' stripped, plus the
// name of the strategy that matched.
func ExtractOrderNumber(env envelope.Envelope) (string, string) {
	sources := textSources(env)
	for _, strat := range numberStrategies {
		for _, text := range sources {
			if text == "" {
				continue
			}
			for _, m := range strat.re.FindAllStringSubmatch(text, -1) {
				number := strings.TrimPrefix(m[1], "#")
				// A conversation id masquerading as an order number is noise.
				if number == env.ConversationID {
					continue
				}
				return number, strat.name
			}
		}
	}
	return "", ""
}

// ExtractCustomerEmail returns the customer email from structured
// fields, falling back to the first email-shaped token in the text.
func ExtractCustomerEmail(env envelope.Envelope) string {
	if email := env.CustomerEmail(); email != "" {
		return strings.ToLower(email)
	}
	for _, text := range textSources(env) {
		if text == "" {
			continue
		}
		if m := emailPattern.FindString(text); m != "" {
			return strings.ToLower(m)
		}
	}
	return ""
}

// Payload keys recognized per summary field, in alias order.
var payloadFieldAliases = map[string][]string{
	"order_id":        {"order_id", "orderId", "orderID", "order_number", "orderNumber"},
	"status":          {"status", "order_status", "fulfillment_status", "fulfillmentStatus"},
	"tracking_number": {"tracking_number", "trackingNumber", "tracking_no", "trackingNo"},
	"carrier":         {"carrier", "tracking_company", "trackingCompany", "carrier_code", "carrierCode"},
	"shipping_method": {"shipping_method", "shippingMethod", "service", "service_code", "serviceCode"},
	"created_at":      {"created_at", "createdAt", "order_date", "orderDate"},
	"total_price":     {"total_price", "totalPrice", "total"},
	"items_count":     {"items_count", "itemsCount", "item_count", "line_items_count"},
}

// Nested containers worth descending into during the payload walk.
var payloadContainers = []string{"payload", "order", "tracking", "shipment", "data", "ticket", "conversation"}

// SummaryFromPayload walks the envelope payload breadth first and
// merges any recognized order fields into a fresh summary.
func SummaryFromPayload(env envelope.Envelope) Summary {
	summary := NewSummary()
	if env.Payload == nil {
		return summary
	}

	queue := []map[string]any{env.Payload}
	seen := 0
	for len(queue) > 0 && seen < 32 {
		node := queue[0]
		queue = queue[1:]
		seen++

		mergeNodeFields(&summary, node)

		for _, key := range payloadContainers {
			if child, ok := node[key].(map[string]any); ok {
				queue = append(queue, child)
			}
		}
		if child := firstElement(node, "orders"); child != nil {
			queue = append(queue, child)
		}
		if child := firstElement(node, "fulfillments"); child != nil {
			queue = append(queue, child)
		}
	}

	if summary.HasOrderID() && summary.Resolution.ResolvedBy == "" {
		confidence := ConfidenceMedium
		reason := ""
		if summary.HasShippingSignal() {
			confidence = ConfidenceHigh
			reason = "shipping_signal_present"
		}
		summary.Resolution = Resolution{
			ResolvedBy: ResolvedByPayload,
			Confidence: confidence,
			Reason:     reason,
		}
	}
	return summary
}

func mergeNodeFields(summary *Summary, node map[string]any) {
	for field, aliases := range payloadFieldAliases {
		for _, alias := range aliases {
			raw, ok := node[alias]
			if !ok {
				continue
			}
			value := envelope.Stringify(raw)
			if value == "" {
				continue
			}
			applyField(summary, field, value)
			break
		}
	}
}

func applyField(summary *Summary, field, value string) {
	switch field {
	case "order_id":
		if summary.OrderID == OrderIDUnknown || summary.OrderID == "" {
			summary.OrderID = strings.TrimPrefix(value, "#")
		}
	case "status":
		if summary.Status == "" {
			summary.Status = value
		}
	case "tracking_number":
		if summary.TrackingNumber == "" {
			summary.TrackingNumber = value
		}
	case "carrier":
		if summary.Carrier == "" {
			summary.Carrier = value
		}
	case "shipping_method":
		if summary.ShippingMethod == "" {
			summary.ShippingMethod = value
		}
	case "created_at":
		if summary.CreatedAt == "" {
			summary.CreatedAt = value
		}
	case "total_price":
		if summary.TotalPrice == "" {
			summary.TotalPrice = value
		}
	case "items_count":
		if summary.ItemsCount == 0 {
			summary.ItemsCount = parseCount(value)
		}
	}
}

func parseCount(v string) int {
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 100000 {
			return 0
		}
	}
	return n
}

func firstElement(node map[string]any, key string) map[string]any {
	list, ok := node[key].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	first, _ := list[0].(map[string]any)
	return first
}
