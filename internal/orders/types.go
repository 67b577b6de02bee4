// Package orders resolves the order a support conversation is about,
// merging payload hints with Shopify and ShipStation lookups.
package orders

// Resolution provenance values.
const (
	ResolvedByPayload      = "payload"
	ResolvedByOrderNumber  = "richpanel_order_number"
	ResolvedByCustomerMail = "shopify_customer_email"
	ResolvedByNoMatch      = "no_match"
)

// Resolution confidence tiers, monotonic with match specificity.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// OrderIDUnknown is the order id placeholder when nothing resolved.
const OrderIDUnknown = "unknown"

// Resolution records how an order was matched to the conversation.
type Resolution struct {
	ResolvedBy string `json:"resolvedBy"`
	Confidence string `json:"confidence"`
	Reason     string `json:"reason,omitempty"`
}

// Summary is the accumulated order view the reply drafter consumes.
// Fields fill in over successive merges; a later non-empty value wins.
type Summary struct {
	OrderID        string     `json:"order_id"`
	Status         string     `json:"status"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	Carrier        string     `json:"carrier,omitempty"`
	ShippingMethod string     `json:"shipping_method,omitempty"`
	CreatedAt      string     `json:"created_at,omitempty"`
	TotalPrice     string     `json:"total_price,omitempty"`
	ItemsCount     int        `json:"items_count"`
	Resolution     Resolution `json:"order_resolution"`

	// LookupFailed marks a transport failure during upstream lookup,
	// as opposed to a clean no-match.
	LookupFailed bool `json:"lookup_failed,omitempty"`
}

// NewSummary returns an empty summary with placeholder defaults.
func NewSummary() Summary {
	return Summary{OrderID: OrderIDUnknown, ItemsCount: 0}
}

// HasShippingSignal reports whether any shipping-related field is set.
func (s *Summary) HasShippingSignal() bool {
	return s.TrackingNumber != "" || s.Carrier != "" || s.ShippingMethod != ""
}

// HasOrderID reports whether a real order id was resolved.
func (s *Summary) HasOrderID() bool {
	return s.OrderID != "" && s.OrderID != OrderIDUnknown
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Merge overlays non-empty fields of other onto the summary.
func (s *Summary) Merge(other Summary) {
	if other.OrderID != "" && other.OrderID != OrderIDUnknown {
		s.OrderID = other.OrderID
	}
	setIfPresent(&s.Status, other.Status)
	setIfPresent(&s.TrackingNumber, other.TrackingNumber)
	setIfPresent(&s.Carrier, other.Carrier)
	setIfPresent(&s.ShippingMethod, other.ShippingMethod)
	setIfPresent(&s.CreatedAt, other.CreatedAt)
	setIfPresent(&s.TotalPrice, other.TotalPrice)
	if other.ItemsCount > 0 {
		s.ItemsCount = other.ItemsCount
	}
	if other.Resolution.ResolvedBy != "" {
		s.Resolution = other.Resolution
	}
	if other.LookupFailed {
		s.LookupFailed = true
	}
}
