// Package reply drafts order-status replies, computes delivery
// estimates, and validates optional LLM rewrites against the original.
package reply

import (
	"fmt"
	"strings"
	"time"
)

// Shipping-method buckets with their business-day windows.
const (
	BucketExpedited = "expedited"
	BucketStandard  = "standard"
	BucketEconomy   = "economy"
)

// Estimate is the delivery window computed for a no-tracking reply.
type Estimate struct {
	WindowMinDays int    `json:"window_min_days"`
	WindowMaxDays int    `json:"window_max_days"`
	Bucket        string `json:"bucket"`
	IsLate        bool   `json:"is_late"`
	EtaHuman      string `json:"eta_human"`
}

var expeditedMarkers = []string{"express", "expedited", "overnight", "next day", "2nd day", "second day", "priority"}
var economyMarkers = []string{"economy", "surepost", "smartpost", "mail innovations", "budget"}

// NormalizeBucket maps a raw shipping-method string onto a bucket.
// Empty input has no bucket.
func NormalizeBucket(shippingMethod string) string {
	method := strings.ToLower(strings.TrimSpace(shippingMethod))
	if method == "" {
		return ""
	}
	for _, marker := range expeditedMarkers {
		if strings.Contains(method, marker) {
			return BucketExpedited
		}
	}
	for _, marker := range economyMarkers {
		if strings.Contains(method, marker) {
			return BucketEconomy
		}
	}
	return BucketStandard
}

func bucketWindow(bucket string) (int, int) {
	switch bucket {
	case BucketExpedited:
		return 1, 3
	case BucketEconomy:
		return 5, 8
	default:
		return 3, 5
	}
}

// ComputeEstimate derives the delivery window for an order. The order is
// late when the ticket was opened after the outer edge of the window,
// counted in business days from the order date.
func ComputeEstimate(orderCreatedAt time.Time, shippingMethod string, ticketCreatedAt time.Time) Estimate {
	bucket := NormalizeBucket(shippingMethod)
	if bucket == "" {
		bucket = BucketStandard
	}
	minDays, maxDays := bucketWindow(bucket)

	due := AddBusinessDays(orderCreatedAt, maxDays)
	return Estimate{
		WindowMinDays: minDays,
		WindowMaxDays: maxDays,
		Bucket:        bucket,
		IsLate:        ticketCreatedAt.After(due),
		EtaHuman:      fmt.Sprintf("%d-%d business days", minDays, maxDays),
	}
}

// AddBusinessDays advances t by n weekdays, skipping Saturday and Sunday.
func AddBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		switch t.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			n--
		}
	}
	return t
}
