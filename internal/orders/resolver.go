package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/shipstation"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/shopify"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/apperr"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// ShopifyAPI is the slice of the Shopify client the resolver needs.
type ShopifyAPI interface {
	GetOrder(ctx context.Context, orderID string) (*shopify.Order, error)
	FindOrderByName(ctx context.Context, name string) (*shopify.Order, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]shopify.Order, error)
}

// ShipStationAPI is the slice of the ShipStation client the resolver needs.
type ShipStationAPI interface {
	ListShipments(ctx context.Context, orderNumber string) ([]shipstation.Shipment, error)
}

// Resolver builds an order summary for a conversation. With network
// access disabled it degrades to the payload-derived baseline and stays
// fully deterministic.
type Resolver struct {
	shopify     ShopifyAPI
	shipstation ShipStationAPI
	auto        config.AutomationConfig
	log         *logger.Logger
}

// NewResolver creates a resolver. Either client may be nil.
func NewResolver(sh ShopifyAPI, ss ShipStationAPI, auto config.AutomationConfig, log *logger.Logger) *Resolver {
	return &Resolver{shopify: sh, shipstation: ss, auto: auto, log: log}
}

func (r *Resolver) networkAllowed() bool {
	return r.auto.GetAllowNetwork() && r.auto.GetAutomationEnabled() && !r.auto.GetSafeMode()
}

// Resolve runs the tiered resolution pipeline.
func (r *Resolver) Resolve(ctx context.Context, env envelope.Envelope) Summary {
	summary := SummaryFromPayload(env)

	// A payload that already carries a shipping signal is complete
	// enough to answer from.
	if summary.HasShippingSignal() {
		return summary
	}

	if !r.networkAllowed() || r.shopify == nil {
		if !summary.HasOrderID() && summary.Resolution.ResolvedBy == "" {
			summary.Resolution = Resolution{
				ResolvedBy: ResolvedByNoMatch,
				Confidence: ConfidenceLow,
				Reason:     "network_disabled",
			}
		}
		return summary
	}

	number, _ := ExtractOrderNumber(env)

	var order *shopify.Order
	switch {
	case summary.HasOrderID():
		order = r.lookupByID(ctx, summary.OrderID, &summary)
	case number != "":
		order = r.lookupByName(ctx, number, &summary)
		if order != nil {
			summary.Resolution = Resolution{
				ResolvedBy: ResolvedByOrderNumber,
				Confidence: ConfidenceHigh,
			}
			summary.OrderID = number
		}
	}

	if order == nil {
		order = r.lookupByIdentity(ctx, env, &summary)
	}

	if order == nil {
		if summary.Resolution.ResolvedBy == "" {
			summary.Resolution = Resolution{
				ResolvedBy: ResolvedByNoMatch,
				Confidence: ConfidenceLow,
				Reason:     "no_email_available",
			}
		}
		return summary
	}

	summary.Merge(summaryFromShopify(order))

	if summary.TrackingNumber == "" && r.shipstation != nil {
		lookupNumber := number
		if lookupNumber == "" {
			lookupNumber = strings.TrimPrefix(order.Name, "#")
		}
		if lookupNumber != "" {
			r.enrichFromShipStation(ctx, lookupNumber, &summary)
		}
	}
	return summary
}

func (r *Resolver) lookupByID(ctx context.Context, orderID string, summary *Summary) *shopify.Order {
	order, err := r.shopify.GetOrder(ctx, orderID)
	if err == nil {
		return order
	}
	if isNotFound(err) {
		return r.lookupByName(ctx, strings.TrimPrefix(orderID, "#"), summary)
	}
	summary.LookupFailed = true
	return nil
}

func (r *Resolver) lookupByName(ctx context.Context, number string, summary *Summary) *shopify.Order {
	order, err := r.shopify.FindOrderByName(ctx, "#"+number)
	if err != nil {
		if !isNotFound(err) {
			summary.LookupFailed = true
		}
		return nil
	}
	return order
}

func isNotFound(err error) bool {
	var ae *apperr.Error
	return errors.As(err, &ae) && ae.Kind == apperr.KindNotFound
}

func (r *Resolver) lookupByIdentity(ctx context.Context, env envelope.Envelope, summary *Summary) *shopify.Order {
	email := ExtractCustomerEmail(env)
	if email == "" {
		summary.Resolution = Resolution{
			ResolvedBy: ResolvedByNoMatch,
			Confidence: ConfidenceLow,
			Reason:     "no_email_available",
		}
		return nil
	}

	candidates, err := r.shopify.ListOrdersByEmail(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			summary.LookupFailed = true
		}
		summary.Resolution = Resolution{
			ResolvedBy: ResolvedByNoMatch,
			Confidence: ConfidenceLow,
			Reason:     "lookup_failed",
		}
		return nil
	}
	if len(candidates) == 0 {
		summary.Resolution = Resolution{
			ResolvedBy: ResolvedByNoMatch,
			Confidence: ConfidenceLow,
			Reason:     "no_orders_for_email",
		}
		return nil
	}

	if match := exactNameMatch(candidates, env.CustomerName(), email); match != nil {
		summary.Resolution = Resolution{
			ResolvedBy: ResolvedByCustomerMail,
			Confidence: ConfidenceHigh,
			Reason:     "exact_name_email_match",
		}
		return match
	}

	best := mostRecent(candidates)
	if len(candidates) == 1 {
		summary.Resolution = Resolution{
			ResolvedBy: ResolvedByCustomerMail,
			Confidence: ConfidenceHigh,
			Reason:     "unique_order_for_email",
		}
	} else {
		summary.Resolution = Resolution{
			ResolvedBy: ResolvedByCustomerMail,
			Confidence: ConfidenceMedium,
			Reason:     "most_recent_of_multiple",
		}
	}
	return best
}

func exactNameMatch(candidates []shopify.Order, name, email string) *shopify.Order {
	if name == "" {
		return nil
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i := range candidates {
		c := candidates[i].Customer
		if c == nil || !strings.EqualFold(c.Email, email) {
			continue
		}
		full := strings.ToLower(strings.TrimSpace(c.FirstName + " " + c.LastName))
		if full == want {
			return &candidates[i]
		}
	}
	return nil
}

func mostRecent(candidates []shopify.Order) *shopify.Order {
	best := &candidates[0]
	bestAt, _ := envelope.ParseTime(best.CreatedAt)
	for i := 1; i < len(candidates); i++ {
		at, ok := envelope.ParseTime(candidates[i].CreatedAt)
		if ok && at.After(bestAt) {
			best = &candidates[i]
			bestAt = at
		}
	}
	return best
}

func (r *Resolver) enrichFromShipStation(ctx context.Context, orderNumber string, summary *Summary) {
	shipments, err := r.shipstation.ListShipments(ctx, orderNumber)
	if err != nil || len(shipments) == 0 {
		return
	}
	s := shipments[0]
	// Shopify tracking has precedence; only fill what is still empty.
	if summary.TrackingNumber == "" {
		summary.TrackingNumber = s.TrackingNumber
	}
	if summary.Carrier == "" {
		summary.Carrier = s.CarrierCode
	}
	if summary.ShippingMethod == "" {
		summary.ShippingMethod = s.ServiceCode
	}
}

func summaryFromShopify(order *shopify.Order) Summary {
	s := Summary{
		OrderID:    strings.TrimPrefix(order.Name, "#"),
		Status:     order.FulfillmentStatus,
		CreatedAt:  order.CreatedAt,
		TotalPrice: order.TotalPrice.String(),
		ItemsCount: len(order.LineItems),
	}
	if s.Status == "" {
		s.Status = order.FinancialStatus
	}
	if len(order.ShippingLines) > 0 {
		s.ShippingMethod = order.ShippingLines[0].Title
	}
	if len(order.Fulfillments) > 0 {
		f := order.Fulfillments[0]
		s.TrackingNumber = f.TrackingNumber
		s.Carrier = f.TrackingCompany
	}
	return s
}
