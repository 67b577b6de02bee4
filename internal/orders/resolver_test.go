package orders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/shipstation"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/shopify"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/apperr"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

type gates struct {
	safeMode   bool
	automation bool
	network    bool
	outbound   bool
}

func (g gates) GetSafeMode() bool          { return g.safeMode }
func (g gates) GetAutomationEnabled() bool { return g.automation }
func (g gates) GetAllowNetwork() bool      { return g.network }
func (g gates) GetOutboundEnabled() bool   { return g.outbound }

type fakeShopify struct {
	byID    map[string]*shopify.Order
	byName  map[string]*shopify.Order
	byEmail map[string][]shopify.Order
	err     error
	calls   int
}

func (f *fakeShopify) GetOrder(_ context.Context, id string) (*shopify.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if o, ok := f.byID[id]; ok {
		return o, nil
	}
	return nil, apperr.NotFound("order not found")
}

func (f *fakeShopify) FindOrderByName(_ context.Context, name string) (*shopify.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if o, ok := f.byName[name]; ok {
		return o, nil
	}
	return nil, apperr.NotFound("no order matches name")
}

func (f *fakeShopify) ListOrdersByEmail(_ context.Context, email string) ([]shopify.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byEmail[email], nil
}

type fakeShipStation struct {
	shipments map[string][]shipstation.Shipment
	calls     int
}

func (f *fakeShipStation) ListShipments(_ context.Context, orderNumber string) ([]shipstation.Shipment, error) {
	f.calls++
	return f.shipments[orderNumber], nil
}

func testEnvelope(payload map[string]any) envelope.Envelope {
	return envelope.Envelope{
		EventID:        "evt-1",
		ConversationID: "conv-1",
		Source:         "richpanel",
		Payload:        payload,
	}
}

func TestResolveOfflineUsesPayloadBaseline(t *testing.T) {
	sh := &fakeShopify{}
	ss := &fakeShipStation{}
	r := NewResolver(sh, ss, gates{automation: true}, logger.New("test"))

	env := testEnvelope(map[string]any{"order_id": "A-1", "status": "pending"})
	summary := r.Resolve(context.Background(), env)

	if summary.OrderID != "A-1" {
		t.Fatalf("expected order id A-1, got %q", summary.OrderID)
	}
	if summary.Status != "pending" {
		t.Fatalf("expected status pending, got %q", summary.Status)
	}
	if summary.ItemsCount != 0 {
		t.Fatalf("expected items count 0, got %d", summary.ItemsCount)
	}
	if sh.calls != 0 || ss.calls != 0 {
		t.Fatalf("offline resolve must not make outbound calls, got shopify=%d shipstation=%d", sh.calls, ss.calls)
	}
}

func TestResolveOfflineIsIdempotent(t *testing.T) {
	r := NewResolver(nil, nil, gates{}, logger.New("test"))
	env := testEnvelope(map[string]any{
		"order": map[string]any{"order_id": "1042", "status": "shipped"},
	})

	first := r.Resolve(context.Background(), env)
	second := r.Resolve(context.Background(), env)

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first summary: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second summary: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("offline resolve not idempotent:\n%s\n%s", a, b)
	}
}

func TestResolveOrderNumberLookup(t *testing.T) {
	order := &shopify.Order{
		Name:              "#1057300",
		Email:             "buyer@example.com",
		FulfillmentStatus: "fulfilled",
		CreatedAt:         "2026-08-20T10:00:00Z",
		LineItems:         []shopify.LineItem{{Title: "Widget", Quantity: 2}},
		ShippingLines:     []shopify.ShippingLine{{Title: "USPS/UPS Ground"}},
		Fulfillments: []shopify.Fulfillment{
			{TrackingNumber: "TN123", TrackingCompany: "UPS"},
		},
	}
	sh := &fakeShopify{byName: map[string]*shopify.Order{"#1057300": order}}
	r := NewResolver(sh, nil, gates{automation: true, network: true}, logger.New("test"))

	env := testEnvelope(map[string]any{
		"comments": []any{
			map[string]any{"body": "orderNumber: 1057300"},
		},
	})
	summary := r.Resolve(context.Background(), env)

	if summary.OrderID != "1057300" {
		t.Fatalf("expected order id 1057300, got %q", summary.OrderID)
	}
	if summary.ShippingMethod != "USPS/UPS Ground" {
		t.Fatalf("expected shipping method from shipping lines, got %q", summary.ShippingMethod)
	}
	if summary.TrackingNumber != "TN123" || summary.Carrier != "UPS" {
		t.Fatalf("expected tracking TN123/UPS, got %q/%q", summary.TrackingNumber, summary.Carrier)
	}
	if summary.Resolution.ResolvedBy != ResolvedByOrderNumber {
		t.Fatalf("expected resolvedBy %s, got %q", ResolvedByOrderNumber, summary.Resolution.ResolvedBy)
	}
	if summary.Resolution.Confidence != ConfidenceHigh {
		t.Fatalf("expected high confidence, got %q", summary.Resolution.Confidence)
	}
}

func TestResolveIdentityFallbackConfidence(t *testing.T) {
	sole := shopify.Order{
		Name:      "#2001",
		CreatedAt: "2026-08-01T00:00:00Z",
		Customer:  &shopify.Customer{FirstName: "Dana", LastName: "Reyes", Email: "dana@example.com"},
	}
	older := shopify.Order{
		Name:      "#1990",
		CreatedAt: "2026-07-01T00:00:00Z",
		Customer:  &shopify.Customer{FirstName: "Pat", LastName: "Kim", Email: "pat@example.com"},
	}
	newer := shopify.Order{
		Name:      "#2005",
		CreatedAt: "2026-08-15T00:00:00Z",
		Customer:  &shopify.Customer{FirstName: "Pat", LastName: "Kim", Email: "pat@example.com"},
	}

	cases := []struct {
		name           string
		email          string
		customerName   string
		orders         []shopify.Order
		wantOrderID    string
		wantConfidence string
		wantReason     string
	}{
		{
			name:           "unique order is high confidence",
			email:          "dana@example.com",
			orders:         []shopify.Order{sole},
			wantOrderID:    "2001",
			wantConfidence: ConfidenceHigh,
			wantReason:     "unique_order_for_email",
		},
		{
			name:           "ambiguous picks most recent at medium confidence",
			email:          "pat@example.com",
			orders:         []shopify.Order{older, newer},
			wantOrderID:    "2005",
			wantConfidence: ConfidenceMedium,
			wantReason:     "most_recent_of_multiple",
		},
		{
			name:           "exact name match wins at high confidence",
			email:          "pat@example.com",
			customerName:   "Pat Kim",
			orders:         []shopify.Order{older, newer},
			wantOrderID:    "1990",
			wantConfidence: ConfidenceHigh,
			wantReason:     "exact_name_email_match",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sh := &fakeShopify{byEmail: map[string][]shopify.Order{tc.email: tc.orders}}
			r := NewResolver(sh, nil, gates{automation: true, network: true}, logger.New("test"))

			payload := map[string]any{"email": tc.email}
			if tc.customerName != "" {
				payload["customer"] = map[string]any{
					"name":  tc.customerName,
					"email": tc.email,
				}
			}
			summary := r.Resolve(context.Background(), testEnvelope(payload))

			if summary.OrderID != tc.wantOrderID {
				t.Fatalf("expected order id %s, got %q", tc.wantOrderID, summary.OrderID)
			}
			if summary.Resolution.Confidence != tc.wantConfidence {
				t.Fatalf("expected confidence %s, got %q", tc.wantConfidence, summary.Resolution.Confidence)
			}
			if summary.Resolution.Reason != tc.wantReason {
				t.Fatalf("expected reason %s, got %q", tc.wantReason, summary.Resolution.Reason)
			}
		})
	}
}

func TestResolveNoEmailReturnsNoMatch(t *testing.T) {
	sh := &fakeShopify{}
	r := NewResolver(sh, nil, gates{automation: true, network: true}, logger.New("test"))

	summary := r.Resolve(context.Background(), testEnvelope(map[string]any{
		"subject": "where is my stuff",
	}))

	if summary.OrderID != OrderIDUnknown {
		t.Fatalf("expected unknown order id, got %q", summary.OrderID)
	}
	if summary.Resolution.ResolvedBy != ResolvedByNoMatch {
		t.Fatalf("expected no_match resolution, got %q", summary.Resolution.ResolvedBy)
	}
	if summary.Resolution.Reason != "no_email_available" {
		t.Fatalf("expected no_email_available reason, got %q", summary.Resolution.Reason)
	}
}

func TestResolveTransportFailureMarksLookupFailed(t *testing.T) {
	sh := &fakeShopify{err: apperr.New(apperr.KindUpstream, "shopify unavailable")}
	r := NewResolver(sh, nil, gates{automation: true, network: true}, logger.New("test"))

	summary := r.Resolve(context.Background(), testEnvelope(map[string]any{
		"subject": "where is order #1057300",
		"email":   "jane@example.com",
	}))

	if !summary.LookupFailed {
		t.Fatalf("transport failure must mark the summary, got %+v", summary)
	}
	if summary.Resolution.ResolvedBy != ResolvedByNoMatch {
		t.Fatalf("expected no_match resolution, got %q", summary.Resolution.ResolvedBy)
	}
	if summary.Resolution.Reason != "lookup_failed" {
		t.Fatalf("expected lookup_failed reason, got %q", summary.Resolution.Reason)
	}
}

func TestResolveCleanNoMatchIsNotLookupFailed(t *testing.T) {
	sh := &fakeShopify{}
	r := NewResolver(sh, nil, gates{automation: true, network: true}, logger.New("test"))

	summary := r.Resolve(context.Background(), testEnvelope(map[string]any{
		"subject": "where is order #1057300",
		"email":   "jane@example.com",
	}))

	if summary.LookupFailed {
		t.Fatalf("a clean no-match must not be marked as a lookup failure")
	}
}

func TestResolveShipStationBackfill(t *testing.T) {
	order := &shopify.Order{
		Name:              "#3100",
		FulfillmentStatus: "fulfilled",
		ShippingLines:     []shopify.ShippingLine{{Title: "Ground"}},
	}
	sh := &fakeShopify{byName: map[string]*shopify.Order{"#3100": order}}
	ss := &fakeShipStation{shipments: map[string][]shipstation.Shipment{
		"3100": {{OrderNumber: "3100", TrackingNumber: "SS-778", CarrierCode: "fedex"}},
	}}
	r := NewResolver(sh, ss, gates{automation: true, network: true}, logger.New("test"))

	summary := r.Resolve(context.Background(), testEnvelope(map[string]any{
		"body": "checking on order #3100 please",
	}))

	if summary.TrackingNumber != "SS-778" {
		t.Fatalf("expected shipstation tracking backfill, got %q", summary.TrackingNumber)
	}
	if summary.Carrier != "fedex" {
		t.Fatalf("expected carrier fedex, got %q", summary.Carrier)
	}
	if summary.ShippingMethod != "Ground" {
		t.Fatalf("shopify shipping method must not be overwritten, got %q", summary.ShippingMethod)
	}
}

func TestExtractOrderNumberPatternPriority(t *testing.T) {
	env := envelope.Envelope{
		ConversationID: "conv-9",
		Payload: map[string]any{
			"subject": "question about order #5555",
			"body":    "orderNumber: 7777",
		},
	}

	number, strategy := ExtractOrderNumber(env)
	if number != "7777" {
		t.Fatalf("labeled field must beat earlier hash match, got %q", number)
	}
	if strategy != "labeled_field" {
		t.Fatalf("expected labeled_field strategy, got %q", strategy)
	}
}

func TestExtractOrderNumberSkipsConversationID(t *testing.T) {
	env := envelope.Envelope{
		ConversationID: "123456",
		Payload: map[string]any{
			"body": "ref #123456, also see #654321",
		},
	}

	number, _ := ExtractOrderNumber(env)
	if number != "654321" {
		t.Fatalf("expected conversation id to be skipped, got %q", number)
	}
}
