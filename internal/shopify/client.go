// Package shopify provides a thin client for the Shopify Admin order API.
// Only the read operations the pipeline needs are implemented.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KevinSGarrett/RichPanel-sub000/platform/apperr"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// FlexString handles JSON values that arrive as either string or number.
// Shopify renders ids and prices inconsistently across API versions.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexString(strconv.FormatFloat(num, 'f', -1, 64))
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into FlexString", string(data))
}

func (f FlexString) String() string { return string(f) }

// Order is the slice of a Shopify order the pipeline consumes.
type Order struct {
	ID                FlexString     `json:"id"`
	Name              string         `json:"name"`
	OrderNumber       FlexString     `json:"order_number"`
	Email             string         `json:"email"`
	CreatedAt         string         `json:"created_at"`
	TotalPrice        FlexString     `json:"total_price"`
	FulfillmentStatus string         `json:"fulfillment_status"`
	FinancialStatus   string         `json:"financial_status"`
	Customer          *Customer      `json:"customer"`
	LineItems         []LineItem     `json:"line_items"`
	ShippingLines     []ShippingLine `json:"shipping_lines"`
	Fulfillments      []Fulfillment  `json:"fulfillments"`
}

// Customer is the order's customer record.
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// LineItem is a single order line.
type LineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// ShippingLine carries the shipping method title.
type ShippingLine struct {
	Title string `json:"title"`
	Code  string `json:"code"`
}

// Fulfillment carries tracking data.
type Fulfillment struct {
	TrackingNumber  string `json:"tracking_number"`
	TrackingCompany string `json:"tracking_company"`
	TrackingURL     string `json:"tracking_url"`
}

// Client calls the Shopify Admin API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a Shopify client. Returns nil when no base URL is
// configured; callers treat a nil client as network-unavailable.
func NewClient(cfg config.ShopifyConfig, log *logger.Logger) *Client {
	if cfg.GetShopifyBaseURL() == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.GetShopifyBaseURL(), "/"),
		token:   cfg.GetShopifyAccessToken(),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// GetOrder fetches a single order by its Shopify id.
// Returns apperr.KindNotFound on 404 so callers can fall back to name search.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var wrapper struct {
		Order *Order `json:"order"`
	}
	endpoint := fmt.Sprintf("%s/orders/%s.json", c.baseURL, url.PathEscape(orderID))
	if err := c.get(ctx, "get_order", endpoint, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Order == nil {
		return nil, apperr.NotFound("order not found")
	}
	return wrapper.Order, nil
}

// FindOrderByName searches for an order by its display name (e.g. "#1057300").
func (c *Client) FindOrderByName(ctx context.Context, name string) (*Order, error) {
	var wrapper struct {
		Orders []Order `json:"orders"`
	}
	endpoint := fmt.Sprintf("%s/orders.json?status=any&name=%s", c.baseURL, url.QueryEscape(name))
	if err := c.get(ctx, "find_order_by_name", endpoint, &wrapper); err != nil {
		return nil, err
	}
	for i := range wrapper.Orders {
		if strings.EqualFold(wrapper.Orders[i].Name, name) {
			return &wrapper.Orders[i], nil
		}
	}
	return nil, apperr.NotFound("no order matches name")
}

// ListOrdersByEmail lists a customer's orders by email address.
func (c *Client) ListOrdersByEmail(ctx context.Context, email string) ([]Order, error) {
	var wrapper struct {
		Orders []Order `json:"orders"`
	}
	endpoint := fmt.Sprintf("%s/orders.json?status=any&email=%s", c.baseURL, url.QueryEscape(email))
	if err := c.get(ctx, "list_orders_by_email", endpoint, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Orders, nil
}

func (c *Client) get(ctx context.Context, operation, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-Shopify-Access-Token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.OutboundCall("shopify", operation, 0, err)
		return apperr.Upstream("shopify request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.log.OutboundCall("shopify", operation, resp.StatusCode, nil)

	if resp.StatusCode == http.StatusNotFound {
		return apperr.NotFound("shopify resource not found")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return apperr.Upstream(fmt.Sprintf("shopify returned %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Upstream("read shopify response", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Parse("decode shopify response")
	}
	return nil
}
