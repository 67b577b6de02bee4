// Package shipstation provides a thin client for the ShipStation
// shipments API, used to backfill tracking data missing from Shopify.
package shipstation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KevinSGarrett/RichPanel-sub000/platform/apperr"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// Shipment is the slice of a ShipStation shipment the pipeline consumes.
type Shipment struct {
	OrderNumber    string `json:"orderNumber"`
	TrackingNumber string `json:"trackingNumber"`
	CarrierCode    string `json:"carrierCode"`
	ServiceCode    string `json:"serviceCode"`
	ShipDate       string `json:"shipDate"`
	Voided         bool   `json:"voided"`
}

// Client calls the ShipStation API.
type Client struct {
	baseURL string
	auth    string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a ShipStation client. Returns nil when no base URL is
// configured; callers treat a nil client as network-unavailable.
func NewClient(cfg config.ShipStationConfig, log *logger.Logger) *Client {
	if cfg.GetShipStationBaseURL() == "" {
		return nil
	}
	creds := cfg.GetShipStationAPIKey() + ":" + cfg.GetShipStationAPISecret()
	return &Client{
		baseURL: strings.TrimRight(cfg.GetShipStationBaseURL(), "/"),
		auth:    "Basic " + base64.StdEncoding.EncodeToString([]byte(creds)),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// ListShipments returns non-voided shipments for an order number,
// newest ship date first as returned by the API.
func (c *Client) ListShipments(ctx context.Context, orderNumber string) ([]Shipment, error) {
	endpoint := fmt.Sprintf("%s/shipments?orderNumber=%s&sortBy=ShipDate&sortDir=DESC",
		c.baseURL, url.QueryEscape(orderNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.auth)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.OutboundCall("shipstation", "list_shipments", 0, err)
		return nil, apperr.Upstream("shipstation request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.log.OutboundCall("shipstation", "list_shipments", resp.StatusCode, nil)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apperr.Upstream(fmt.Sprintf("shipstation returned %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream("read shipstation response", err)
	}

	var wrapper struct {
		Shipments []Shipment `json:"shipments"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, apperr.Parse("decode shipstation response")
	}

	active := make([]Shipment, 0, len(wrapper.Shipments))
	for _, s := range wrapper.Shipments {
		if !s.Voided {
			active = append(active, s)
		}
	}
	return active, nil
}
