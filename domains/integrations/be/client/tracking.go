package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TrackingStatus is the normalized state of one shipment.
type TrackingStatus struct {
	TrackingNumber string     `json:"trackingNumber"`
	Carrier        string     `json:"carrier"`
	Status         string     `json:"status"`
	EstimatedAt    *time.Time `json:"estimatedAt,omitempty"`
}

// CarrierCredentials identifies the tenant's account with a carrier.
type CarrierCredentials struct {
	AccountNumber string
	APIKey        string
}

// TrackingClient queries a carrier for shipment status.
type TrackingClient interface {
	Track(ctx context.Context, carrier string, creds CarrierCredentials, trackingNumber string) (TrackingStatus, error)
}

// Carrier API endpoints. Both carriers expose a JSON status resource
// keyed by tracking number.
const (
	upsTrackURL   = "https://onlinetools.ups.com/api/track/v1/details/"
	fedexTrackURL = "https://apis.fedex.com/track/v1/trackingnumbers/"
)

type trackingHTTPClient struct {
	http *http.Client
}

// NewTrackingClient returns a TrackingClient for UPS and FedEx.
// httpClient may be nil, a default with a 15s timeout is used.
func NewTrackingClient(httpClient *http.Client) TrackingClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &trackingHTTPClient{http: httpClient}
}

type carrierTrackResponse struct {
	Status            string     `json:"status"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

func (c *trackingHTTPClient) Track(ctx context.Context, carrier string, creds CarrierCredentials, trackingNumber string) (TrackingStatus, error) {
	var endpoint string
	switch carrier {
	case "ups":
		endpoint = upsTrackURL
	case "fedex":
		endpoint = fedexTrackURL
	default:
		return TrackingStatus{}, fmt.Errorf("unsupported carrier %q", carrier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+trackingNumber, nil)
	if err != nil {
		return TrackingStatus{}, fmt.Errorf("building tracking request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	req.Header.Set("X-Account-Number", creds.AccountNumber)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return TrackingStatus{}, fmt.Errorf("calling %s: %w", carrier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TrackingStatus{}, fmt.Errorf("%s responded %d", carrier, resp.StatusCode)
	}

	var payload carrierTrackResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return TrackingStatus{}, fmt.Errorf("decoding %s response: %w", carrier, err)
	}

	return TrackingStatus{
		TrackingNumber: trackingNumber,
		Carrier:        carrier,
		Status:         payload.Status,
		EstimatedAt:    payload.EstimatedDelivery,
	}, nil
}
