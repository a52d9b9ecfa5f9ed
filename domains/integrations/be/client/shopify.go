package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ShopProduct is one product variant as reported by the shop.
type ShopProduct struct {
	SKU        string
	Title      string
	PriceCents int64
	Qty        int
}

// ShopifyClient pulls the product catalogue from a connected shop.
type ShopifyClient interface {
	PullProducts(ctx context.Context, shopDomain, accessToken string) ([]ShopProduct, error)
}

const shopifyAPIVersion = "2024-10"

type shopifyHTTPClient struct {
	http *http.Client
}

// NewShopifyClient returns a ShopifyClient speaking the shop's admin API.
// httpClient may be nil, a default with a 15s timeout is used.
func NewShopifyClient(httpClient *http.Client) ShopifyClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &shopifyHTTPClient{http: httpClient}
}

type shopifyVariant struct {
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

type shopifyProduct struct {
	Title    string           `json:"title"`
	Variants []shopifyVariant `json:"variants"`
}

type shopifyProductsResponse struct {
	Products []shopifyProduct `json:"products"`
}

func (c *shopifyHTTPClient) PullProducts(ctx context.Context, shopDomain, accessToken string) ([]ShopProduct, error) {
	endpoint := url.URL{
		Scheme: "https",
		Host:   shopDomain,
		Path:   fmt.Sprintf("/admin/api/%s/products.json", shopifyAPIVersion),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building shopify request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling shopify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shopify responded %d", resp.StatusCode)
	}

	var payload shopifyProductsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding shopify response: %w", err)
	}

	var products []ShopProduct
	for _, product := range payload.Products {
		for _, variant := range product.Variants {
			if variant.SKU == "" {
				continue
			}
			products = append(products, ShopProduct{
				SKU:        variant.SKU,
				Title:      product.Title,
				PriceCents: parsePriceCents(variant.Price),
				Qty:        variant.InventoryQuantity,
			})
		}
	}
	return products, nil
}

// parsePriceCents converts a decimal money string like "19.99" to cents.
// Unparseable input maps to zero.
func parsePriceCents(price string) int64 {
	price = strings.TrimSpace(price)
	if price == "" {
		return 0
	}
	value, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(value * 100))
}
