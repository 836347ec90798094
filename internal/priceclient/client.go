// Package priceclient is a typed client for the Flamingo price feed: a
// single GET endpoint returning per-block token USD prices.
package priceclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FlamingoPrice is a single token price quote. BlockIndex and Timestamp are
// not populated by the feed; the caller fills them from the source block
// before persistence.
type FlamingoPrice struct {
	Symbol           string  `json:"symbol"`
	UnwrappedSymbol  string  `json:"unwrappedSymbol"`
	Hash             string  `json:"hash"`
	USDPrice         float64 `json:"usd_price"`
	BlockIndex       *uint64 `json:"block_index,omitempty"`
	Timestamp        *int64  `json:"timestamp,omitempty"`
}

// Client is a GET-only client against a Flamingo-compatible price feed.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client against baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GetPricesFromBlock GETs {base}/flamingo/live-data/prices/from-block/{n}. A
// non-2xx response is an error; the caller treats that as a soft failure
// for that block (empty list substituted).
func (c *Client) GetPricesFromBlock(ctx context.Context, blockIndex uint64) ([]FlamingoPrice, error) {
	url := fmt.Sprintf("%s/flamingo/live-data/prices/from-block/%d", c.baseURL, blockIndex)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("priceclient: unexpected status %d from %s", resp.StatusCode, url)
	}

	var prices []FlamingoPrice
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, fmt.Errorf("priceclient: decode response: %w", err)
	}
	return prices, nil
}
