package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/auricpulse/goldpulse/internal/config"
	"github.com/auricpulse/goldpulse/internal/infra"
	"github.com/auricpulse/goldpulse/pkg/models"
)

const quotePath = "/rest/secure/angelbroking/market/v1/quote/"

// Client performs the data-plane SmartAPI calls: instrument master download
// and LTP quote retrieval. Session handling lives in SessionManager; LTP
// calls take the token explicitly so the caller decides the re-login policy.
type Client struct {
	cfg     config.BrokerConfig
	http    *http.Client
	limiter *infra.RateLimiter
}

// NewClient creates a broker data client. LTP calls are rate limited to
// cfg.LTPRatePerSec requests per second against the SmartAPI quota.
func NewClient(cfg config.BrokerConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rate := cfg.LTPRatePerSec
	if rate <= 0 {
		rate = 3
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		limiter: infra.NewRateLimiter(rate, time.Second),
	}
}

// Instruments downloads the full instrument master. The file is a flat JSON
// array, several hundred thousand entries; filtering is the caller's job.
func (c *Client) Instruments(ctx context.Context) ([]models.Instrument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.InstrumentsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create instruments request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch instruments: HTTP %d", resp.StatusCode)
	}

	var instruments []models.Instrument
	if err := json.NewDecoder(resp.Body).Decode(&instruments); err != nil {
		return nil, fmt.Errorf("parse instruments: %w: %v", ErrBadShape, err)
	}
	return instruments, nil
}

// LTP fetches last-traded prices for the given MCX symbol tokens. Tokens
// absent from the response are simply missing from the result; the caller
// decides what absence means.
func (c *Client) LTP(ctx context.Context, jwt string, tokens []string) ([]models.TokenPrice, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]any{
		"mode": "LTP",
		"exchangeTokens": map[string][]string{
			"MCX": tokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal quote request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+quotePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create quote request: %w", err)
	}
	setSmartAPIHeaders(req, c.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+jwt)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read quote response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Op: "quote", Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("quote: HTTP %d: %s", resp.StatusCode, body)
	}

	// Fetched is a pointer so a response that omits data.fetched entirely is
	// distinguishable from an empty price list.
	var parsed struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Fetched *[]models.TokenPrice `json:"fetched"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse quote response: %w: %v", ErrBadShape, err)
	}
	if !parsed.Status {
		return nil, fmt.Errorf("quote rejected: %s", parsed.Message)
	}
	if parsed.Data.Fetched == nil {
		return nil, fmt.Errorf("quote: %w: missing data.fetched", ErrBadShape)
	}
	return *parsed.Data.Fetched, nil
}
