// Package adspower talks to the local AdsPower API that manages browser
// profiles. Every endpoint answers with a {code, msg, data} envelope where a
// non-zero code signals an API-level error.
package adspower

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	requestTimeout = 30 * time.Second

	// The user/list endpoint is flaky under load, retried like the original
	// client did. This is a vendor-API quirk, not a step retry.
	lookupAttempts = 3
	lookupBackoff  = 2 * time.Second
)

// Client is an AdsPower local API client.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     *zap.Logger
}

// New creates a client for the given API base URL.
func New(baseURL, apiKey string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: requestTimeout},
		log:     log,
	}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Profile is an AdsPower browser profile as returned by user/list.
type Profile struct {
	UserID       string `json:"user_id"`
	SerialNumber string `json:"serial_number"`
	Name         string `json:"name"`
}

// BrowserHandle describes a running browser started through the API.
type BrowserHandle struct {
	WS struct {
		Puppeteer string `json:"puppeteer"` // CDP websocket URL
		Selenium  string `json:"selenium"`
	} `json:"ws"`
	Webdriver string `json:"webdriver"`
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("adspower request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("adspower returned HTTP %d for %s", resp.StatusCode, endpoint)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode adspower response: %w", err)
	}
	if env.Code != 0 {
		return fmt.Errorf("adspower API error: %s", env.Msg)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode adspower data: %w", err)
		}
	}
	return nil
}

// CheckConnection verifies the AdsPower desktop app is running and reachable.
func (c *Client) CheckConnection(ctx context.Context) error {
	return c.get(ctx, "/status", nil, nil)
}

// ProfileBySerial finds the profile with the given serial number.
func (c *Client) ProfileBySerial(ctx context.Context, serial int) (*Profile, error) {
	params := url.Values{}
	params.Set("serial_number", strconv.Itoa(serial))

	var lastErr error
	for attempt := 1; attempt <= lookupAttempts; attempt++ {
		var data struct {
			List []Profile `json:"list"`
		}
		err := c.get(ctx, "/api/v1/user/list", params, &data)
		if err == nil {
			if len(data.List) == 0 {
				return nil, fmt.Errorf("profile %d not found in AdsPower", serial)
			}
			return &data.List[0], nil
		}

		lastErr = err
		c.log.Warn("adspower profile lookup failed",
			zap.Int("serial", serial),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < lookupAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(lookupBackoff):
			}
		}
	}
	return nil, fmt.Errorf("failed to look up profile %d: %w", serial, lastErr)
}

// StartBrowser opens the browser for a profile and returns its CDP endpoint.
func (c *Client) StartBrowser(ctx context.Context, userID string) (*BrowserHandle, error) {
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("open_tabs", "1")

	var handle BrowserHandle
	if err := c.get(ctx, "/api/v1/browser/start", params, &handle); err != nil {
		return nil, err
	}
	if handle.WS.Puppeteer == "" {
		return nil, fmt.Errorf("adspower returned no CDP endpoint for profile %s", userID)
	}

	c.log.Info("browser opened", zap.String("user_id", userID))
	return &handle, nil
}

// StopBrowser closes the browser for a profile.
func (c *Client) StopBrowser(ctx context.Context, userID string) error {
	params := url.Values{}
	params.Set("user_id", userID)

	if err := c.get(ctx, "/api/v1/browser/stop", params, nil); err != nil {
		return fmt.Errorf("failed to close browser for %s: %w", userID, err)
	}
	c.log.Info("browser closed", zap.String("user_id", userID))
	return nil
}

// BrowserActive reports whether the profile's browser is currently running.
func (c *Client) BrowserActive(ctx context.Context, userID string) (bool, error) {
	params := url.Values{}
	params.Set("user_id", userID)

	var data struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/api/v1/browser/active", params, &data); err != nil {
		return false, err
	}
	return data.Status == "Active", nil
}
