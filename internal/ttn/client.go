// Package ttn is a minimal client for the parts of The Things Stack v3 API
// this service touches: simulating device uplinks and probing application
// access. The rest of the network server's surface is out of scope.
package ttn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Settings identify one TTN application. They arrive per call because the
// dashboard stores credentials per user, not per process.
type Settings struct {
	AppID  string `json:"app_id"`
	APIKey string `json:"api_key"`
	Region string `json:"region"`
}

func (s Settings) baseURL() string {
	region := strings.TrimSpace(s.Region)
	if region == "" {
		region = "eu1"
	}
	return fmt.Sprintf("https://%s.cloud.thethings.network", region)
}

// CallResult carries the upstream status and body so callers can translate
// API-level failures without exceptions; the error return is reserved for
// transport failures.
type CallResult struct {
	StatusCode int
	Body       []byte
}

func (r CallResult) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

type Client struct {
	hc           *http.Client
	baseOverride string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		hc: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// NewClientWithBase is for tests: it pins every call to a fixed base URL.
func NewClientWithBase(baseURL string, timeout time.Duration) *Client {
	c := NewClient(timeout)
	c.baseOverride = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) do(ctx context.Context, method, url, apiKey string, body any) (CallResult, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return CallResult{}, err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return CallResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return CallResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CallResult{}, err
	}
	return CallResult{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *Client) url(s Settings, path string) string {
	if c.baseOverride != "" {
		return c.baseOverride + path
	}
	return s.baseURL() + path
}

// SimulateUplink submits a simulated uplink for a device via the application
// server's simulate endpoint.
func (c *Client) SimulateUplink(ctx context.Context, s Settings, deviceID string, up SimulatedUplink) (CallResult, error) {
	path := fmt.Sprintf("/api/v3/as/applications/%s/devices/%s/up/simulate", s.AppID, deviceID)
	return c.do(ctx, http.MethodPost, c.url(s, path), s.APIKey, up)
}

// TestConnection fetches the application record to prove the API key works.
func (c *Client) TestConnection(ctx context.Context, s Settings) (*ApplicationInfo, CallResult, error) {
	path := fmt.Sprintf("/api/v3/applications/%s", s.AppID)
	res, err := c.do(ctx, http.MethodGet, c.url(s, path), s.APIKey, nil)
	if err != nil || !res.OK() {
		return nil, res, err
	}
	var app ApplicationInfo
	if err := json.Unmarshal(res.Body, &app); err != nil {
		return nil, res, fmt.Errorf("decode application: %w", err)
	}
	return &app, res, nil
}
