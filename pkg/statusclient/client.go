package statusclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apollo/influxsink/gateway"
	"github.com/apollo/influxsink/pkg/status"
)

// Client talks to a controller replica's status API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New returns a client initialized with the base URL.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Token: token, HTTPClient: httpClient}
}

// ListSinks returns every sink the replica reconciles.
func (c *Client) ListSinks(ctx context.Context) (*gateway.ListResponse, error) {
	var resp gateway.ListResponse
	if err := c.get(ctx, "/v1/sinks", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSink fetches one sink by namespace and name.
func (c *Client) GetSink(ctx context.Context, namespace, name string) (*status.SinkStatus, error) {
	if namespace == "" || name == "" {
		return nil, fmt.Errorf("namespace and name are required")
	}
	path := fmt.Sprintf("/v1/sinks/%s/%s", url.PathEscape(namespace), url.PathEscape(name))
	var s status.SinkStatus
	if err := c.get(ctx, path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("X-Status-Token", c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
