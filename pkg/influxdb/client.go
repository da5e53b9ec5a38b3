package influxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// Client issues administrative InfluxQL statements over the 1.x HTTP API.
type Client struct {
	HTTPClient *http.Client
}

// NewClient returns a client using httpClient, or a 10s-timeout client when nil.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{HTTPClient: httpClient}
}

// queryResponse is the subset of the /query response we inspect.
type queryResponse struct {
	Error   string `json:"error"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// EnsureDatabase creates the database on host:port. CREATE DATABASE is a no-op on the
// server when the database exists, so repeated calls succeed.
func (c *Client) EnsureDatabase(ctx context.Context, name, host, port string) error {
	if name == "" {
		return fmt.Errorf("database name is required")
	}
	endpoint := url.URL{Scheme: "http", Host: net.JoinHostPort(host, port), Path: "/query"}
	form := url.Values{"q": {"CREATE DATABASE " + QuoteIdent(name)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("create database %q: %w", name, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("create database %q: unexpected status %s: %s", name, resp.Status, strings.TrimSpace(string(data)))
	}

	// 204 and other bodiless 2xx carry nothing to inspect.
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var body queryResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("create database %q: decode response: %w", name, err)
	}
	if body.Error != "" {
		return fmt.Errorf("create database %q: %s", name, body.Error)
	}
	for _, r := range body.Results {
		if r.Error != "" {
			return fmt.Errorf("create database %q: %s", name, r.Error)
		}
	}
	return nil
}

// QuoteIdent renders an InfluxQL double-quoted identifier.
func QuoteIdent(name string) string {
	escaped := strings.ReplaceAll(name, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
