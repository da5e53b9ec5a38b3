package connect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBodyBytes = 4 << 10

// RegisterOutcome classifies a registration attempt.
type RegisterOutcome int

const (
	// RegisterFailed means the connector state on the worker is unknown.
	RegisterFailed RegisterOutcome = iota
	// Registered means the connector was created.
	Registered
	// AlreadyExists means a connector with the name existed and its config was replaced.
	AlreadyExists
)

func (o RegisterOutcome) String() string {
	switch o {
	case Registered:
		return "Registered"
	case AlreadyExists:
		return "AlreadyExists"
	default:
		return "Failed"
	}
}

// Succeeded reports whether the connector now runs with the submitted config.
func (o RegisterOutcome) Succeeded() bool {
	return o == Registered || o == AlreadyExists
}

// StatusError is returned when the REST API answers with an unexpected status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("kafka connect %s %s: status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to the Kafka Connect worker REST API.
type Client struct {
	HTTPClient *http.Client
}

// NewClient returns a client using httpClient, or a 15s-timeout client when nil.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{HTTPClient: httpClient}
}

type createRequest struct {
	Name   string            `json:"name"`
	Config map[string]string `json:"config"`
}

// Register creates the connector, or replaces its config when it already exists.
func (c *Client) Register(ctx context.Context, baseURL, name string, config map[string]string) (RegisterOutcome, error) {
	if name == "" {
		return RegisterFailed, fmt.Errorf("connector name is required")
	}

	createURL := connectorsURL(baseURL)
	status, errBody, err := c.do(ctx, http.MethodPost, createURL, createRequest{Name: name, Config: config})
	if err != nil {
		return RegisterFailed, err
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
		return Registered, nil
	case http.StatusConflict:
	default:
		return RegisterFailed, &StatusError{Method: http.MethodPost, URL: createURL, StatusCode: status, Body: errBody}
	}

	configURL := connectorURL(baseURL, name) + "/config"
	status, errBody, err = c.do(ctx, http.MethodPut, configURL, config)
	if err != nil {
		return RegisterFailed, err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return AlreadyExists, nil
	}
	return RegisterFailed, &StatusError{Method: http.MethodPut, URL: configURL, StatusCode: status, Body: errBody}
}

// Unregister deletes the connector. A connector that is already gone counts as deleted.
func (c *Client) Unregister(ctx context.Context, baseURL, name string) error {
	target := connectorURL(baseURL, name)
	status, errBody, err := c.do(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNoContent || status == http.StatusNotFound {
		return nil
	}
	return &StatusError{Method: http.MethodDelete, URL: target, StatusCode: status, Body: errBody}
}

// do returns the status code of any HTTP answer; 409 and 404 are meaningful to callers,
// so a non-2xx status is not an error here. For statuses >= 300 the trimmed body is returned.
func (c *Client) do(ctx context.Context, method, target string, payload interface{}) (int, string, error) {
	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return 0, "", err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("kafka connect %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return resp.StatusCode, strings.TrimSpace(string(data)), nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, "", nil
}

func connectorsURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/connectors"
}

func connectorURL(baseURL, name string) string {
	return connectorsURL(baseURL) + "/" + url.PathEscape(name)
}
