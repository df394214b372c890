// Package kintone is a minimal client for the Kintone record API: query
// records by filter and create a record, authenticated per app with an API
// token.
package kintone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Field wraps a single field value the way the record API expects it.
type Field struct {
	Value any `json:"value"`
}

// Record maps field codes to values.
type Record map[string]Field

// APIError is a non-2xx response from the record API. The body text is kept
// so callers can surface upstream detail when they choose to.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kintone error %s: %s", e.Status, e.Body)
}

// Client calls one Kintone domain. App ids and tokens are passed per call
// because each app (submissions, user master, attendance) carries its own
// token.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for the given Kintone domain (host only, no scheme).
func New(domain string) *Client {
	return &Client{
		BaseURL: "https://" + domain,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// QueryRecords fetches records of app matching the filter expression,
// returning only the requested fields.
func (c *Client) QueryRecords(ctx context.Context, appID, token, query string, fields []string) ([]Record, error) {
	params := url.Values{}
	params.Set("app", appID)
	params.Set("query", query)
	for _, f := range fields {
		params.Add("fields", f)
	}
	u := fmt.Sprintf("%s/k/v1/records.json?%s", c.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Cybozu-API-Token", token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kintone request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, newAPIError(resp)
	}

	var out struct {
		Records []Record `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Records, nil
}

// CreateRecord adds one record to app.
func (c *Client) CreateRecord(ctx context.Context, appID, token string, rec Record) error {
	payload := map[string]any{
		"app":    appID,
		"record": rec,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	u := c.BaseURL + "/k/v1/record.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("X-Cybozu-API-Token", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("kintone request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	return nil
}

// StringValue returns the field's value as a string, or "" when the field is
// absent or not a string. Lookup results arrive as generic JSON, so values
// decode as any.
func (r Record) StringValue(code string) string {
	s, _ := r[code].Value.(string)
	return s
}

func newAPIError(resp *http.Response) *APIError {
	bodyBytes, _ := io.ReadAll(resp.Body)
	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(bodyBytes),
	}
}
