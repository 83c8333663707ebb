// Package dnsimple implements the webhook's record client against the
// DNSimple API for a single account.
package dnsimple

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nijave/ddns-webhook/pkg/httputil"
	"github.com/nijave/ddns-webhook/pkg/provider"
)

// DefaultAPIEndpoint is the base URL for DNSimple API v2.
const DefaultAPIEndpoint = "https://api.dnsimple.com/v2"

// perPage is the page size used on listing endpoints.
const perPage = 100

// apiPagination is the pagination envelope on listing responses.
type apiPagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// apiError is the error body DNSimple returns on failed requests.
type apiError struct {
	Message string `json:"message"`
}

// zoneData represents a zone from the DNSimple API.
type zoneData struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// recordData represents a zone record from the DNSimple API.
type recordData struct {
	ID      int64  `json:"id"`
	ZoneID  string `json:"zone_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Type    string `json:"type"`
}

// recordPayload is the request body for creating or updating a record.
type recordPayload struct {
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`
	Content string `json:"content"`
	TTL     int    `json:"ttl,omitempty"`
}

// Client is a DNSimple API client scoped to one account.
type Client struct {
	apiEndpoint string
	accountID   string
	token       string
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAPIEndpoint sets a custom API endpoint (useful for testing).
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.apiEndpoint = endpoint
	}
}

// NewClient creates a new DNSimple API client for the given account.
func NewClient(accountID, token string, opts ...ClientOption) *Client {
	c := &Client{
		apiEndpoint: DefaultAPIEndpoint,
		accountID:   accountID,
		token:       token,
		httpClient:  httputil.DefaultClient(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest performs an HTTP request against the DNSimple API and decodes
// the "data" member of the response envelope into out (which may be nil).
// wantStatus is the status the endpoint signals success with.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, wantStatus int, out any) (*apiPagination, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiEndpoint+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("making API request",
		slog.String("method", method),
		slog.String("path", path),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return nil, c.statusError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil, nil
	}

	var envelope struct {
		Data       json.RawMessage `json:"data"`
		Pagination *apiPagination  `json:"pagination"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("parsing response JSON: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return nil, fmt.Errorf("parsing response data: %w", err)
	}
	return envelope.Pagination, nil
}

// statusError translates an unexpected API status into a typed error.
func (c *Client) statusError(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", provider.ErrUnauthorized, apiErr.Message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", provider.ErrZoneNotFound, apiErr.Message)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d: %s", provider.ErrProviderUnavailable, status, apiErr.Message)
	default:
		if apiErr.Message != "" {
			return fmt.Errorf("API error: %s (status %d)", apiErr.Message, status)
		}
		return fmt.Errorf("unexpected status code %d: %s", status, string(body))
	}
}

// Whoami checks that the configured API credentials are accepted.
func (c *Client) Whoami(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodGet, "/whoami", nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("whoami: %w", err)
	}
	return nil
}

// ListZones returns every zone in the account, following pagination.
func (c *Client) ListZones(ctx context.Context) ([]zoneData, error) {
	var zones []zoneData

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("per_page", fmt.Sprint(perPage))
		params.Set("page", fmt.Sprint(page))

		path := fmt.Sprintf("/%s/zones?%s", c.accountID, params.Encode())
		var pageZones []zoneData
		pagination, err := c.doRequest(ctx, http.MethodGet, path, nil, http.StatusOK, &pageZones)
		if err != nil {
			return nil, fmt.Errorf("listing zones: %w", err)
		}
		zones = append(zones, pageZones...)

		if pagination == nil || pagination.TotalPages <= page {
			break
		}
	}

	c.logger.Debug("listed zones", slog.Int("count", len(zones)))
	return zones, nil
}

// GetZone returns the zone with the given name.
func (c *Client) GetZone(ctx context.Context, zoneName string) (*zoneData, error) {
	path := fmt.Sprintf("/%s/zones/%s", c.accountID, url.PathEscape(zoneName))

	var zone zoneData
	if _, err := c.doRequest(ctx, http.MethodGet, path, nil, http.StatusOK, &zone); err != nil {
		return nil, fmt.Errorf("getting zone %s: %w", zoneName, err)
	}
	return &zone, nil
}

// ListRecords returns the zone records matching the relative name and type.
func (c *Client) ListRecords(ctx context.Context, zoneID int64, name, recordType string) ([]recordData, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("type", recordType)
	params.Set("per_page", fmt.Sprint(perPage))

	path := fmt.Sprintf("/%s/zones/%d/records?%s", c.accountID, zoneID, params.Encode())
	var records []recordData
	pagination, err := c.doRequest(ctx, http.MethodGet, path, nil, http.StatusOK, &records)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	if pagination != nil && pagination.TotalPages > 1 {
		c.logger.Warn("record listing spans multiple pages",
			slog.Int64("zone_id", zoneID),
			slog.String("name", name),
			slog.Int("total_pages", pagination.TotalPages),
		)
	}

	c.logger.Debug("listed records",
		slog.Int64("zone_id", zoneID),
		slog.String("name", name),
		slog.String("type", recordType),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// CreateRecord creates a zone record and returns its ID.
func (c *Client) CreateRecord(ctx context.Context, zoneID int64, name, recordType, content string, ttl int) (int64, error) {
	payload := recordPayload{
		Name:    name,
		Type:    recordType,
		Content: content,
		TTL:     ttl,
	}

	path := fmt.Sprintf("/%s/zones/%d/records", c.accountID, zoneID)
	var record recordData
	if _, err := c.doRequest(ctx, http.MethodPost, path, payload, http.StatusCreated, &record); err != nil {
		return 0, fmt.Errorf("creating record: %w", err)
	}

	c.logger.Info("created zone record",
		slog.Int64("zone_id", zoneID),
		slog.String("name", name),
		slog.String("type", recordType),
		slog.Int64("record_id", record.ID),
	)

	return record.ID, nil
}

// UpdateRecord replaces the content of an existing zone record.
func (c *Client) UpdateRecord(ctx context.Context, zoneID, recordID int64, content string) error {
	payload := recordPayload{Content: content}

	path := fmt.Sprintf("/%s/zones/%d/records/%d", c.accountID, zoneID, recordID)
	if _, err := c.doRequest(ctx, http.MethodPatch, path, payload, http.StatusOK, nil); err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	c.logger.Info("updated zone record",
		slog.Int64("zone_id", zoneID),
		slog.Int64("record_id", recordID),
	)

	return nil
}

// DeleteRecord deletes a zone record by ID.
func (c *Client) DeleteRecord(ctx context.Context, zoneID, recordID int64) error {
	path := fmt.Sprintf("/%s/zones/%d/records/%d", c.accountID, zoneID, recordID)
	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil, http.StatusNoContent, nil); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	c.logger.Info("deleted zone record",
		slog.Int64("zone_id", zoneID),
		slog.Int64("record_id", recordID),
	)

	return nil
}
