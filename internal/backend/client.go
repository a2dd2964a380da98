// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package backend is the HTTP client for the ERP REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/errors"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/logger"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// Row is one decoded backend object. Numbers are kept as json.Number.
type Row map[string]any

// Page is the paginated list envelope.
type Page struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []Row  `json:"results"`
}

// Config holds the client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the base round tripper. Tracing wraps whatever
	// is used here.
	Transport http.RoundTripper
}

// Client talks to the backend REST API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a backend client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		baseURL: NormalizeBaseURL(cfg.BaseURL),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
		logger: log.Named("backend"),
	}
}

// NormalizeBaseURL trims trailing slashes and applies the default.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return DefaultBaseURL
	}
	return raw
}

// BaseURL returns the normalised backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL builds the absolute URL for an API path such as "/v1/finance/invoices/".
func (c *Client) URL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// ============================================================================
// Core request
// ============================================================================

// Do sends a JSON request and returns the raw response body. Non-2xx
// responses become *APIError; transport failures are reported as
// service-unavailable.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any, token string) ([]byte, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeBadRequest, "failed to encode request body")
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, query, reader, contentType, token)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create backend request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "method", method, "path", path, "error", err)
		return nil, errors.Unavailable(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	c.logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewAPIError(resp.StatusCode, data)
	}
	return data, nil
}

// Upload posts one file as multipart/form-data and decodes the JSON reply.
func (c *Client) Upload(ctx context.Context, token, path, field, filename string, content io.Reader) (Row, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build upload")
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, errors.Wrap(err, errors.CodeBadRequest, "failed to read upload")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build upload")
	}

	data, err := c.send(ctx, http.MethodPost, path, nil, &buf, mw.FormDataContentType(), token)
	if err != nil {
		return nil, err
	}
	row := Row{}
	if len(bytes.TrimSpace(data)) == 0 {
		return row, nil
	}
	if err := decode(data, &row); err != nil {
		return nil, errors.Wrap(err, errors.CodeUpstream, "failed to decode backend response")
	}
	return row, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, token string, out any) error {
	data, err := c.Do(ctx, method, path, query, body, token)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decode(data, out); err != nil {
		return errors.Wrap(err, errors.CodeUpstream, "failed to decode backend response")
	}
	return nil
}

func decode(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

// ============================================================================
// Resources
// ============================================================================

// DefaultPageSize is the list page size used by the renderer.
const DefaultPageSize = 20

// ListParams are the query parameters understood by list endpoints. Empty
// values are omitted.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Ordering string
	Status   string
	Extra    url.Values
}

// Query encodes the parameters.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", fmt.Sprint(p.Page))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	if p.Ordering != "" {
		q.Set("ordering", p.Ordering)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.PageSize > 0 {
		q.Set("page_size", fmt.Sprint(p.PageSize))
	}
	for k, vs := range p.Extra {
		for _, v := range vs {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	return q
}

// List fetches one page of a collection.
func (c *Client) List(ctx context.Context, token, resourcePath string, params ListParams) (*Page, error) {
	var page Page
	if err := c.doJSON(ctx, http.MethodGet, resourcePath, params.Query(), nil, token, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []Row{}
	}
	return &page, nil
}

const (
	listAllPageSize = 200
	listAllMaxPages = 100
)

// ListAll walks every page of a collection. It stops at the last page, on an
// empty page, once count rows were read, or after a fixed page limit.
func (c *Client) ListAll(ctx context.Context, token, resourcePath string, params ListParams) ([]Row, error) {
	params.PageSize = listAllPageSize
	var rows []Row
	for page := 1; page <= listAllMaxPages; page++ {
		params.Page = page
		p, err := c.List(ctx, token, resourcePath, params)
		if err != nil {
			return nil, err
		}
		rows = append(rows, p.Results...)
		if p.Next == "" || len(p.Results) == 0 || len(rows) >= p.Count {
			break
		}
	}
	return rows, nil
}

func itemPath(resourcePath, id string) string {
	return strings.TrimRight(resourcePath, "/") + "/" + url.PathEscape(id) + "/"
}

// Get fetches a single object.
func (c *Client) Get(ctx context.Context, token, resourcePath, id string) (Row, error) {
	var row Row
	if err := c.doJSON(ctx, http.MethodGet, itemPath(resourcePath, id), nil, nil, token, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// Create posts a new object to the collection.
func (c *Client) Create(ctx context.Context, token, resourcePath string, payload map[string]any) (Row, error) {
	var row Row
	if err := c.doJSON(ctx, http.MethodPost, resourcePath, nil, payload, token, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// Update patches an existing object.
func (c *Client) Update(ctx context.Context, token, resourcePath, id string, payload map[string]any) (Row, error) {
	var row Row
	if err := c.doJSON(ctx, http.MethodPatch, itemPath(resourcePath, id), nil, payload, token, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, token, resourcePath, id string) error {
	return c.doJSON(ctx, http.MethodDelete, itemPath(resourcePath, id), nil, nil, token, nil)
}

// Action invokes a workflow transition: POST {resourcePath}{id}/{action}/.
func (c *Client) Action(ctx context.Context, token, resourcePath, id, action string, payload map[string]any) (Row, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	var row Row
	path := itemPath(resourcePath, id) + url.PathEscape(action) + "/"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, payload, token, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// ============================================================================
// Payments
// ============================================================================

// PaymentIntentPath is the payment intent collection.
const PaymentIntentPath = "/v1/payments/payment-intents/"

// PaymentIntentRequest asks the backend to open a payment for an invoice or
// installment.
type PaymentIntentRequest struct {
	Invoice     string `json:"invoice,omitempty"`
	Installment string `json:"installment,omitempty"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
}

// PaymentIntent is the backend's answer.
type PaymentIntent struct {
	ID           json.Number `json:"id"`
	ClientSecret string      `json:"client_secret"`
	Amount       json.Number `json:"amount"`
	Currency     string      `json:"currency"`
}

// CreatePaymentIntent opens a payment intent.
func (c *Client) CreatePaymentIntent(ctx context.Context, token string, req PaymentIntentRequest) (*PaymentIntent, error) {
	var pi PaymentIntent
	if err := c.doJSON(ctx, http.MethodPost, PaymentIntentPath, nil, req, token, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}
