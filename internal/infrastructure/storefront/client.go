package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// maxResponseSize is the maximum allowed response size from the storefront API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// timeFilterLayout is the timestamp format the provider accepts in query filters
const timeFilterLayout = time.RFC3339

// ClientConfig holds storefront API client configuration
type ClientConfig struct {
	// TimeoutSeconds bounds each page request; a timeout is a fatal page
	// error, distinct from the 429 retry path
	TimeoutSeconds int
	// PageSize is the default number of orders requested per page
	PageSize int
	// CountFallback is the advisory estimate used when the count endpoint fails
	CountFallback int
}

// Validate validates the configuration and applies defaults
func (c *ClientConfig) Validate() error {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.PageSize <= 0 || c.PageSize > 250 {
		c.PageSize = 50
	}
	if c.CountFallback <= 0 {
		c.CountFallback = 1000
	}
	return nil
}

// Client implements the ordersync.PageFetcher port against the storefront
// REST API. Pagination follows RFC 5988 Link headers: each response carries
// a rel="next" URL that acts as the opaque cursor.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a storefront API client
func NewClient(config ClientConfig, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// FirstPageURL builds the URL of the first order page for the given query
func (c *Client) FirstPageURL(cred ordersync.Credential, tenantID uuid.UUID, q ordersync.OrderQuery) string {
	values := url.Values{}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = c.config.PageSize
	}
	values.Set("limit", fmt.Sprintf("%d", pageSize))
	values.Set("status", "any")
	if q.CreatedAfter != nil {
		values.Set("created_at_min", q.CreatedAfter.UTC().Format(timeFilterLayout))
	}
	if q.UpdatedAfter != nil {
		values.Set("updated_at_min", q.UpdatedAfter.UTC().Format(timeFilterLayout))
	}
	return strings.TrimSuffix(cred.BaseURL, "/") + "/orders.json?" + values.Encode()
}

// FetchPage fetches one order page and extracts the rel="next" cursor
func (c *Client) FetchPage(ctx context.Context, pageURL string, cred ordersync.Credential, tenantID uuid.UUID) (*ordersync.OrderPage, error) {
	body, headers, err := c.doRequest(ctx, pageURL, cred)
	if err != nil {
		return nil, err
	}

	var resp OrdersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse order page: %v", ordersync.ErrInvalidResponse, err)
	}

	page := &ordersync.OrderPage{
		Records: make([]ordersync.OrderRecord, 0, len(resp.Orders)),
		NextURL: ParseNextLink(headers.Get("Link")),
	}
	for i := range resp.Orders {
		page.Records = append(page.Records, TransformOrder(tenantID, &resp.Orders[i]))
	}

	return page, nil
}

// CountEstimate fetches the advisory order count for progress display.
// Any failure falls back to the configured default rather than failing
// the sync.
func (c *Client) CountEstimate(ctx context.Context, cred ordersync.Credential, tenantID uuid.UUID, q ordersync.OrderQuery) (int, error) {
	values := url.Values{}
	values.Set("status", "any")
	if q.CreatedAfter != nil {
		values.Set("created_at_min", q.CreatedAfter.UTC().Format(timeFilterLayout))
	}
	if q.UpdatedAfter != nil {
		values.Set("updated_at_min", q.UpdatedAfter.UTC().Format(timeFilterLayout))
	}
	countURL := strings.TrimSuffix(cred.BaseURL, "/") + "/orders/count.json?" + values.Encode()

	body, _, err := c.doRequest(ctx, countURL, cred)
	if err != nil {
		c.logger.Warn("Order count request failed, using fallback estimate",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("fallback", c.config.CountFallback),
			zap.Error(err),
		)
		return c.config.CountFallback, nil
	}

	var resp CountResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Count <= 0 {
		return c.config.CountFallback, nil
	}
	return resp.Count, nil
}

// doRequest performs one authenticated GET against the storefront API
func (c *Client) doRequest(ctx context.Context, rawURL string, cred ordersync.Credential) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("storefront: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ordersync.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read response: %v", ordersync.ErrRequestFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, nil, fmt.Errorf("%w: HTTP 429", ordersync.ErrRateLimited)
	case resp.StatusCode >= 400:
		return nil, nil, fmt.Errorf("%w: HTTP %d", ordersync.ErrRequestFailed, resp.StatusCode)
	}

	return body, resp.Header, nil
}

// ParseNextLink extracts the rel="next" URL from an RFC 5988 Link header.
// Returns an empty string when no next page exists.
func ParseNextLink(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		urlPart := strings.TrimSpace(section[0])
		if !strings.HasPrefix(urlPart, "<") || !strings.HasSuffix(urlPart, ">") {
			continue
		}
		for _, param := range section[1:] {
			if strings.EqualFold(strings.TrimSpace(param), `rel="next"`) {
				return strings.Trim(urlPart, "<>")
			}
		}
	}
	return ""
}

// Ensure Client implements the PageFetcher port
var _ ordersync.PageFetcher = (*Client)(nil)
