package browse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/categories"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	defaultTimeout        = 10 * time.Second
	errorBodyLimit  int64 = 4096
	adminPathPrefix       = "/api/admin/"
)

var errBaseURLRequired = errors.New("browse api base url is required")

// Client talks to the storefront HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSessionToken sends the session id as a bearer token, which the admin
// write routes require.
func WithSessionToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

func NewClient(cfg config.BrowseConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ListProducts fetches one listing page.
func (c *Client) ListProducts(ctx context.Context, key FilterKey, limit int) (*product.ProductWithPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(key.Page))
	q.Set("query", key.Query)
	q.Set("category", key.Category)
	q.Set("price_order", string(key.PriceOrder))
	q.Set("price_min", key.PriceMin)
	q.Set("price_max", key.PriceMax)
	q.Set("updateAt_order", string(key.UpdatedAtOrder))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var page product.ProductWithPage
	if err := c.do(ctx, http.MethodGet, "get-all-products", q, nil, "products", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TotalPages fetches the page count for the given page size.
func (c *Client) TotalPages(ctx context.Context, limit int) (int, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var total int
	if err := c.do(ctx, http.MethodGet, "get-total-pages", q, nil, "totalPages", &total); err != nil {
		return 0, err
	}
	return total, nil
}

func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	q := url.Values{}
	q.Set("id", id.String())
	var p product.ProductDTO
	if err := c.do(ctx, http.MethodGet, "get-product-by-id", q, nil, "product", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Categories(ctx context.Context) ([]*categories.CategoryDTO, error) {
	var out []*categories.CategoryDTO
	if err := c.do(ctx, http.MethodGet, "get-all-categories", nil, nil, "categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProduct sends the payload to update-product. The payload must carry
// the product id.
func (c *Client) UpdateProduct(ctx context.Context, payload any) (*product.ProductDTO, error) {
	var p product.ProductDTO
	if err := c.do(ctx, http.MethodPut, "update-product", nil, payload, "product", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	q := url.Values{}
	q.Set("id", id.String())
	return c.do(ctx, http.MethodDelete, "delete-product", q, nil, "", nil)
}

// do runs one request and decodes envelope[field] into out. Error envelopes
// come back as *pkgerrors.Error carrying the server's code and details.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, field string, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "browse client not configured")
	}

	endpoint := c.baseURL + adminPathPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "marshal request body")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+path+" request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+path+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp, path)
	}

	if out == nil {
		return nil
	}
	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+path+" response")
	}
	raw, ok := envelope[field]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s response missing %q", path, field))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+path+" "+field)
	}
	return nil
}

func decodeAPIError(resp *http.Response, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	var apiErr struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Details any    `json:"details"`
	}
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
			path+" request failed")
	}
	code := pkgerrors.Code(apiErr.Code)
	if code == "" {
		code = codeForStatus(resp.StatusCode)
	}
	e := pkgerrors.New(code, apiErr.Message)
	if apiErr.Details != nil {
		e = e.WithDetails(apiErr.Details)
	}
	return e
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		return pkgerrors.CodeDependency
	}
}
