package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultAPIBase = "https://storage.googleapis.com"
	pingTimeout    = 5 * time.Second
)

// Client talks to the Cloud Storage JSON API for a single public bucket.
type Client struct {
	httpClient    *http.Client
	apiBase       string
	publicBase    string
	defaultBucket string
	tokens        tokenProvider
	logg          *logger.Logger
}

type tokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	var ts *tokenSource
	var err error
	switch {
	case gcp.CredentialsJSON != "":
		ts, err = newServiceAccountTokenSource(httpClient, gcp.CredentialsJSON)
	case gcp.ApplicationCredentials != "":
		raw, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		ts, err = newServiceAccountTokenSource(httpClient, string(raw))
	default:
		ts = newMetadataTokenSource(httpClient)
	}
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:    httpClient,
		apiBase:       defaultAPIBase,
		publicBase:    strings.TrimRight(cfg.PublicBaseURL, "/"),
		defaultBucket: cfg.BucketName,
		tokens:        ts,
		logg:          logg,
	}
	if client.publicBase == "" {
		client.publicBase = defaultAPIBase
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}

	return client, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// PublicURL is where a publicly readable object can be fetched.
func (c *Client) PublicURL(object string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBase, c.defaultBucket, object)
}

// ObjectFromURL reverses PublicURL. It reports false for URLs outside the bucket.
func (c *Client) ObjectFromURL(raw string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/", c.publicBase, c.defaultBucket)
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	object := strings.TrimPrefix(raw, prefix)
	return object, object != ""
}

// Upload stores data under object and returns its public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, data []byte) (string, error) {
	if c == nil || c.tokens == nil {
		return "", errors.New("gcs client not initialized")
	}
	if object == "" {
		return "", errors.New("object name is required")
	}

	u := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		c.apiBase, url.PathEscape(c.defaultBucket), url.QueryEscape(object))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	if err := c.authorize(ctx, req); err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gcs upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("gcs upload", resp)
	}
	return c.PublicURL(object), nil
}

// Delete removes an object. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, object string) error {
	if c == nil || c.tokens == nil {
		return errors.New("gcs client not initialized")
	}
	u := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", c.apiBase, url.PathEscape(c.defaultBucket), url.PathEscape(object))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gcs delete: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return statusError("gcs delete", resp)
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokens == nil {
		return errors.New("gcs client not initialized")
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/storage/v1/b/%s/o?maxResults=1", c.apiBase, url.PathEscape(c.defaultBucket))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check", resp)
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("gcs token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if len(b) > 0 {
		return fmt.Errorf("%s failed: %s: %s", op, resp.Status, strings.TrimSpace(string(b)))
	}
	return fmt.Errorf("%s failed: %s", op, resp.Status)
}
