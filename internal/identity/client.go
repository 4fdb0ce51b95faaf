// Package identity is a client for a Supabase-compatible identity service:
// password auth, the profiles table and the avatar storage bucket.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/navid-fn/coinview/configs"

	"github.com/sirupsen/logrus"
)

const (
	authPath    = "/auth/v1"
	restPath    = "/rest/v1"
	storagePath = "/storage/v1"
)

type Client struct {
	baseURL       string
	anonKey       string
	profilesTable string
	bucket        string
	httpClient    *http.Client
	logger        *logrus.Entry
	now           func() time.Time
}

func NewClient(cfg configs.IdentityConfig, logger *logrus.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	table := cfg.ProfilesTable
	if table == "" {
		table = "profiles"
	}
	bucket := cfg.AvatarBucket
	if bucket == "" {
		bucket = "avatar"
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		anonKey:       cfg.AnonKey,
		profilesTable: table,
		bucket:        bucket,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger.WithField("component", "identity"),
		now:           time.Now,
	}
}

type request struct {
	method      string
	path        string
	accessToken string
	body        io.Reader
	contentType string
	headers     map[string]string
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// do sends r and decodes a 2xx body into out when out is non-nil.
// Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	token := r.accessToken
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	if r.body != nil {
		contentType := r.contentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, body)
		c.logger.WithFields(logrus.Fields{
			"method": r.method,
			"path":   r.path,
			"status": resp.StatusCode,
		}).Debug(apiErr.Message)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}
