package identity

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Upload stores body at path inside the avatar bucket.
func (c *Client) Upload(ctx context.Context, accessToken, path, contentType string, body io.Reader) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        storagePath + "/object/" + c.bucket + "/" + escapePath(path),
		accessToken: accessToken,
		body:        body,
		contentType: contentType,
	}, nil)
}

// PublicURL is the public address of path in the avatar bucket. It makes no request.
func (c *Client) PublicURL(path string) string {
	return c.baseURL + storagePath + "/object/public/" + c.bucket + "/" + escapePath(path)
}

func escapePath(path string) string {
	parts := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
