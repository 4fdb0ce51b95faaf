// Package avatar runs the pick, upload and display cycle for profile pictures.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrPickCanceled means the user backed out of picking an image. Nothing was uploaded.
var ErrPickCanceled = errors.New("avatar: pick canceled")

// Image is a picked file, ready to upload.
type Image struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

type Picker interface {
	Pick(ctx context.Context) (*Image, error)
}

// Storage is the avatar bucket.
type Storage interface {
	Upload(ctx context.Context, accessToken, path, contentType string, body io.Reader) error
	PublicURL(path string) string
}

// TokenSource yields the signed-in user's access token.
type TokenSource interface {
	AccessToken() (string, error)
}

// Flow holds the currently displayed avatar URL. A failed upload leaves it unchanged.
type Flow struct {
	storage  Storage
	tokens   TokenSource
	logger   *logrus.Entry
	now      func() time.Time
	mu       sync.Mutex
	url      string
	onUpload func(path string)
}

func NewFlow(storage Storage, tokens TokenSource, logger *logrus.Logger) *Flow {
	return &Flow{
		storage: storage,
		tokens:  tokens,
		logger:  logger.WithField("component", "avatar"),
		now:     time.Now,
	}
}

// OnUpload registers fn to receive the object path after each successful upload.
func (f *Flow) OnUpload(fn func(path string)) {
	f.mu.Lock()
	f.onUpload = fn
	f.mu.Unlock()
}

// Run picks an image, uploads it and switches the displayed URL to it.
// It returns the new object path.
func (f *Flow) Run(ctx context.Context, picker Picker) (string, error) {
	img, err := picker.Pick(ctx)
	if err != nil {
		return "", err
	}
	defer img.Body.Close()

	path := ObjectPath(f.now(), img.Name, img.ContentType)
	if err := f.Upload(ctx, path, img); err != nil {
		return "", err
	}

	f.mu.Lock()
	cb := f.onUpload
	f.mu.Unlock()
	if cb != nil {
		cb(path)
	}

	f.Resolve(path)
	return path, nil
}

// Upload stores img at path in the avatar bucket.
func (f *Flow) Upload(ctx context.Context, path string, img *Image) error {
	token, err := f.tokens.AccessToken()
	if err != nil {
		return err
	}

	if err := f.storage.Upload(ctx, token, path, img.ContentType, img.Body); err != nil {
		f.logger.WithError(err).WithField("path", path).Error("Avatar upload failed")
		return fmt.Errorf("upload avatar: %w", err)
	}

	f.logger.WithField("path", path).Info("Avatar uploaded")
	return nil
}

// Resolve makes path the displayed avatar and returns its public URL.
// An empty path clears it.
func (f *Flow) Resolve(path string) string {
	url := f.PublicURL(path)

	f.mu.Lock()
	f.url = url
	f.mu.Unlock()
	return url
}

// PublicURL returns the public URL of path without touching the displayed avatar.
func (f *Flow) PublicURL(path string) string {
	if path == "" {
		return ""
	}
	return f.storage.PublicURL(path)
}

// URL is the currently displayed avatar URL, empty when there is none.
func (f *Flow) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

// ObjectPath names an upload "<unix millis>.<ext>", taking the extension from
// the file name, then the content type.
func ObjectPath(now time.Time, name, contentType string) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "." + extension(name, contentType)
}

// preferredExtensions maps common image types to their usual extension.
var preferredExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/heic":    "heic",
	"image/heif":    "heif",
	"image/bmp":     "bmp",
	"image/svg+xml": "svg",
}

func extension(name, contentType string) string {
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := preferredExtensions[mediaType]; ok {
			return ext
		}
	}
	if contentType != "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return strings.TrimPrefix(exts[0], ".")
		}
	}
	return "bin"
}
