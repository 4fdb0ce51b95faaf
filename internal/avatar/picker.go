package avatar

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MultipartPicker picks the file a client posted. A missing file is a cancel.
type MultipartPicker struct {
	File *multipart.FileHeader
}

func (p MultipartPicker) Pick(ctx context.Context) (*Image, error) {
	if p.File == nil {
		return nil, ErrPickCanceled
	}
	f, err := p.File.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}

	contentType := p.File.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(filepath.Ext(p.File.Filename))
	}
	return &Image{Name: p.File.Filename, ContentType: contentType, Body: f}, nil
}

// FilePicker picks a file from disk. An empty path is a cancel.
type FilePicker struct {
	Path string
}

func (p FilePicker) Pick(ctx context.Context) (*Image, error) {
	if strings.TrimSpace(p.Path) == "" {
		return nil, ErrPickCanceled
	}
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.Path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(p.Path))
	if contentType == "" {
		head := make([]byte, 512)
		n, _ := f.Read(head)
		contentType = http.DetectContentType(head[:n])
		if _, err := f.Seek(0, 0); err != nil {
			f.Close()
			return nil, fmt.Errorf("rewind %s: %w", p.Path, err)
		}
	}
	return &Image{Name: filepath.Base(p.Path), ContentType: contentType, Body: f}, nil
}
