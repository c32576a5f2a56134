package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// MIME types accepted for uploads, matched against the declared part header
// first and the sniffed content as a fallback.
const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

// maxUploadBytes is the per-file cap, enforced server-side regardless of what
// the client claimed.
const maxUploadBytes = 10 * 1024 * 1024

var (
	submissionMIMETypes = map[string]struct{}{mimeDocx: {}, mimeXlsx: {}}
	markedMIMETypes     = map[string]struct{}{mimeDocx: {}, mimeXlsx: {}, mimePDF: {}}
)

// BlobStore abstracts the blob storage backend behind the three capabilities
// the lifecycle needs.
type BlobStore interface {
	Upload(ctx context.Context, path string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, path string) error
	SignedURL(path string, ttl time.Duration) (string, error)
}

// CleanupQueue accepts blob paths whose deletion should be retried out of
// band when a synchronous delete fails.
type CleanupQueue interface {
	Enqueue(ctx context.Context, paths []string, reason string)
}

// bufferedUpload is a fully read and validated file, ready to store.
type bufferedUpload struct {
	data         []byte
	contentType  string
	originalName string
}

func (b bufferedUpload) size() int64 {
	return int64(len(b.data))
}

// validateUploadBatch reads and validates every file before anything is
// uploaded, so a bad file in the batch rejects the whole request without a
// single blob write.
func validateUploadBatch(files []*multipart.FileHeader, allowed map[string]struct{}) ([]bufferedUpload, error) {
	uploads := make([]bufferedUpload, 0, len(files))
	for _, file := range files {
		upload, err := validateUpload(file, allowed)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func validateUpload(file *multipart.FileHeader, allowed map[string]struct{}) (bufferedUpload, error) {
	if file.Size > maxUploadBytes {
		return bufferedUpload{}, &FileValidationError{File: file.Filename, Reason: "file size must be less than 10MB"}
	}

	handle, err := file.Open()
	if err != nil {
		return bufferedUpload{}, fmt.Errorf("failed to open file %s: %w", file.Filename, err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, maxUploadBytes+1)); err != nil {
		return bufferedUpload{}, fmt.Errorf("failed to read file %s: %w", file.Filename, err)
	}
	if int64(buf.Len()) > maxUploadBytes {
		return bufferedUpload{}, &FileValidationError{File: file.Filename, Reason: "file size must be less than 10MB"}
	}

	contentType := declaredContentType(file)
	if contentType == "" {
		contentType = mimetype.Detect(buf.Bytes()).String()
	}
	if _, ok := allowed[contentType]; !ok {
		return bufferedUpload{}, &FileValidationError{File: file.Filename, Reason: fmt.Sprintf("file type %s is not allowed", contentType)}
	}

	return bufferedUpload{
		data:         buf.Bytes(),
		contentType:  contentType,
		originalName: file.Filename,
	}, nil
}

func declaredContentType(file *multipart.FileHeader) string {
	declared := strings.TrimSpace(file.Header.Get("Content-Type"))
	if declared == "" || declared == "application/octet-stream" {
		return ""
	}
	if idx := strings.Index(declared, ";"); idx >= 0 {
		declared = strings.TrimSpace(declared[:idx])
	}
	return strings.ToLower(declared)
}

// sanitizeFileName reduces a display name to lowercase alphanumerics and
// dashes, keeping the original extension.
func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "file"
	}
	return base
}
