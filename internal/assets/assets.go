// Package assets stores user-uploaded profile images and serves their
// public URLs.
package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/models"
)

// Storage persists an uploaded image and returns its public URL.
type Storage interface {
	Save(ctx context.Context, userID int64, filename, mimeType string, data []byte) (string, error)
}

var allowedMIMEs = map[string]bool{
	"image/png":   true,
	"image/jpeg":  true,
	"image/jpg":   true,
	"image/gif":   true,
	"image/webp":  true,
	"image/pjpeg": true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// DiskStore writes uploads under root, one directory per user, and
// serves them from baseURL.
type DiskStore struct {
	root     string
	baseURL  string
	maxBytes int64
	logger   zerolog.Logger
	clock    func() time.Time
}

// NewDiskStore builds a disk-backed store. baseURL is the external URL
// prefix under which root is served.
func NewDiskStore(root, baseURL string, maxBytes int64, logger zerolog.Logger) *DiskStore {
	return &DiskStore{
		root:     root,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		logger:   logger,
		clock:    time.Now,
	}
}

// Save validates and writes one upload. Only common image types are
// accepted and the payload may not exceed the configured byte cap. The
// stored name is "<unix ms>_<sanitized original>"; on a name collision a
// random suffix is appended and the write retried.
func (d *DiskStore) Save(ctx context.Context, userID int64, filename, mimeType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !allowedMIMEs[strings.ToLower(mimeType)] {
		return "", models.ValidationError("unsupported image type %q", mimeType)
	}
	if int64(len(data)) > d.maxBytes {
		return "", models.ValidationError("image exceeds %d byte limit", d.maxBytes)
	}
	if len(data) == 0 {
		return "", models.ValidationError("empty upload")
	}

	dir := filepath.Join(d.root, fmt.Sprintf("%d", userID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s", d.clock().UnixMilli(), SanitizeFilename(filename))
	for attempt := 0; ; attempt++ {
		path := filepath.Join(dir, name)
		err := writeExclusive(path, data)
		if err == nil {
			d.logger.Debug().Int64("user_id", userID).Str("path", path).Msg("asset stored")
			return d.publicURL(userID, name), nil
		}
		if !os.IsExist(err) || attempt >= 3 {
			return "", fmt.Errorf("writing upload: %w", err)
		}
		name = withRandomSuffix(name)
	}
}

func (d *DiskStore) publicURL(userID int64, name string) string {
	return fmt.Sprintf("%s/assets/%d/%s", d.baseURL, userID, name)
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SanitizeFilename replaces every character outside [a-zA-Z0-9._-] with
// an underscore.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "upload"
	}
	return unsafeChars.ReplaceAllString(base, "_")
}

func withRandomSuffix(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s%s", stem, uuid.NewString()[:8], ext)
}

// DecodeDataURL splits a "data:<mime>;base64,<payload>" upload into its
// MIME type and raw bytes.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, models.ValidationError("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, models.ValidationError("malformed data URL")
	}
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return "", nil, models.ValidationError("data URL must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, models.ValidationError("invalid base64 payload")
	}
	return mimeType, data, nil
}
