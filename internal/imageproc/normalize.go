// Package imageproc turns an image reference (remote URL, data URI or local
// path) into the single data URI form the upstream model accepts.
package imageproc

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/metrics"
	"go.uber.org/zap"
)

const (
	pngPrefix    = "data:image/png;base64,"
	dataURIStart = "data:image"
)

var jpegPrefixes = []string{
	"data:image/jpeg;base64,",
	"data:image/jpg;base64,",
}

type Source int

const (
	SourcePath Source = iota
	SourceURL
	SourceDataURI
)

func (s Source) String() string {
	switch s {
	case SourceURL:
		return "url"
	case SourceDataURI:
		return "data_uri"
	default:
		return "path"
	}
}

// Classify picks the representation of ref from its prefix.
func Classify(ref string) Source {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SourceURL
	case strings.HasPrefix(ref, dataURIStart):
		return SourceDataURI
	default:
		return SourcePath
	}
}

// ImageError is returned for any reference that cannot be turned into a
// data URI. It is always the client's problem.
type ImageError struct {
	Source Source
	Msg    string
	Err    error
}

func (e *ImageError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

type Normalizer struct {
	logger   *zap.Logger
	client   *http.Client
	maxBytes int64
	cache    Cache
}

func NewNormalizer(logger *zap.Logger, client *http.Client, maxBytes int64) *Normalizer {
	return &Normalizer{
		logger:   logger,
		client:   client,
		maxBytes: maxBytes,
	}
}

// SetCacheClient enables caching of fetched remote images.
func (n *Normalizer) SetCacheClient(cache Cache) {
	n.cache = cache
}

// Normalize returns ref as a data:image/png;base64 URI. The payload of an
// existing data URI is never re-encoded; only a JPEG label is rewritten.
func (n *Normalizer) Normalize(ctx context.Context, ref string) (string, error) {
	start := time.Now()
	source := Classify(ref)

	var (
		out string
		err error
	)
	switch source {
	case SourceURL:
		out, err = n.fromURL(ctx, ref)
	case SourceDataURI:
		out = RelabelDataURI(ref)
	default:
		out, err = n.fromPath(ref)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ImageNormalizeTotal(status, source.String())
	metrics.ImageNormalizeDuration(status, source.String(), time.Since(start))
	return out, err
}

// RelabelDataURI rewrites a JPEG data URI prefix to PNG, leaving the payload
// bytes untouched. Other data URIs are returned as is.
func RelabelDataURI(ref string) string {
	for _, p := range jpegPrefixes {
		if strings.HasPrefix(ref, p) {
			return pngPrefix + ref[len(p):]
		}
	}
	return ref
}

func encodePNG(data []byte) string {
	return pngPrefix + base64.StdEncoding.EncodeToString(data)
}

func (n *Normalizer) fromPath(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		n.logger.Warn("read image file", zap.String("path", path), zap.Error(err))
		return "", &ImageError{Source: SourcePath, Msg: "Could not read image file", Err: err}
	}
	return encodePNG(data), nil
}

func (n *Normalizer) fromURL(ctx context.Context, url string) (string, error) {
	key := cacheKey(url)
	if n.cache != nil {
		cached, found, err := n.cache.Get(ctx, key)
		if err != nil {
			n.logger.Warn("image cache get", zap.Error(err))
		}
		if found {
			n.logger.Debug("image served from cache", zap.String("url", url))
			return cached, nil
		}
	}

	data, err := n.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	out := encodePNG(data)

	if n.cache != nil {
		if err := n.cache.Set(ctx, key, out); err != nil {
			n.logger.Warn("image cache set", zap.Error(err))
		}
	}
	return out, nil
}

// fetch downloads url into a temp file capped at maxBytes. The file is
// removed before fetch returns, whatever the outcome.
func (n *Normalizer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ImageError{Source: SourceURL, Msg: "invalid image URL", Err: err}
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, &ImageError{Source: SourceURL, Msg: "failed to fetch image", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ImageError{
			Source: SourceURL,
			Msg:    fmt.Sprintf("failed to fetch image: status %d", resp.StatusCode),
		}
	}

	tmp, err := os.CreateTemp("", "image-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp image file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	written, err := io.Copy(tmp, io.LimitReader(resp.Body, n.maxBytes+1))
	if err != nil {
		return nil, &ImageError{Source: SourceURL, Msg: "failed to read image body", Err: err}
	}
	if written > n.maxBytes {
		return nil, &ImageError{
			Source: SourceURL,
			Msg:    fmt.Sprintf("image exceeds %d bytes", n.maxBytes),
		}
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind temp image file: %w", err)
	}
	return io.ReadAll(tmp)
}

func cacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "image:" + hex.EncodeToString(hash[:])
}
