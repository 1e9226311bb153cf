package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/gif"
	"image/png"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/voidkat/voidkat/internal/ai"
	"github.com/voidkat/voidkat/internal/cache"
	"github.com/voidkat/voidkat/internal/config"
	"github.com/voidkat/voidkat/internal/logger"
)

// urlPattern matches a scheme followed by non-whitespace. Discord
// wraps links in <> to suppress embeds, so those are allowed around
// the match and stripped afterwards.
var urlPattern = regexp.MustCompile(`<?\bhttps?://[^\s<>]+>?`)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
	"image/gif":  true,
}

type probeResult struct {
	contentType string
	size        int64
}

// Resolver turns image URLs found in a message into base64 data URLs
// ready for a multimodal completion request.
type Resolver struct {
	client  *http.Client
	cache   cache.Cache
	maxSize int64
	ttl     time.Duration
	logger  logger.Logger
}

func NewResolver(client *http.Client, probeCache cache.Cache, cfg config.AttachmentsConfig, log logger.Logger) *Resolver {
	return &Resolver{
		client:  client,
		cache:   probeCache,
		maxSize: cfg.MaxSize,
		ttl:     cfg.ProbeCacheTTL,
		logger:  log,
	}
}

// ExtractURLs returns the URL candidates in the message with any
// surrounding embed-suppression markers removed, in order.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, strings.Trim(m, "<>"))
	}
	return urls
}

// Resolve fetches every image URL in the message and returns one
// content part per frame, in extraction order. Any failure aborts
// the whole set, partial attachment lists are never returned.
func (r *Resolver) Resolve(ctx context.Context, text string) ([]ai.Content, error) {
	urls := ExtractURLs(text)
	if len(urls) == 0 {
		return nil, nil
	}

	var contents []ai.Content
	for _, url := range urls {
		frames, err := r.resolveURL(ctx, url)
		if err != nil {
			return nil, err
		}
		contents = append(contents, frames...)
	}
	return contents, nil
}

func (r *Resolver) resolveURL(ctx context.Context, url string) ([]ai.Content, error) {
	probe, err := r.probe(ctx, url)
	if err != nil {
		return nil, err
	}

	contentType := normalizeContentType(probe.contentType)
	if !allowedImageTypes[contentType] {
		return nil, &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("unsupported attachment type %q", contentType),
			URL:     url,
		}
	}
	if probe.size > r.maxSize {
		return nil, &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("attachment too large: %d bytes (limit %d)", probe.size, r.maxSize),
			URL:     url,
		}
	}

	data, err := r.download(ctx, url)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logger.Fields{
		"url":          url,
		"content_type": contentType,
		"size":         len(data),
	}).Debug("Attachment downloaded")

	if contentType == "image/gif" {
		return explodeGIF(url, data)
	}

	return []ai.Content{encodeFrame(contentType, data)}, nil
}

// probe reads the declared content type and size without downloading
// the body. HEAD first, a streamed GET when the server rejects HEAD.
func (r *Resolver) probe(ctx context.Context, url string) (probeResult, error) {
	if r.cache != nil {
		if data, ok := r.cache.Get("probe:" + url); ok {
			var cached probeResult
			if _, err := fmt.Sscanf(string(data), "%d %s", &cached.size, &cached.contentType); err == nil {
				return cached, nil
			}
		}
	}

	result, err := r.doProbe(ctx, http.MethodHead, url)
	if err != nil {
		result, err = r.doProbe(ctx, http.MethodGet, url)
	}
	if err != nil {
		return probeResult{}, err
	}

	if r.cache != nil {
		r.cache.Set("probe:"+url, fmt.Appendf(nil, "%d %s", result.size, result.contentType), r.ttl)
	}
	return result, nil
}

func (r *Resolver) doProbe(ctx context.Context, method, url string) (probeResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return probeResult{}, NewNetworkError("invalid attachment URL", url, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return probeResult{}, NewNetworkError("attachment probe failed", url, err)
	}
	// body is discarded, headers are all we need
	resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return probeResult{}, NewNetworkError(
			fmt.Sprintf("attachment probe failed with status %d", resp.StatusCode), url, nil)
	}

	return probeResult{
		contentType: resp.Header.Get("Content-Type"),
		size:        resp.ContentLength,
	}, nil
}

// download streams the body with the size ceiling enforced again, in
// case the probe headers lied.
func (r *Resolver) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewNetworkError("invalid attachment URL", url, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, NewNetworkError("attachment download failed", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewNetworkError(
			fmt.Sprintf("attachment download failed with status %d", resp.StatusCode), url, nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxSize+1))
	if err != nil {
		return nil, NewNetworkError("attachment download failed", url, err)
	}
	if int64(len(data)) > r.maxSize {
		return nil, &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("attachment too large: body exceeds %d bytes", r.maxSize),
			URL:     url,
		}
	}

	return data, nil
}

// explodeGIF re-encodes every frame of an animated GIF as a separate
// PNG content part, preserving frame order.
func explodeGIF(url string, data []byte) ([]ai.Content, error) {
	img, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{
			Kind:    KindValidation,
			Message: "failed to decode GIF",
			URL:     url,
			Err:     err,
		}
	}

	contents := make([]ai.Content, 0, len(img.Image))
	for _, frame := range img.Image {
		var buf bytes.Buffer
		if err := png.Encode(&buf, frame); err != nil {
			return nil, &Error{
				Kind:    KindValidation,
				Message: "failed to re-encode GIF frame",
				URL:     url,
				Err:     err,
			}
		}
		contents = append(contents, encodeFrame("image/png", buf.Bytes()))
	}
	return contents, nil
}

func encodeFrame(contentType string, data []byte) ai.Content {
	return ai.NewImageContent(fmt.Sprintf(
		"data:%s;base64,%s",
		contentType,
		base64.StdEncoding.EncodeToString(data),
	))
}

func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
