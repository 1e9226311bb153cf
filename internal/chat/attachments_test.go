package chat

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidkat/voidkat/internal/config"
	"github.com/voidkat/voidkat/internal/logger"
)

func testAttachmentsConfig() config.AttachmentsConfig {
	return config.AttachmentsConfig{
		MaxSize:       20 * 1024 * 1024,
		Timeout:       5 * time.Second,
		ProbeCacheTTL: time.Minute,
	}
}

func newTestResolver(handler http.Handler) (*Resolver, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewResolver(server.Client(), nil, testAttachmentsConfig(), logger.NewTestLogger()), server
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no urls", "just words", nil},
		{"plain url", "look at https://example.com/cat.png now", []string{"https://example.com/cat.png"}},
		{"embed suppressed", "see <https://example.com/dog.jpg>", []string{"https://example.com/dog.jpg"}},
		{
			"multiple in order",
			"https://a.example/1.png and <https://b.example/2.gif>",
			[]string{"https://a.example/1.png", "https://b.example/2.gif"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractURLs(tt.text))
		})
	}
}

func TestResolveNoURLs(t *testing.T) {
	resolver := NewResolver(http.DefaultClient, nil, testAttachmentsConfig(), logger.NewTestLogger())
	contents, err := resolver.Resolve(context.Background(), "no links here")
	require.NoError(t, err)
	assert.Nil(t, contents)
}

func TestResolveSingleImage(t *testing.T) {
	data := pngBytes(t)
	resolver, server := newTestResolver(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		if r.Method == http.MethodGet {
			w.Write(data)
		}
	}))
	defer server.Close()

	contents, err := resolver.Resolve(context.Background(), "look "+server.URL+"/cat.png")
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "image_url", contents[0].Type)
	assert.True(t, strings.HasPrefix(contents[0].ImageURL.URL, "data:image/png;base64,"))
}

func TestResolveRejectsUnsupportedTypeBeforeDownload(t *testing.T) {
	var gets int
	resolver, server := newTestResolver(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets++
		}
		w.Header().Set("Content-Type", "application/pdf")
	}))
	defer server.Close()

	_, err := resolver.Resolve(context.Background(), server.URL+"/doc.pdf")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "unsupported")
	assert.Zero(t, gets, "body must not be downloaded")
}

func TestResolveRejectsOversizeBeforeDownload(t *testing.T) {
	var gets int
	resolver, server := newTestResolver(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets++
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", fmt.Sprint(25*1024*1024))
	}))
	defer server.Close()

	_, err := resolver.Resolve(context.Background(), server.URL+"/huge.png")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "too large")
	assert.Zero(t, gets, "body must not be downloaded")
}

func TestResolveFallsBackToGETProbe(t *testing.T) {
	data := pngBytes(t)
	var heads, gets int
	resolver, server := newTestResolver(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			heads++
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			gets++
			w.Header().Set("Content-Type", "image/png")
			w.Write(data)
		}
	}))
	defer server.Close()

	contents, err := resolver.Resolve(context.Background(), server.URL+"/cat.png")
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, 1, heads)
	assert.Equal(t, 2, gets, "one probe fallback, one download")
}

func TestResolveEnforcesCeilingDuringStreaming(t *testing.T) {
	resolver := NewResolver(nil, nil, config.AttachmentsConfig{
		MaxSize:       64,
		ProbeCacheTTL: time.Minute,
	}, logger.NewTestLogger())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		if r.Method == http.MethodHead {
			// the probe sees a small declared size
			w.Header().Set("Content-Length", "10")
			return
		}
		w.Write(bytes.Repeat([]byte{0xFF}, 200))
	}))
	defer server.Close()
	resolver.client = server.Client()

	_, err := resolver.Resolve(context.Background(), server.URL+"/liar.png")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "exceeds")
}

func TestResolveAnimatedGIFExplodesFrames(t *testing.T) {
	var buf bytes.Buffer
	palette := color.Palette{color.Black, color.White}
	anim := &gif.GIF{
		Image: []*image.Paletted{
			image.NewPaletted(image.Rect(0, 0, 2, 2), palette),
			image.NewPaletted(image.Rect(0, 0, 2, 2), palette),
			image.NewPaletted(image.Rect(0, 0, 2, 2), palette),
		},
		Delay: []int{10, 10, 10},
	}
	require.NoError(t, gif.EncodeAll(&buf, anim))
	data := buf.Bytes()

	resolver, server := newTestResolver(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		if r.Method == http.MethodGet {
			w.Write(data)
		}
	}))
	defer server.Close()

	contents, err := resolver.Resolve(context.Background(), server.URL+"/anim.gif")
	require.NoError(t, err)
	require.Len(t, contents, 3)
	for _, content := range contents {
		assert.True(t, strings.HasPrefix(content.ImageURL.URL, "data:image/png;base64,"))
	}
}

func TestResolveProbeFailureNamesURL(t *testing.T) {
	resolver, server := newTestResolver(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	url := server.URL + "/gone.png"
	_, err := resolver.Resolve(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Contains(t, err.Error(), url)
}

func TestResolveAbortsWholeSetOnOneFailure(t *testing.T) {
	data := pngBytes(t)
	resolver, server := newTestResolver(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			w.Header().Set("Content-Type", "application/octet-stream")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if r.Method == http.MethodGet {
			w.Write(data)
		}
	}))
	defer server.Close()

	text := server.URL + "/good.png " + server.URL + "/bad.bin"
	contents, err := resolver.Resolve(context.Background(), text)
	require.Error(t, err)
	assert.Nil(t, contents, "partial attachment sets are never returned")
}
