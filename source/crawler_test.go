package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopysearch/catsync/core"
)

func crawlerRequest(urls []string, maxDepth int) *core.SyncRequest {
	return &core.SyncRequest{
		SourceConfig: core.SourceConfig{
			Source: core.SourceCrawler,
			Crawler: &core.CrawlerConfig{
				URLs:     urls,
				MaxDepth: maxDepth,
			},
		},
	}
}

func TestCrawlerFetchSinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Shop</title></head>
			<body><script>ignored()</script><p>Red running shoe with cushioned sole</p></body></html>`))
	}))
	defer server.Close()

	factory := NewFactory(WithHTTPClient(server.Client()))
	records, err := factory.Fetch(context.Background(), crawlerRequest([]string{server.URL}, 1))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, sanitizeURL(server.URL)+"_0", records[0]["id"])
	assert.Equal(t, fmt.Sprintf("Content from %s - Part 1", server.URL), records[0]["title"])
	assert.Equal(t, server.URL, records[0]["url"])
	assert.Equal(t, 0, records[0]["index"])
	content := records[0]["content"].(string)
	assert.Contains(t, content, "Red running shoe")
	assert.NotContains(t, content, "ignored")
}

func TestCrawlerChunksLongPages(t *testing.T) {
	long := strings.Repeat("word ", 600) // ~3000 chars of text
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", long)
	}))
	defer server.Close()

	factory := NewFactory(WithHTTPClient(server.Client()))
	records, err := factory.Fetch(context.Background(), crawlerRequest([]string{server.URL}, 1))
	require.NoError(t, err)
	require.Greater(t, len(records), 1)

	for i, record := range records {
		assert.Equal(t, fmt.Sprintf("%s_%d", sanitizeURL(server.URL), i), record["id"])
		assert.LessOrEqual(t, len(record["content"].(string)), maxChunkLength)
	}
}

func TestCrawlerFollowsLinksToDepth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Landing page <a href="/products">products</a></body></html>`))
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Product list <a href="/products/1">one</a></body></html>`))
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Deep product page</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	factory := NewFactory(WithHTTPClient(server.Client()))

	// Depth 2: landing page plus its direct links, not their links.
	records, err := factory.Fetch(context.Background(), crawlerRequest([]string{server.URL + "/"}, 2))
	require.NoError(t, err)

	var contents []string
	for _, record := range records {
		contents = append(contents, record["content"].(string))
	}
	joined := strings.Join(contents, "\n")
	assert.Contains(t, joined, "Landing page")
	assert.Contains(t, joined, "Product list")
	assert.NotContains(t, joined, "Deep product page")
}

func TestCrawlerSkipsFailedPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`<html><body>Working page</body></html>`))
	}))
	defer server.Close()

	factory := NewFactory(WithHTTPClient(server.Client()))
	records, err := factory.Fetch(context.Background(),
		crawlerRequest([]string{server.URL + "/broken", server.URL + "/ok"}, 1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0]["content"].(string), "Working page")
}

func TestCrawlerAllPagesFailedReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	factory := NewFactory(WithHTTPClient(server.Client()))
	records, err := factory.Fetch(context.Background(),
		crawlerRequest([]string{server.URL + "/a", server.URL + "/b"}, 1))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSplitChunks(t *testing.T) {
	assert.Nil(t, splitChunks("", 10))
	assert.Equal(t, []string{"one two"}, splitChunks("one  two", 10))
	assert.Equal(t, []string{"one two", "three"}, splitChunks("one two three", 8))
	// A single oversized word still becomes a chunk.
	assert.Equal(t, []string{"abcdefghij"}, splitChunks("abcdefghij", 5))
}

func TestSanitizeURL(t *testing.T) {
	assert.Equal(t, "https_example.com_shop_page", sanitizeURL("https://example.com/shop/page"))
}
