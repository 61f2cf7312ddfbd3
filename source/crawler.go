// Copyright 2025 Canopy Search
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/canopysearch/catsync/core"
)

const (
	// maxChunkLength bounds the searchable content of one crawled record.
	maxChunkLength = 1000
	// maxCrawlPages bounds the total pages fetched per run across all seeds.
	maxCrawlPages = 100
)

// crawlerAdapter fetches the configured pages, follows same-host links up to
// the configured depth, and converts each page's text into chunked records.
// A page that cannot be fetched or parsed is logged and skipped; the fetch
// only fails when every page failed.
type crawlerAdapter struct {
	client *http.Client
	logger *slog.Logger
}

var _ Adapter = (*crawlerAdapter)(nil)

func newCrawlerAdapter(client *http.Client, logger *slog.Logger) *crawlerAdapter {
	return &crawlerAdapter{
		client: client,
		logger: logger.With("component", "crawler-source"),
	}
}

// crawlTarget is one page queued for fetching.
type crawlTarget struct {
	url   string
	depth int
}

func (a *crawlerAdapter) Fetch(ctx context.Context, req *core.SyncRequest) ([]core.RawRecord, error) {
	cfg := req.SourceConfig.Crawler
	if cfg == nil {
		return nil, fmt.Errorf("%w: crawler", core.ErrMissingVariant)
	}

	queue := make([]crawlTarget, 0, len(cfg.URLs))
	visited := make(map[string]bool, len(cfg.URLs))
	for _, u := range cfg.URLs {
		queue = append(queue, crawlTarget{url: u, depth: 1})
		visited[u] = true
	}

	var records []core.RawRecord
	fetched := 0

	for len(queue) > 0 && fetched < maxCrawlPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		target := queue[0]
		queue = queue[1:]

		page, err := a.fetchPage(ctx, target.url)
		if err != nil {
			a.logger.Warn("skipping page", "url", target.url, "error", err)
			continue
		}
		fetched++

		records = append(records, chunkPage(target.url, page.text)...)

		if target.depth < cfg.MaxDepth {
			for _, link := range page.links {
				if !visited[link] {
					visited[link] = true
					queue = append(queue, crawlTarget{url: link, depth: target.depth + 1})
				}
			}
		}
	}

	if fetched == 0 {
		a.logger.Warn("crawl fetched no pages", "urls", len(cfg.URLs))
		return nil, nil
	}

	a.logger.Info("crawl complete", "pages", fetched, "records", len(records))
	return records, nil
}

// crawledPage is the extracted content of one fetched page.
type crawledPage struct {
	text  string
	links []string
}

func (a *crawlerAdapter) fetchPage(ctx context.Context, pageURL string) (*crawledPage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, nav, footer, aside").Remove()

	return &crawledPage{
		text:  strings.Join(strings.Fields(doc.Find("body").Text()), " "),
		links: extractLinks(doc, pageURL),
	}, nil
}

// extractLinks resolves the page's anchors against its URL and keeps only
// same-host http(s) links, fragment stripped.
func extractLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if resolved.Host != base.Host {
			return
		}
		resolved.Fragment = ""
		link := resolved.String()
		if link != pageURL && !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links
}

// chunkPage splits a page's text into records of at most maxChunkLength
// characters, breaking on word boundaries. Record ids are stable across runs
// for the same URL and chunk index so re-crawls upsert instead of duplicate.
func chunkPage(pageURL, text string) []core.RawRecord {
	if text == "" {
		return nil
	}

	var records []core.RawRecord
	for i, chunk := range splitChunks(text, maxChunkLength) {
		records = append(records, core.RawRecord{
			"id":      fmt.Sprintf("%s_%d", sanitizeURL(pageURL), i),
			"title":   fmt.Sprintf("Content from %s - Part %d", pageURL, i+1),
			"url":     pageURL,
			"content": chunk,
			"index":   i,
		})
	}
	return records
}

// splitChunks breaks text into pieces of at most maxLen characters, splitting
// between words. A single word longer than maxLen becomes its own chunk.
func splitChunks(text string, maxLen int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// sanitizeURL turns a URL into an identifier-safe string.
func sanitizeURL(pageURL string) string {
	s := strings.ReplaceAll(pageURL, "://", "_")
	return strings.ReplaceAll(s, "/", "_")
}
