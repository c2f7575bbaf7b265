package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
	"github.com/Devarsh-leo/news-feed-extractor-worker/pkg/httpclient"
)

const maxBodyBytes = 4 << 20 // 4 MiB

// Fetcher turns a URL into a navigable document tree. Structured (JSON)
// responses are projected into a synthetic element tree so the extractor can
// use one selector language for markup and API payloads alike.
type Fetcher struct {
	client httpclient.Client
	log    logger.Logger
}

// New builds a Fetcher over the given client.
func New(client httpclient.Client, log logger.Logger) *Fetcher {
	if client == nil {
		client = httpclient.New(httpclient.Options{})
	}
	return &Fetcher{client: client, log: logger.Ensure(log)}
}

// Fetch retrieves and parses the page at rawURL. A non-nil error means the
// page is unusable and should be skipped, never that the whole job is dead.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) (*goquery.Document, error) {
	resp, err := f.client.Get(ctx, rawURL, headers)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d: %s", rawURL, resp.StatusCode(), bodySnippet(resp.Body()))
	}

	body := resp.Body()
	if len(body) > maxBodyBytes {
		f.log.InfoObj("response body truncated", "fetch_truncation", map[string]any{
			"url":      rawURL,
			"original": len(body),
			"kept":     maxBodyBytes,
		})
		body = body[:maxBodyBytes]
	}

	if isStructured(resp.Header().Get("Content-Type"), body) {
		synthetic, err := SynthesizeTree(body)
		if err != nil {
			return nil, fmt.Errorf("synthesize tree for %s: %w", rawURL, err)
		}
		f.log.DebugObj("structured payload projected to element tree", "fetch_synthetic", map[string]any{
			"url": rawURL,
		})
		body = synthetic
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", rawURL, err)
	}

	if parsed, err := url.Parse(rawURL); err == nil {
		doc.Url = parsed
	}
	return doc, nil
}

// bodySnippet trims a response body down to an error-message-sized excerpt.
func bodySnippet(body []byte) string {
	const maxSnippet = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippet {
		s = s[:maxSnippet] + "..."
	}
	return s
}

// isStructured reports whether the response carries JSON rather than markup.
func isStructured(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "json") {
		return true
	}
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
