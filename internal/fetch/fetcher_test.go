package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devarsh-leo/news-feed-extractor-worker/pkg/httpclient"
)

func newTestFetcher() *Fetcher {
	return New(httpclient.New(httpclient.Options{
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		RateLimitDelay: 10 * time.Millisecond,
	}), nil)
}

func TestFetchHTMLDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a class="story" href="/a1">Headline</a></body></html>`)
	}))
	defer srv.Close()

	doc, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/list", nil)
	require.NoError(t, err)

	assert.Equal(t, "Headline", doc.Find("a.story").Text())

	// The document keeps its own URL so relative links can resolve.
	require.NotNil(t, doc.Url)
	href, _ := doc.Find("a.story").Attr("href")
	ref, err := url.Parse(href)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/a1", doc.Url.ResolveReference(ref).String())
}

func TestFetchJSONProjectsToTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"articles": [{"headline": "One"}, {"headline": "Two"}]}`)
	}))
	defer srv.Close()

	doc, err := newTestFetcher().Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	var got []string
	doc.Find("articles headline").Each(func(_ int, sel *goquery.Selection) {
		got = append(got, sel.Text())
	})
	assert.Equal(t, []string{"One", "Two"}, got)
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL, nil)
	assert.Error(t, err)
}

func TestIsStructured(t *testing.T) {
	assert.True(t, isStructured("application/json", nil))
	assert.True(t, isStructured("text/html", []byte(`  {"a":1}`)))
	assert.True(t, isStructured("", []byte(`[1,2]`)))
	assert.False(t, isStructured("text/html", []byte(`<html></html>`)))
	assert.False(t, isStructured("", nil))
}
