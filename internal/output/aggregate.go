package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/dates"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/extract"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/fetch"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

// reportHeader is the column order of the final report.
var reportHeader = []string{
	"Date", "Title", "Author", "URL", "Title/Body", "Title Keywords", "Body Keywords", "Site",
}

// dateFallback locates a date on an article page when none survived
// extraction, keyed by the article host.
type dateFallback struct {
	container string
	selector  string
	layout    string
}

var dateFallbacks = map[string]dateFallback{
	"www.cityam.com": {
		container: ".article-header",
		selector:  "time",
		layout:    "Monday 02 January 2006 3:04 PM",
	},
}

// Aggregator merges staged per-job files into one deduplicated report.
type Aggregator struct {
	outputDir string
	fetcher   *fetch.Fetcher
	log       logger.Logger
}

// NewAggregator builds an Aggregator writing reports under outputDir. The
// fetcher is only used for best-effort date reconciliation and may be nil.
func NewAggregator(outputDir string, fetcher *fetch.Fetcher, log logger.Logger) *Aggregator {
	return &Aggregator{outputDir: outputDir, fetcher: fetcher, log: logger.Ensure(log)}
}

// mergedRow accumulates the per-URL group during deduplication. Scalar
// fields keep the first-seen value; keyword sets union across the group.
type mergedRow struct {
	date     string
	title    string
	author   string
	site     string
	titleKWs map[string]struct{}
	bodyKWs  map[string]struct{}
}

// Aggregate concatenates all staged files, deduplicates by canonical URL,
// reconciles missing dates, classifies, sorts and writes the session report.
// The staging directory and the intermediate raw file are deleted whatever
// the outcome; a session always yields a report file, possibly header-only.
func (a *Aggregator) Aggregate(ctx context.Context, staging *Staging, sessionID string) (string, int, error) {
	rawPath := filepath.Join(a.outputDir, fmt.Sprintf("raw-%s.csv", sessionID))
	reportPath := filepath.Join(a.outputDir, fmt.Sprintf("Extracted-Data-%s.csv", sessionID))

	defer func() {
		if err := staging.Remove(); err != nil {
			a.log.WarnObj("failed to remove staging dir", "aggregate_cleanup", map[string]any{
				"dir":   staging.Dir(),
				"error": err.Error(),
			})
		}
		os.Remove(rawPath)
	}()

	rows, err := staging.Load()
	if err != nil {
		a.log.ErrorObj("failed to load staged rows", "aggregate_load_error", map[string]any{
			"error": err.Error(),
		})
		rows = nil
	}

	if err := a.writeRaw(rawPath, rows); err != nil {
		a.log.WarnObj("failed to write raw session file", "aggregate_raw_error", map[string]any{
			"error": err.Error(),
		})
	}

	urls, merged := merge(rows)

	for _, u := range urls {
		m := merged[u]
		if m.date == "" {
			m.date = a.reconcileDate(ctx, u)
		}
	}

	count, err := a.writeReport(reportPath, urls, merged)
	if err != nil {
		return "", 0, err
	}
	return reportPath, count, nil
}

// merge drops exact duplicate rows, then collapses the remainder to one
// entry per canonical URL. The returned slice preserves first-seen URL
// order, which is the stable tie-break for the first-value fields. Merging
// is idempotent: merging the merge output changes nothing.
func merge(rows []domain.FilteredRow) ([]string, map[string]*mergedRow) {
	seen := map[string]struct{}{}
	merged := map[string]*mergedRow{}
	var urls []string

	for _, row := range rows {
		key := strings.Join([]string{
			row.PageURL, row.Date, row.Title, row.Author, row.URL,
			row.TitleKeywords, row.BodyKeywords, row.Site,
		}, "\x1f")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		m, ok := merged[row.URL]
		if !ok {
			m = &mergedRow{
				titleKWs: map[string]struct{}{},
				bodyKWs:  map[string]struct{}{},
			}
			merged[row.URL] = m
			urls = append(urls, row.URL)
		}

		if m.date == "" {
			m.date = row.Date
		}
		if m.title == "" {
			m.title = row.Title
		}
		if m.author == "" {
			m.author = row.Author
		}
		if m.site == "" {
			m.site = row.Site
		}
		addKeywords(m.titleKWs, row.TitleKeywords)
		addKeywords(m.bodyKWs, row.BodyKeywords)
	}
	return urls, merged
}

func addKeywords(set map[string]struct{}, joined string) {
	for _, kw := range strings.Split(joined, ":") {
		if kw = strings.TrimSpace(kw); kw != "" {
			set[kw] = struct{}{}
		}
	}
}

func joinKeywords(set map[string]struct{}) string {
	out := make([]string, 0, len(set))
	for kw := range set {
		out = append(out, kw)
	}
	sort.Strings(out)
	return strings.Join(out, ":")
}

// classify derives the Title/Body column from which keyword sets are
// non-empty for the group.
func classify(titleKWs, bodyKWs string) string {
	switch {
	case titleKWs != "" && bodyKWs != "":
		return "yes/yes"
	case titleKWs != "":
		return "yes/no"
	default:
		return "no/yes"
	}
}

// reconcileDate re-fetches the article and extracts its date with the
// per-domain fallback selector. Best effort: any failure leaves the date
// blank for manual review.
func (a *Aggregator) reconcileDate(ctx context.Context, articleURL string) string {
	parsed, err := url.Parse(articleURL)
	if err != nil {
		return ""
	}
	fb, ok := dateFallbacks[parsed.Host]
	if !ok || a.fetcher == nil {
		a.log.WarnObj("url not supported for date reconciliation", "aggregate_reconcile_skip", map[string]any{
			"url": articleURL,
		})
		return ""
	}

	doc, err := a.fetcher.Fetch(ctx, articleURL, nil)
	if err != nil {
		a.log.WarnObj("date reconciliation fetch failed", "aggregate_reconcile_fetch", map[string]any{
			"url":   articleURL,
			"error": err.Error(),
		})
		return ""
	}

	texts := extract.Strings(doc, extract.FieldSpec{
		Container: fb.container,
		Selector:  fb.selector,
		Getter:    extract.Text(),
	})
	if len(texts) == 0 || texts[0] == "" {
		a.log.WarnObj("date not located during reconciliation", "aggregate_reconcile_miss", map[string]any{
			"url": articleURL,
		})
		return ""
	}

	parsedDate, err := time.Parse(fb.layout, texts[0])
	if err != nil {
		a.log.WarnObj("reconciled date failed to parse", "aggregate_reconcile_parse", map[string]any{
			"url":   articleURL,
			"value": texts[0],
		})
		return ""
	}
	return dates.Format(parsedDate)
}

// writeRaw writes the concatenated pre-dedup table. It is an intermediate
// artifact removed once the report exists.
func (a *Aggregator) writeRaw(path string, rows []domain.FilteredRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write([]string{
			row.Date, row.Title, row.Author, row.URL, "",
			row.TitleKeywords, row.BodyKeywords, row.Site,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeReport sorts the merged rows by date descending then site ascending
// (undated rows last) and writes the final CSV.
func (a *Aggregator) writeReport(path string, urls []string, merged map[string]*mergedRow) (int, error) {
	type reportRow struct {
		url    string
		when   time.Time
		dated  bool
		record []string
	}

	out := make([]reportRow, 0, len(urls))
	for _, u := range urls {
		m := merged[u]
		titleKWs := joinKeywords(m.titleKWs)
		bodyKWs := joinKeywords(m.bodyKWs)

		row := reportRow{url: u}
		if m.date != "" {
			if when, err := time.Parse(dates.OutputFormat, m.date); err == nil {
				row.when = when
				row.dated = true
			}
		}
		row.record = []string{
			m.date, m.title, m.author, u,
			classify(titleKWs, bodyKWs), titleKWs, bodyKWs, m.site,
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.dated != b.dated {
			return a.dated
		}
		if a.dated && !a.when.Equal(b.when) {
			return a.when.After(b.when)
		}
		return a.record[7] < b.record[7]
	})

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return 0, fmt.Errorf("write report header: %w", err)
	}
	for _, row := range out {
		if err := w.Write(row.record); err != nil {
			return 0, fmt.Errorf("write report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}

	a.log.InfoObj("session report written", "aggregate_report", map[string]any{
		"path": path,
		"rows": len(out),
	})
	return len(out), nil
}
