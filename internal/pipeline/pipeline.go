package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/dates"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/extract"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/fetch"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/keywords"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/output"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/paginate"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/sites"
	"github.com/Devarsh-leo/news-feed-extractor-worker/pkg/httpclient"
)

// graceWindow is the tolerance past the requested to-date; listings stamp
// near-boundary articles with times that spill into the next calendar day.
const graceWindow = 24 * time.Hour

// Pipeline drives one site job: paginate, extract, normalize, filter and
// stage surviving rows. One Pipeline is shared by all jobs of a session.
type Pipeline struct {
	client     httpclient.Client
	keywords   *keywords.Store
	normalizer *dates.Normalizer
	staging    *output.Staging
	log        logger.Logger
}

// New builds a Pipeline staging into the given session staging area. A nil
// client makes each job build its own with the adapter's timeouts.
func New(client httpclient.Client, kw *keywords.Store, norm *dates.Normalizer, staging *output.Staging, log logger.Logger) *Pipeline {
	return &Pipeline{
		client:     client,
		keywords:   kw,
		normalizer: norm,
		staging:    staging,
		log:        logger.Ensure(log),
	}
}

// Run executes the job against its site adapter. Configuration errors are
// fatal to this job only; page-level failures are logged and skipped. The
// context carries the session's cancellation signal and is observed at the
// top of every page iteration and before every detail-page visit.
func (p *Pipeline) Run(ctx context.Context, job domain.ExtractionJob, site sites.Adapter) error {
	fetcher := p.fetcherFor(site)

	if site.Flow == sites.FlowDailySitemap {
		return p.runSitemapWalk(ctx, fetcher, job, site)
	}
	return p.runPaginated(ctx, fetcher, job, site)
}

// fetcherFor builds the fetcher for one job, honoring per-site timeouts.
func (p *Pipeline) fetcherFor(site sites.Adapter) *fetch.Fetcher {
	client := p.client
	if client == nil {
		client = httpclient.New(httpclient.Options{
			Timeout:    site.Timeout,
			MaxRetries: site.MaxRetries,
		})
	}
	return fetch.New(client, p.log)
}

// runPaginated walks the numbered listing pages in ascending order, stopping
// early once a page's trailing article date falls below the window.
func (p *Pipeline) runPaginated(ctx context.Context, fetcher *fetch.Fetcher, job domain.ExtractionJob, site sites.Adapter) error {
	seedDoc, err := fetcher.Fetch(ctx, site.SeedURL, site.Headers)
	if err != nil {
		return fmt.Errorf("load seed page: %w", err)
	}

	template := site.SeedURL
	if site.NextPage != nil {
		if hrefs := extract.Strings(seedDoc, *site.NextPage); len(hrefs) == 1 && hrefs[0] != "" {
			template = hrefs[0]
		}
	}

	maxPages := paginate.ResolveMaxPages(seedDoc, template, site.MaxPage, p.log)
	pager, err := paginate.New(template, site.Rule, maxPages)
	if err != nil {
		return fmt.Errorf("build paginator: %w", err)
	}

	p.log.InfoObj("starting paginated walk", "pipeline_start", map[string]any{
		"job_id":    job.ID,
		"site":      site.Identity,
		"max_pages": pager.Max(),
	})

	for {
		if err := ctx.Err(); err != nil {
			p.log.InfoObj("job cancelled", "pipeline_cancelled", map[string]any{
				"job_id": job.ID,
				"site":   site.Identity,
			})
			return err
		}

		ref, ok := pager.Next()
		if !ok {
			return nil
		}

		stop, err := p.processPage(ctx, fetcher, job, site, ref)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// No single page failure aborts the job.
			p.log.ErrorObj("page scrape failed", "pipeline_page_error", map[string]any{
				"job_id": job.ID,
				"site":   site.Identity,
				"page":   ref.Page,
				"url":    ref.URL,
				"error":  err.Error(),
			})
			continue
		}
		if stop {
			p.log.InfoObj("page dates fell below requested window, stopping", "pipeline_early_stop", map[string]any{
				"job_id": job.ID,
				"site":   site.Identity,
				"page":   ref.Page,
			})
			return nil
		}
	}
}

// processPage extracts, filters and stages one listing page. A true result
// means the listing has scrolled past the requested window and the walk
// should stop after this page; listings are assumed reverse-chronological.
func (p *Pipeline) processPage(ctx context.Context, fetcher *fetch.Fetcher, job domain.ExtractionJob, site sites.Adapter, ref domain.PageRef) (bool, error) {
	doc, err := fetcher.Fetch(ctx, ref.URL, site.Headers)
	if err != nil {
		return false, err
	}

	rec := domain.ArticleRecord{
		Dates:  extract.Strings(doc, site.Date),
		Titles: extract.Strings(doc, site.Title),
		Links:  extract.Strings(doc, site.Link),
	}
	if !site.Visits(sites.VisitBody) {
		rec.Bodies = extract.Strings(doc, site.Body)
	}
	if !site.Visits(sites.VisitAuthor) {
		rec.Authors = extract.Strings(doc, site.Author)
	}

	stop := false
	if len(rec.Dates) > 0 {
		if last, ok := p.normalizer.Normalize(job.SiteURL, rec.Dates[len(rec.Dates)-1]); ok && last.Before(job.FromDate) {
			stop = true
		}
	}

	if site.Visits(sites.VisitBody) || site.Visits(sites.VisitAuthor) {
		bodies, authors, err := p.visitArticles(ctx, fetcher, site, rec.Links)
		if err != nil {
			return stop, err
		}
		if site.Visits(sites.VisitBody) {
			rec.Bodies = bodies
		}
		if site.Visits(sites.VisitAuthor) {
			rec.Authors = authors
		}
	}

	rows, err := p.filterRecords(job, site, ref, rec)
	if err != nil {
		return stop, err
	}
	if err := p.staging.Append(job.ID, rows); err != nil {
		return stop, err
	}
	return stop, nil
}

// visitArticles fetches each linked detail page once and pulls the fields
// the listing does not carry.
func (p *Pipeline) visitArticles(ctx context.Context, fetcher *fetch.Fetcher, site sites.Adapter, links []string) (bodies, authors []string, err error) {
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if link == "" {
			bodies = append(bodies, "")
			authors = append(authors, "")
			continue
		}

		doc, err := fetcher.Fetch(ctx, link, site.Headers)
		if err != nil {
			p.log.WarnObj("detail page fetch failed", "pipeline_visit_error", map[string]any{
				"site":  site.Identity,
				"url":   link,
				"error": err.Error(),
			})
			bodies = append(bodies, "")
			authors = append(authors, "")
			continue
		}
		body, author := detailFields(doc, site)
		if site.Visits(sites.VisitBody) && body == "" {
			p.log.WarnObj("body not located on article page", "pipeline_body_missing", map[string]any{
				"site": site.Identity,
				"url":  link,
			})
		}
		bodies = append(bodies, body)
		authors = append(authors, author)
	}
	return bodies, authors, nil
}

// detailFields extracts body and author from one article document.
func detailFields(doc *goquery.Document, site sites.Adapter) (body, author string) {
	if site.Visits(sites.VisitBody) {
		body = strings.TrimSpace(strings.Join(extract.Strings(doc, site.Body), "\n"))
	}
	if site.Visits(sites.VisitAuthor) {
		author = strings.Trim(strings.TrimSpace(strings.Join(extract.Strings(doc, site.Author), ", ")), ", ")
	}
	return body, author
}

// filterRecords builds the surviving rows for one page: keyword match on
// title or body, and date inside the window (dateless rows pass through for
// manual review rather than being dropped).
func (p *Pipeline) filterRecords(job domain.ExtractionJob, site sites.Adapter, ref domain.PageRef, rec domain.ArticleRecord) ([]domain.FilteredRow, error) {
	n := len(rec.Titles)
	if len(rec.Links) != n || len(rec.Dates) != n {
		n = min(n, min(len(rec.Links), len(rec.Dates)))
		p.log.WarnObj("extracted field counts mismatch, truncating", "pipeline_count_mismatch", map[string]any{
			"site":    site.Identity,
			"page":    ref.Page,
			"titles":  len(rec.Titles),
			"links":   len(rec.Links),
			"dates":   len(rec.Dates),
			"records": n,
		})
	}

	var rows []domain.FilteredRow
	for i := 0; i < n; i++ {
		title := rec.Titles[i]
		body := at(rec.Bodies, i)

		titleKWs, err := p.keywords.Match(job.SiteURL, title)
		if err != nil {
			return nil, err
		}
		bodyKWs, err := p.keywords.Match(job.SiteURL, body)
		if err != nil {
			return nil, err
		}
		if titleKWs == "" && bodyKWs == "" {
			continue
		}

		when, dated := p.normalizer.Normalize(job.SiteURL, rec.Dates[i])
		if dated && !WithinWindow(when, job.FromDate, job.ToDate) {
			continue
		}

		rows = append(rows, domain.FilteredRow{
			PageURL:       ref.URL,
			Date:          formatIf(when, dated),
			Title:         title,
			Author:        at(rec.Authors, i),
			URL:           rec.Links[i],
			TitleKeywords: titleKWs,
			BodyKeywords:  bodyKWs,
			Site:          site.Identity,
		})
	}
	return rows, nil
}

// WithinWindow reports whether a timestamp falls inside [from, to] with the
// one-day grace window past to, so late-evening stamps dated the next
// calendar day still qualify.
func WithinWindow(when, from, to time.Time) bool {
	return !when.Before(from) && !when.After(to.Add(graceWindow))
}

func formatIf(when time.Time, dated bool) string {
	if !dated {
		return ""
	}
	return dates.Format(when)
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
