package sites

import (
	"strings"
	"time"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/extract"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/paginate"
)

// One constructor per supported source. Each returns pure configuration; all
// control flow lives in the generic pipeline.

// FTMarkets covers the ft.com markets listing.
func FTMarkets() Adapter {
	const container = ".o-teaser--article"
	return Adapter{
		Identity: "https://www.ft.com/markets",
		SeedURL:  "https://www.ft.com/markets?page=1",
		Rule:     paginate.Rule{Kind: paginate.RulePageParam},
		Title:    extract.FieldSpec{Container: container, Selector: ".o-teaser__heading a", Getter: extract.Text()},
		Link:     extract.FieldSpec{Container: container, Selector: ".o-teaser__heading a", Getter: extract.Href()},
		Date:     extract.FieldSpec{Container: container, Selector: ".o-teaser__timestamp-date", Getter: extract.Text()},
		Body:     extract.FieldSpec{Selector: "article p", Getter: extract.Text()},
		Author:   extract.FieldSpec{Selector: ".article-info p", Getter: extract.Text()},
		VisitToGet: []string{VisitBody, VisitAuthor},
	}
}

// CityAMMarkets covers the cityam.com markets category.
func CityAMMarkets() Adapter {
	return Adapter{
		Identity: "https://www.cityam.com/category/markets/",
		SeedURL:  "https://www.cityam.com/category/markets/",
		Rule:     paginate.Rule{Kind: paginate.RulePathSegment},
		NextPage: &extract.FieldSpec{Selector: ".next.page-numbers", Getter: extract.Href()},
		MaxPage:  &paginate.MaxPageSpec{Container: "ul.page-numbers li", Selector: "a", Regex: `Page (.*)`},
		Title:    extract.FieldSpec{Container: "div.content-container article .card__title", Selector: "a", Getter: extract.Text()},
		Link:     extract.FieldSpec{Container: "div.content-container article .card__title", Selector: "a", Getter: extract.Href()},
		Date:     extract.FieldSpec{Container: "div.content-container article", Selector: "time", Getter: extract.Text()},
		Body:     extract.FieldSpec{Selector: "header~p", Getter: extract.Text()},
		Author:   extract.FieldSpec{Selector: "[rel='author']", Getter: extract.Text()},
		VisitToGet: []string{VisitBody, VisitAuthor},
	}
}

// ReutersFunds covers the reuters funds section via its JSON content API.
// The fetcher projects the payload into a synthetic tree, so the selectors
// address JSON keys as element names.
func ReutersFunds() Adapter {
	return Adapter{
		Identity: "https://www.reuters.com/markets/funds/",
		SeedURL:  "https://www.reuters.com/pf/api/v3/content/fetch/articles-by-section-alias-or-id-v1?offset=0&size=20&section_id=%2Fmarkets%2Ffunds%2F&website=reuters",
		Rule:     paginate.Rule{Kind: paginate.RuleOffsetSize},
		Title:    extract.FieldSpec{Selector: "articles title", Getter: extract.Text()},
		Link: extract.FieldSpec{Selector: "articles canonical_url", Getter: extract.Transform(func(path string) string {
			if path == "" || strings.HasPrefix(path, "http") {
				return path
			}
			return "https://www.reuters.com" + path
		})},
		Date:   extract.FieldSpec{Selector: "articles display_time", Getter: extract.Text()},
		Body:   extract.FieldSpec{Selector: "p[data-testid*='paragraph'], p[class*='paragraph']", Getter: extract.Text()},
		Author: extract.FieldSpec{Container: "articles authors", Selector: "name", Getter: extract.Text()},
		VisitToGet: []string{VisitBody},
	}
}

// HLFunds covers the Hargreaves Lansdown funds tag. The site paginates
// through a dedicated query parameter on its blank-layout endpoint.
func HLFunds() Adapter {
	const container = ".newsCard__content"
	return Adapter{
		Identity: "https://www.hl.co.uk/news/tags/funds",
		SeedURL:  "https://www.hl.co.uk/news/tags/funds?SQ_DESIGN_NAME=blank&SQ_PAINT_LAYOUT_NAME=tagging_pagnation&result_15077628_result_page=1",
		Rule:     paginate.Rule{Kind: paginate.RuleNamedParam, Param: "result_15077628_result_page"},
		Title:    extract.FieldSpec{Container: container, Selector: ".newsCard__title", Getter: extract.Text()},
		Link:     extract.FieldSpec{Container: container, Selector: ".newsCard__anchor", Getter: extract.Href()},
		Date:     extract.FieldSpec{Container: container, Selector: ".newsCard__date", Getter: extract.Text()},
		Body:     extract.FieldSpec{Selector: "#article div[class='row'] p, #article div[class='row'] h2, #mainContent div[class='row'] p, #mainContent div[class='row'] h1", Getter: extract.Text()},
		Author:   extract.FieldSpec{Container: container, Selector: ".newsCard__author", Getter: extract.Text()},
		VisitToGet: []string{VisitBody},
		Timeout:    15 * time.Second,
		MaxRetries: 5,
	}
}

// InvestmentWeekFunds covers the investmentweek.co.uk funds category.
func InvestmentWeekFunds() Adapter {
	const container = ".card-body"
	return Adapter{
		Identity: "https://www.investmentweek.co.uk/category/investment/funds",
		SeedURL:  "https://www.investmentweek.co.uk/category/investment/funds",
		Rule:     paginate.Rule{Kind: paginate.RulePathSegment},
		NextPage: &extract.FieldSpec{Selector: "a.next_page", Getter: extract.Href()},
		Title:    extract.FieldSpec{Container: container, Selector: ".platformheading", Getter: extract.Text()},
		Link:     extract.FieldSpec{Container: container, Selector: ".platformheading a", Getter: extract.Href()},
		Date:     extract.FieldSpec{Container: container, Selector: ".published", Getter: extract.Text()},
		Body:     extract.FieldSpec{Selector: ".summary, div[itemprop='articleBody']", Getter: extract.Text()},
		Author:   extract.FieldSpec{Selector: ".article-head-block .author-name", Getter: extract.Text()},
		VisitToGet: []string{VisitBody, VisitAuthor},
		Timeout:    5 * time.Second,
	}
}

// MorningstarFundResearch covers the morningstar fund research collection.
func MorningstarFundResearch() Adapter {
	return morningstarCollection("https://www.morningstar.co.uk/uk/collection/2114/fund-research--insights.aspx?page=1")
}

// MorningstarTrustResearch covers the investment-trust research collection.
func MorningstarTrustResearch() Adapter {
	return morningstarCollection("https://www.morningstar.co.uk/uk/collection/2135/investment-trust-research--insights.aspx")
}

// morningstarCollection shares selectors across the two morningstar archive
// collections; only the identity differs.
func morningstarCollection(identity string) Adapter {
	return Adapter{
		Identity: identity,
		SeedURL:  identity,
		Rule:     paginate.Rule{Kind: paginate.RulePageParam},
		Title:    extract.FieldSpec{Selector: "td[headers='archive_title']", Getter: extract.Text()},
		Link:     extract.FieldSpec{Container: "td[headers='archive_title']", Selector: "a", Getter: extract.Href()},
		Date:     extract.FieldSpec{Selector: "td[headers='archive_date']", Getter: extract.Text()},
		Body:     extract.FieldSpec{Selector: ".seopurpose h2, .seopurpose p", Getter: extract.Text()},
		Author:   extract.FieldSpec{Selector: "td[headers='archive_auth']", Getter: extract.Text()},
		VisitToGet: []string{VisitBody},
		Timeout:    5 * time.Second,
	}
}

// ETFStream covers the etfstream.com news listing.
func ETFStream() Adapter {
	const container = ".article-details"
	return Adapter{
		Identity: "https://www.etfstream.com/news",
		SeedURL:  "https://www.etfstream.com/news/page/1",
		Rule:     paginate.Rule{Kind: paginate.RulePathSegment},
		Title:    extract.FieldSpec{Container: container, Selector: "h4", Getter: extract.Text()},
		Link:     extract.FieldSpec{Selector: "a:has(.article-container)", Getter: extract.Href()},
		Date:     extract.FieldSpec{Container: container, Selector: "time", Getter: extract.Text()},
		Body:     extract.FieldSpec{Selector: "article", Getter: extract.Text()},
		Author:   extract.FieldSpec{Container: container, Selector: ".article-author-date p", Getter: extract.Text()},
		VisitToGet: []string{VisitBody},
		Timeout:    5 * time.Second,
	}
}

// Bestinvest covers the bestinvest.co.uk investing news listing. The date
// cell embeds a byline after a pipe and the author is prefixed with
// "Written by"; both are handled by transform getters.
func Bestinvest() Adapter {
	return Adapter{
		Identity: "https://www.bestinvest.co.uk/news/investing",
		SeedURL:  "https://www.bestinvest.co.uk/news/investing/1",
		Rule:     paginate.Rule{Kind: paginate.RulePageParam},
		Title:    extract.FieldSpec{Container: `div[data-test="ArticleCard"]`, Selector: "h4", Getter: extract.Text()},
		Link:     extract.FieldSpec{Container: `div[data-test="ArticleCard"]`, Selector: "a", Getter: extract.Href()},
		Date: extract.FieldSpec{Selector: ".jLomYA", Getter: extract.Transform(func(s string) string {
			before, _, _ := strings.Cut(s, "|")
			return strings.TrimSpace(before)
		})},
		Body: extract.FieldSpec{Selector: ".RteTextRenderer-root", Getter: extract.Text()},
		Author: extract.FieldSpec{Selector: `span:contains('Written by')`, Getter: extract.Transform(func(s string) string {
			return strings.TrimSpace(strings.TrimPrefix(s, "Written by"))
		})},
		VisitToGet: []string{VisitBody, VisitAuthor},
		Timeout:    5 * time.Second,
	}
}

// ThisIsMoney walks the thisismoney.co.uk daily article sitemaps; every
// field lives on the article page itself.
func ThisIsMoney() Adapter {
	return Adapter{
		Identity:       "https://www.thisismoney.co.uk/money/investing/index.html",
		Flow:           FlowDailySitemap,
		SitemapPattern: "https://www.thisismoney.co.uk/sitemap-articles-day~%s.xml",
		Title:          extract.FieldSpec{Selector: "h1", Getter: extract.Text()},
		Body:           extract.FieldSpec{Selector: `[itemprop="articleBody"]`, Getter: extract.Text()},
		Author:         extract.FieldSpec{Selector: ".author", Getter: extract.Text()},
	}
}

// MoneyToTheMasses covers the moneytothemasses.com news category.
func MoneyToTheMasses() Adapter {
	return Adapter{
		Identity: "https://moneytothemasses.com/category/news",
		SeedURL:  "https://moneytothemasses.com/category/news/page/1",
		Rule:     paginate.Rule{Kind: paginate.RulePathSegment},
		Title:    extract.FieldSpec{Selector: "h3 a", Getter: extract.Text()},
		Link:     extract.FieldSpec{Selector: "h3 a", Getter: extract.Href()},
		Date:     extract.FieldSpec{Selector: ".date", Getter: extract.Text()},
		Body:     extract.FieldSpec{Selector: "article", Getter: extract.Text()},
		Author:   extract.FieldSpec{Selector: ".author", Getter: extract.Text()},
		VisitToGet: []string{VisitBody},
		Timeout:    5 * time.Second,
	}
}
