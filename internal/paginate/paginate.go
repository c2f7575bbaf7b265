package paginate

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/extract"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

const (
	// DefaultMaxPage is used when a configured max-page selector fails to
	// produce a number.
	DefaultMaxPage = 20
	// defaultHardCap bounds pagination for hosts with no explicit ceiling.
	defaultHardCap = 1000
	offsetPageSize = 20
)

// hardCaps are per-host ceilings on how many listing pages one query may
// walk. Values mirror what the sites themselves serve.
var hardCaps = map[string]int{
	"www.ft.com":     40,
	"www.reuters.com": 3277,
	"www.cityam.com": 1028,
}

// RuleKind tags the site-specific URL rewrite scheme.
type RuleKind int

const (
	// RulePageParam rewrites the "page" query parameter.
	RulePageParam RuleKind = iota
	// RuleNamedParam rewrites a dedicated site-specific query parameter.
	RuleNamedParam
	// RulePathSegment rewrites a "page/<n>" path segment.
	RulePathSegment
	// RuleOffsetSize rewrites offset/size query parameters with
	// offset = 20*(page-1).
	RuleOffsetSize
)

// Rule describes how a page number becomes a request URL. Param is only
// meaningful for RuleNamedParam.
type Rule struct {
	Kind  RuleKind
	Param string
}

// MaxPageSpec locates the page count in pager markup. Regex, when set, is
// applied to each matched text to isolate the numeric token.
type MaxPageSpec struct {
	Container string
	Selector  string
	Regex     string
}

var pathSegmentRe = regexp.MustCompile(`page/[0-9]*`)

// Paginator lazily yields PageRefs 1..Max in ascending order. Callers rely
// on the ascending order to detect when page dates fall below the requested
// window and stop early.
type Paginator struct {
	seed    string
	rule    Rule
	max     int
	current int
}

// New builds a paginator over pages 1..maxPages for the seed URL. An
// unrecognized rewrite rule fails immediately; pagination cannot proceed
// without a URL scheme.
func New(seedURL string, rule Rule, maxPages int) (*Paginator, error) {
	if maxPages < 1 {
		maxPages = 1
	}
	if _, err := rewriteURL(seedURL, rule, 1); err != nil {
		return nil, err
	}
	return &Paginator{seed: seedURL, rule: rule, max: maxPages, current: 1}, nil
}

// Max reports the page ceiling of the sequence.
func (p *Paginator) Max() int { return p.max }

// Next returns the next page reference, or false when the sequence is done.
func (p *Paginator) Next() (domain.PageRef, bool) {
	if p.current > p.max {
		return domain.PageRef{}, false
	}
	resolved, err := rewriteURL(p.seed, p.rule, p.current)
	if err != nil {
		// Rule validity was checked at construction.
		return domain.PageRef{}, false
	}
	ref := domain.PageRef{Page: p.current, URL: resolved}
	p.current++
	return ref, true
}

// rewriteURL applies the site rewrite rule for one page number.
func rewriteURL(seedURL string, rule Rule, page int) (string, error) {
	parsed, err := url.Parse(seedURL)
	if err != nil {
		return "", fmt.Errorf("parse seed url %s: %w", seedURL, err)
	}

	switch rule.Kind {
	case RulePageParam:
		q := parsed.Query()
		q.Set("page", strconv.Itoa(page))
		parsed.RawQuery = q.Encode()
		return parsed.String(), nil
	case RuleNamedParam:
		if strings.TrimSpace(rule.Param) == "" {
			return "", fmt.Errorf("named-param rule for %s has no parameter", seedURL)
		}
		q := parsed.Query()
		q.Set(rule.Param, strconv.Itoa(page))
		parsed.RawQuery = q.Encode()
		return parsed.String(), nil
	case RulePathSegment:
		raw := parsed.String()
		if !pathSegmentRe.MatchString(raw) {
			return "", fmt.Errorf("no page/<n> segment in %s", seedURL)
		}
		return pathSegmentRe.ReplaceAllString(raw, "page/"+strconv.Itoa(page)), nil
	case RuleOffsetSize:
		q := parsed.Query()
		q.Set("offset", strconv.Itoa(offsetPageSize*(page-1)))
		q.Set("size", strconv.Itoa(offsetPageSize))
		parsed.RawQuery = q.Encode()
		return parsed.String(), nil
	default:
		return "", fmt.Errorf("no pagination rule for %s", seedURL)
	}
}

// HardCap returns the per-host page ceiling for a seed URL.
func HardCap(seedURL string) int {
	parsed, err := url.Parse(seedURL)
	if err != nil {
		return defaultHardCap
	}
	if cap, ok := hardCaps[parsed.Host]; ok {
		return cap
	}
	return defaultHardCap
}

// ResolveMaxPages determines how many pages to walk. With a configured
// MaxPageSpec the pager markup is scanned for numeric tokens and the largest
// wins, falling back to DefaultMaxPage when nothing parses; otherwise the
// per-host ceiling applies. Results above the host ceiling are clamped with
// a warning so callers know to narrow their date range.
func ResolveMaxPages(doc *goquery.Document, seedURL string, spec *MaxPageSpec, log logger.Logger) int {
	log = logger.Ensure(log)
	cap := HardCap(seedURL)

	if spec == nil || doc == nil {
		return cap
	}

	texts := extract.Strings(doc, extract.FieldSpec{
		Container: spec.Container,
		Selector:  spec.Selector,
		Getter:    extract.Text(),
	})

	max := maxNumericToken(texts, spec.Regex)
	if max == 0 {
		log.WarnObj("max page not found in pager markup, using default", "paginate_max_default", map[string]any{
			"seed_url": seedURL,
			"selector": spec.Selector,
			"default":  DefaultMaxPage,
		})
		return DefaultMaxPage
	}

	if max > cap {
		log.WarnObj("max pages exceed site ceiling, clamping; narrow the date range to reduce the result", "paginate_clamped", map[string]any{
			"seed_url": seedURL,
			"resolved": max,
			"ceiling":  cap,
		})
		return cap
	}
	return max
}

var digitsRe = regexp.MustCompile(`[0-9]+`)

// maxNumericToken extracts the largest page number mentioned in pager texts.
func maxNumericToken(texts []string, pattern string) int {
	var re *regexp.Regexp
	if pattern != "" {
		compiled, err := regexp.Compile(pattern)
		if err == nil {
			re = compiled
		}
	}

	max := 0
	for _, text := range texts {
		candidate := text
		if re != nil {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			candidate = m[len(m)-1]
		}
		digits := digitsRe.FindString(strings.ReplaceAll(candidate, ",", ""))
		if digits == "" {
			continue
		}
		if n, err := strconv.Atoi(digits); err == nil && n > max {
			max = n
		}
	}
	return max
}
