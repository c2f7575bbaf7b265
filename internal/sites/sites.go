package sites

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/extract"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/paginate"
)

// Flow selects how a site's listings are walked.
type Flow int

const (
	// FlowPaginate walks numbered listing pages from a seed URL.
	FlowPaginate Flow = iota
	// FlowDailySitemap walks one per-day article sitemap per date in the
	// requested range and visits every article it lists.
	FlowDailySitemap
)

// Visit targets mark fields only available on the article's own page.
const (
	VisitBody   = "body"
	VisitAuthor = "author"
)

// Adapter is the static per-site configuration one generic pipeline run is
// parameterized by: selectors, getters, pagination rule and visit strategy.
type Adapter struct {
	// Identity is the canonical seed URL used as the configuration lookup
	// key for keywords and date formats.
	Identity string
	SeedURL  string
	Flow     Flow

	Rule     paginate.Rule
	MaxPage  *paginate.MaxPageSpec
	// NextPage, when set, locates the next-page link on the seed page;
	// its href becomes the rewrite template for the whole sequence.
	NextPage *extract.FieldSpec

	Title  extract.FieldSpec
	Link   extract.FieldSpec
	Date   extract.FieldSpec
	Body   extract.FieldSpec
	Author extract.FieldSpec

	// VisitToGet lists the fields requiring a detail-page fetch.
	VisitToGet []string

	// SitemapPattern formats one daily sitemap URL; the %s verb receives
	// the date as YYYY-MM-DD. Only used by FlowDailySitemap.
	SitemapPattern string

	Timeout    time.Duration
	MaxRetries int
	Headers    map[string]string
}

// Visits reports whether the named field needs a detail-page visit.
func (a Adapter) Visits(target string) bool {
	for _, v := range a.VisitToGet {
		if v == target {
			return true
		}
	}
	return false
}

// Registry resolves the adapter for a submitted site identity.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry builds a registry for the provided adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	reg := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if strings.TrimSpace(a.Identity) == "" {
			continue
		}
		reg.adapters[a.Identity] = a
	}
	return reg
}

// Register adds or replaces one adapter.
func (r *Registry) Register(a Adapter) {
	if strings.TrimSpace(a.Identity) == "" {
		return
	}
	r.mu.Lock()
	r.adapters[a.Identity] = a
	r.mu.Unlock()
}

// AdapterFor selects the adapter for the given site identity. An unknown
// identity is a configuration error fatal to that job only.
func (r *Registry) AdapterFor(site string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.adapters[site]; ok {
		return a, nil
	}
	return Adapter{}, fmt.Errorf("no site adapter registered for %q", site)
}

// Identities lists the registered site identities.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry wires the supported site adapters.
func DefaultRegistry() *Registry {
	return NewRegistry(
		FTMarkets(),
		CityAMMarkets(),
		ReutersFunds(),
		HLFunds(),
		InvestmentWeekFunds(),
		MorningstarFundResearch(),
		MorningstarTrustResearch(),
		ETFStream(),
		Bestinvest(),
		ThisIsMoney(),
		MoneyToTheMasses(),
	)
}
