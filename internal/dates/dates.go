package dates

import (
	"net/url"
	"strings"
	"time"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

// OutputFormat is the display format used in the final report.
const OutputFormat = "January 02, 2006"

// defaultFormats maps a site identity, or a bare host as fallback, to the
// ordered candidate layouts tried against that site's raw date text. First
// successful parse wins.
var defaultFormats = map[string][]string{
	"https://www.ft.com/markets":                            {"January 02, 2006"},
	"https://www.cityam.com/category/markets/":              {"January 02, 2006"},
	"https://www.hl.co.uk/news/tags/funds":                  {"02 Jan 2006"},
	"https://www.investmentweek.co.uk/category/investment/funds": {"02 January 2006"},
	"https://www.morningstar.co.uk/uk/collection/2114/fund-research--insights.aspx?page=1": {"02/01/06"},
	"www.morningstar.co.uk":   {"02/01/06"},
	"www.reuters.com":         {"Jan 02 2006", "15:04PM EDT", "15:04PM EST"},
	"www.etfstream.com":       {"02 Jan 2006"},
	"www.bestinvest.co.uk":    {"02 January 2006"},
	"www.thisismoney.co.uk":   {"2006-01-02T15:04:05Z"},
	"moneytothemasses.com":    {"2 January 2006", "January 2, 2006"},
}

// repairToday marks identities whose time-only formats parse with an
// obviously wrong year; such dates are re-anchored to the current day. The
// hook is generic by identity even though only one site triggers it today.
var repairToday = map[string]bool{
	"www.reuters.com": true,
}

// Normalizer parses free-text dates using per-site candidate format lists.
type Normalizer struct {
	formats map[string][]string
	repairs map[string]bool
	now     func() time.Time
	log     logger.Logger
}

// NewNormalizer builds a Normalizer seeded with the built-in format tables.
func NewNormalizer(log logger.Logger) *Normalizer {
	formats := make(map[string][]string, len(defaultFormats))
	for k, v := range defaultFormats {
		formats[k] = v
	}
	repairs := make(map[string]bool, len(repairToday))
	for k, v := range repairToday {
		repairs[k] = v
	}
	return &Normalizer{
		formats: formats,
		repairs: repairs,
		now:     time.Now,
		log:     logger.Ensure(log),
	}
}

// SetFormats registers or replaces the candidate layouts for one key.
func (n *Normalizer) SetFormats(key string, layouts []string) {
	n.formats[key] = layouts
}

// Normalize parses raw into a calendar datetime for the given site identity.
// A false result means the text is unparseable; callers must pass such rows
// through for manual review rather than drop them.
func (n *Normalizer) Normalize(site, raw string) (time.Time, bool) {
	raw = StripSeparators(raw)
	if raw == "" {
		return time.Time{}, false
	}

	layouts, key := n.lookup(site)
	if layouts == nil {
		n.log.ErrorObj("date format unknown for site", "date_format_missing", map[string]any{
			"site": site,
		})
		return time.Time{}, false
	}

	for _, layout := range layouts {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return n.repair(key, parsed), true
	}

	n.log.WarnObj("date text matched no configured format", "date_parse_failed", map[string]any{
		"site":  site,
		"value": raw,
	})
	return time.Time{}, false
}

// Format renders a parsed date in the report display format.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(OutputFormat)
}

// StripSeparators drops the trailing segment sites append after a pipe or
// bullet separator in bylines.
func StripSeparators(raw string) string {
	for _, sep := range []string{"|", "•"} {
		if idx := strings.Index(raw, sep); idx >= 0 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

// lookup resolves the format list by full site identity first, then by bare
// host. The returned key is the one that matched, so repair rules keyed the
// same way stay aligned.
func (n *Normalizer) lookup(site string) ([]string, string) {
	if layouts, ok := n.formats[site]; ok {
		return layouts, site
	}
	host := hostOf(site)
	if host == "" {
		return nil, ""
	}
	if layouts, ok := n.formats[host]; ok {
		return layouts, host
	}
	return nil, ""
}

// repair re-anchors dates parsed with an obviously wrong year (time-only
// layouts yield year 0 in Go, 1900 in older strptime implementations) to the
// current day, keeping the parsed clock.
func (n *Normalizer) repair(key string, parsed time.Time) time.Time {
	if parsed.Year() > 1900 {
		return parsed
	}
	anchor := key
	if !n.repairs[anchor] {
		anchor = hostOf(key)
	}
	if !n.repairs[anchor] {
		return parsed
	}
	today := n.now()
	return time.Date(today.Year(), today.Month(), today.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, today.Location())
}

func hostOf(site string) string {
	parsed, err := url.Parse(site)
	if err != nil {
		return ""
	}
	if parsed.Host != "" {
		return parsed.Host
	}
	// Bare hosts parse with an empty Host; the input already is one.
	return site
}
