package keywords

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

// storeFile is the on-disk shape: per-site keyword maps with enabled flags,
// so keywords can be toggled without being deleted.
type storeFile struct {
	Sites map[string]siteEntry `yaml:"sites"`
}

type siteEntry struct {
	Keywords map[string]bool `yaml:"keywords"`
}

// Store holds the per-site keyword sets with explicit reload semantics.
type Store struct {
	mu       sync.RWMutex
	path     string
	sets     map[string]map[string]*regexp.Regexp
	log      logger.Logger
}

// NewStore loads the keyword file at path. A missing or unreadable file
// leaves the store empty; every match against it then fails as a
// configuration error.
func NewStore(path string, log logger.Logger) *Store {
	s := &Store{
		path: path,
		sets: map[string]map[string]*regexp.Regexp{},
		log:  logger.Ensure(log),
	}
	if err := s.Reload(); err != nil {
		s.log.ErrorObj("failed to load keywords", "keywords_load_error", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}
	return s
}

// Reload re-reads the keyword file, replacing the in-memory sets. Disabled
// keywords are dropped; enabled ones are lowercased and compiled into
// word-boundary patterns.
func (s *Store) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read keywords file: %w", err)
	}

	var file storeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("decode keywords file: %w", err)
	}

	sets := make(map[string]map[string]*regexp.Regexp, len(file.Sites))
	for site, entry := range file.Sites {
		compiled := make(map[string]*regexp.Regexp, len(entry.Keywords))
		for kw, enabled := range entry.Keywords {
			if !enabled {
				continue
			}
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			compiled[kw] = wordPattern(kw)
		}
		sets[site] = compiled
	}

	s.mu.Lock()
	s.sets = sets
	s.mu.Unlock()
	return nil
}

// UpdateAll replaces the stored keyword sets and persists them to disk.
func (s *Store) UpdateAll(data map[string]map[string]bool) error {
	file := storeFile{Sites: make(map[string]siteEntry, len(data))}
	for site, kws := range data {
		file.Sites[site] = siteEntry{Keywords: kws}
	}

	raw, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write keywords file: %w", err)
	}
	return s.Reload()
}

// Keywords returns the enabled keyword set configured for a site.
func (s *Store) Keywords(site string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[site]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for kw := range set {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Match returns the colon-joined keywords from the site's set that occur in
// text as whole words, case-insensitively. An empty string means no match.
// A site absent from configuration is a configuration error, distinct from
// "this article matched nothing".
func (s *Store) Match(site, text string) (string, error) {
	s.mu.RLock()
	set, ok := s.sets[site]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("keywords not configured for %s", site)
	}

	lower := strings.ToLower(text)
	var matched []string
	for kw, re := range set {
		if re.MatchString(lower) {
			matched = append(matched, kw)
		}
	}
	sort.Strings(matched)
	return strings.Join(matched, ":"), nil
}

// wordPattern compiles a whole-word, already-lowercased keyword pattern so
// "fund" never matches inside "funding".
func wordPattern(kw string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
}
