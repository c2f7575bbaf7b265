package keywords

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKeywords = `
sites:
  "https://www.ft.com/markets":
    keywords:
      fund: true
      etf: true
      pension: false
  "https://www.cityam.com/category/markets/":
    keywords:
      investment trust: true
`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleKeywords), 0o644))
	return NewStore(path, nil)
}

func TestMatchWholeWordsOnly(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Match("https://www.ft.com/markets", "The fund posted gains")
	require.NoError(t, err)
	assert.Equal(t, "fund", got)

	// "funding" must not match "fund".
	got, err = s.Match("https://www.ft.com/markets", "Startup funding rounds up")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestMatchCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Match("https://www.ft.com/markets", "ETF inflows surge as the Fund grows")
	require.NoError(t, err)
	assert.Equal(t, "etf:fund", got)
}

func TestMatchPhraseKeyword(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Match("https://www.cityam.com/category/markets/", "an Investment Trust rebounded")
	require.NoError(t, err)
	assert.Equal(t, "investment trust", got)
}

func TestMatchUnknownSiteIsError(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Match("https://unknown.example/news", "fund")
	assert.Error(t, err)
}

func TestDisabledKeywordsExcluded(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, []string{"etf", "fund"}, s.Keywords("https://www.ft.com/markets"))

	got, err := s.Match("https://www.ft.com/markets", "pension reform")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestUpdateAllPersistsAndReloads(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateAll(map[string]map[string]bool{
		"https://www.ft.com/markets": {"bond": true, "fund": false},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bond"}, s.Keywords("https://www.ft.com/markets"))

	got, err := s.Match("https://www.ft.com/markets", "the fund bought a bond")
	require.NoError(t, err)
	assert.Equal(t, "bond", got)

	// The previous second site was replaced wholesale.
	_, err = s.Match("https://www.cityam.com/category/markets/", "investment trust")
	assert.Error(t, err)
}

func TestMissingFileLeavesStoreEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.yaml"), nil)

	_, err := s.Match("https://www.ft.com/markets", "fund")
	assert.Error(t, err)
	assert.Nil(t, s.Keywords("https://www.ft.com/markets"))
}
