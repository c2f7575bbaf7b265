package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePerSiteFormats(t *testing.T) {
	n := NewNormalizer(nil)

	cases := []struct {
		site string
		raw  string
		want time.Time
	}{
		{"https://www.ft.com/markets", "March 05, 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"https://www.cityam.com/category/markets/", "January 15, 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"https://www.hl.co.uk/news/tags/funds", "05 Mar 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"https://www.investmentweek.co.uk/category/investment/funds", "05 March 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"https://www.morningstar.co.uk/uk/news", "05/03/24", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"https://www.reuters.com/markets/funds/", "Mar 05 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"https://www.etfstream.com/articles", "05 Mar 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"https://www.bestinvest.co.uk/news", "05 March 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"https://www.thisismoney.co.uk/money", "2024-03-05T09:30:00Z", time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)},
		{"https://moneytothemasses.com/news", "5 March 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, ok := n.Normalize(tc.site, tc.raw)
		require.True(t, ok, "site %s raw %q", tc.site, tc.raw)
		assert.True(t, tc.want.Equal(got), "site %s: want %v got %v", tc.site, tc.want, got)
	}
}

func TestNormalizeStripsTrailingSeparators(t *testing.T) {
	n := NewNormalizer(nil)

	got, ok := n.Normalize("https://www.bestinvest.co.uk/news", "05 March 2024 | 4 min read")
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())

	got, ok = n.Normalize("https://www.etfstream.com/articles", "05 Mar 2024 • Features")
	require.True(t, ok)
	assert.Equal(t, time.March, got.Month())
}

func TestNormalizeTimeOnlyRepairsToToday(t *testing.T) {
	n := NewNormalizer(nil)
	fixed := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	got, ok := n.Normalize("https://www.reuters.com/markets/funds/", "3:45PM EDT")
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 10, got.Day())
	assert.Equal(t, 15, got.Hour())
	assert.Equal(t, 45, got.Minute())
}

func TestNormalizeUnparseable(t *testing.T) {
	n := NewNormalizer(nil)

	_, ok := n.Normalize("https://www.ft.com/markets", "sometime last week")
	assert.False(t, ok)

	_, ok = n.Normalize("https://www.ft.com/markets", "")
	assert.False(t, ok)

	_, ok = n.Normalize("https://unknown.example/news", "March 05, 2024")
	assert.False(t, ok)
}

func TestSetFormatsOverrides(t *testing.T) {
	n := NewNormalizer(nil)
	n.SetFormats("custom.example", []string{"2006.01.02"})

	got, ok := n.Normalize("custom.example", "2024.03.05")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestStripSeparators(t *testing.T) {
	assert.Equal(t, "05 March 2024", StripSeparators("05 March 2024 | extra"))
	assert.Equal(t, "05 Mar 2024", StripSeparators("05 Mar 2024 • tag"))
	assert.Equal(t, "plain", StripSeparators("  plain  "))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "March 05, 2024", Format(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", Format(time.Time{}))
}
