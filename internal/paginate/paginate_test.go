package paginate

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
)

func collect(t *testing.T, p *Paginator) []domain.PageRef {
	t.Helper()
	var out []domain.PageRef
	for {
		ref, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, ref)
	}
}

func TestPageParamRewrite(t *testing.T) {
	p, err := New("https://www.cityam.com/category/markets/", Rule{Kind: RulePageParam}, 3)
	require.NoError(t, err)

	refs := collect(t, p)
	require.Len(t, refs, 3)
	assert.Equal(t, 1, refs[0].Page)
	assert.Equal(t, "https://www.cityam.com/category/markets/?page=1", refs[0].URL)
	assert.Equal(t, "https://www.cityam.com/category/markets/?page=3", refs[2].URL)
}

func TestNamedParamRewrite(t *testing.T) {
	p, err := New(
		"https://www.hl.co.uk/news",
		Rule{Kind: RuleNamedParam, Param: "result_15077628_result_page"},
		2,
	)
	require.NoError(t, err)

	refs := collect(t, p)
	require.Len(t, refs, 2)
	assert.Equal(t, "https://www.hl.co.uk/news?result_15077628_result_page=2", refs[1].URL)
}

func TestNamedParamRequiresParam(t *testing.T) {
	_, err := New("https://www.hl.co.uk/news", Rule{Kind: RuleNamedParam}, 2)
	assert.Error(t, err)
}

func TestPathSegmentRewrite(t *testing.T) {
	p, err := New("https://example.com/news/page/1/", Rule{Kind: RulePathSegment}, 3)
	require.NoError(t, err)

	refs := collect(t, p)
	require.Len(t, refs, 3)
	assert.Equal(t, "https://example.com/news/page/2/", refs[1].URL)
	assert.Equal(t, "https://example.com/news/page/3/", refs[2].URL)
}

func TestPathSegmentRequiresSegment(t *testing.T) {
	_, err := New("https://example.com/news/", Rule{Kind: RulePathSegment}, 3)
	assert.Error(t, err)
}

func TestOffsetSizeRewrite(t *testing.T) {
	p, err := New("https://www.reuters.com/api/articles?section=funds", Rule{Kind: RuleOffsetSize}, 3)
	require.NoError(t, err)

	refs := collect(t, p)
	require.Len(t, refs, 3)
	assert.Contains(t, refs[0].URL, "offset=0")
	assert.Contains(t, refs[1].URL, "offset=20")
	assert.Contains(t, refs[2].URL, "offset=40")
	assert.Contains(t, refs[0].URL, "size=20")
}

func TestUnknownRuleFailsAtConstruction(t *testing.T) {
	_, err := New("https://example.com/", Rule{Kind: RuleKind(99)}, 3)
	assert.Error(t, err)
}

func TestHardCap(t *testing.T) {
	assert.Equal(t, 40, HardCap("https://www.ft.com/markets/funds"))
	assert.Equal(t, 3277, HardCap("https://www.reuters.com/markets/funds"))
	assert.Equal(t, 1028, HardCap("https://www.cityam.com/category/markets/"))
	assert.Equal(t, 1000, HardCap("https://unknown.example/news"))
}

func TestResolveMaxPagesFromMarkup(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<ul class="page-numbers">
			<li><a>Page 1</a></li>
			<li><a>Page 2</a></li>
			<li><a>Page 57</a></li>
		</ul>`))
	require.NoError(t, err)

	got := ResolveMaxPages(doc, "https://www.cityam.com/category/markets/", &MaxPageSpec{
		Container: "ul.page-numbers li",
		Selector:  "a",
		Regex:     `Page (.*)`,
	}, nil)
	assert.Equal(t, 57, got)
}

func TestResolveMaxPagesClampsToCeiling(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<ul class="page-numbers"><li><a>Page 5000</a></li></ul>`))
	require.NoError(t, err)

	got := ResolveMaxPages(doc, "https://www.cityam.com/category/markets/", &MaxPageSpec{
		Container: "ul.page-numbers li",
		Selector:  "a",
		Regex:     `Page (.*)`,
	}, nil)
	assert.Equal(t, 1028, got)
}

func TestResolveMaxPagesDefaultsWhenNothingParses(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div class="pager"></div>`))
	require.NoError(t, err)

	got := ResolveMaxPages(doc, "https://example.com/news", &MaxPageSpec{
		Selector: "div.pager a",
	}, nil)
	assert.Equal(t, DefaultMaxPage, got)
}

func TestResolveMaxPagesWithoutSpecUsesCeiling(t *testing.T) {
	got := ResolveMaxPages(nil, "https://www.ft.com/markets/funds", nil, nil)
	assert.Equal(t, 40, got)
}
