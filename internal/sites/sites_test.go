package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/paginate"
)

func TestRegistryResolvesByIdentity(t *testing.T) {
	reg := NewRegistry(FTMarkets(), CityAMMarkets())

	a, err := reg.AdapterFor("https://www.ft.com/markets")
	require.NoError(t, err)
	assert.Equal(t, "https://www.ft.com/markets", a.Identity)

	_, err = reg.AdapterFor("https://unknown.example/")
	assert.Error(t, err)
}

func TestRegistryRegisterReplaces(t *testing.T) {
	reg := NewRegistry(FTMarkets())
	custom := FTMarkets()
	custom.MaxRetries = 9
	reg.Register(custom)

	a, err := reg.AdapterFor(custom.Identity)
	require.NoError(t, err)
	assert.Equal(t, 9, a.MaxRetries)
}

func TestDefaultRegistryCoversAllSources(t *testing.T) {
	reg := DefaultRegistry()
	ids := reg.Identities()
	assert.Len(t, ids, 11)
	assert.IsIncreasing(t, ids)

	for _, id := range ids {
		a, err := reg.AdapterFor(id)
		require.NoError(t, err)
		assert.NotEmpty(t, a.Identity)
		if a.Flow == FlowDailySitemap {
			assert.NotEmpty(t, a.SitemapPattern, id)
			continue
		}
		assert.NotEmpty(t, a.SeedURL, id)
		if a.NextPage != nil {
			// The rewrite template comes from the seed page's next link.
			continue
		}
		// Every other paginated adapter's rule must work on its own seed.
		_, err = paginate.New(a.SeedURL, a.Rule, 1)
		assert.NoError(t, err, id)
	}
}

func TestVisits(t *testing.T) {
	a := FTMarkets()
	assert.True(t, a.Visits(VisitBody))
	assert.True(t, a.Visits(VisitAuthor))

	r := ReutersFunds()
	assert.True(t, r.Visits(VisitBody))
	assert.False(t, r.Visits(VisitAuthor))
}
