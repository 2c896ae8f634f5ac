package calculation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/cache"
	"github.com/greenledger/carbon-compliance-backend/internal/metrics"
	"github.com/greenledger/carbon-compliance-backend/internal/service/factorsearch"
)

type resolverFactorRepo struct {
	factors     []*emissions.EmissionFactor
	grid        *emissions.GridEmissionFactor
	gridBefore  *emissions.GridEmissionFactor
	findCalls   int
	gridCalls   int
	beforeCalls int
}

func (r *resolverFactorRepo) FindFactor(ctx context.Context, activityType, unit string) ([]*emissions.EmissionFactor, error) {
	r.findCalls++
	return r.factors, nil
}

func (r *resolverFactorRepo) GetFactorByID(ctx context.Context, id uuid.UUID) (*emissions.EmissionFactor, error) {
	return nil, nil
}

func (r *resolverFactorRepo) FindGridFactor(ctx context.Context, region string, year int, projectID *uuid.UUID) (*emissions.GridEmissionFactor, error) {
	r.gridCalls++
	return r.grid, nil
}

func (r *resolverFactorRepo) FindLatestGridFactorBefore(ctx context.Context, region string, year int, projectID *uuid.UUID) (*emissions.GridEmissionFactor, error) {
	r.beforeCalls++
	return r.gridBefore, nil
}

func (r *resolverFactorRepo) FindPrecursorFactors(ctx context.Context, materialType string, projectID *uuid.UUID) ([]*emissions.PrecursorFactor, error) {
	return nil, nil
}

func testCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewRedisCacheFromClient(client, zap.NewNop()), mr
}

func testResolver(t *testing.T, repo emissions.FactorRepository, c cache.Cache) *FactorResolver {
	t.Helper()
	m, err := metrics.NewRegistry("resolver_test")
	require.NoError(t, err)
	return NewFactorResolver(repo, c, time.Hour, m, zap.NewNop())
}

type stubSearcher struct {
	results []factorsearch.Result
	calls   int
}

func (s *stubSearcher) Search(ctx context.Context, activityType, unit string) []factorsearch.Result {
	s.calls++
	return s.results
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("database factor wins and is cached", func(t *testing.T) {
		c, _ := testCache(t)
		repo := &resolverFactorRepo{factors: []*emissions.EmissionFactor{
			{Value: decimal.NewFromFloat(0.233), Source: "DEFRA 2024", Year: 2024},
			{Value: decimal.NewFromFloat(0.25), Source: "DEFRA 2023", Year: 2023},
		}}
		r := testResolver(t, repo, c)

		value, source := r.Resolve(ctx, "grid_electricity", "kwh", emissions.Scope2)
		assert.True(t, value.Equal(decimal.NewFromFloat(0.233)))
		assert.Equal(t, "DEFRA 2024", source)

		// Second resolve hits the cache, not the repository
		value, source = r.Resolve(ctx, "grid_electricity", "kwh", emissions.Scope2)
		assert.True(t, value.Equal(decimal.NewFromFloat(0.233)))
		assert.Equal(t, "DEFRA 2024", source)
		assert.Equal(t, 1, repo.findCalls)
	})

	t.Run("built-in default for known unit", func(t *testing.T) {
		c, _ := testCache(t)
		r := testResolver(t, &resolverFactorRepo{}, c)

		value, source := r.Resolve(ctx, "electricity", "kWh", emissions.Scope2)
		assert.True(t, value.Equal(decimal.NewFromFloat(0.42)))
		assert.Equal(t, SourceDefault, source)
	})

	t.Run("unit aliases fold to the same default", func(t *testing.T) {
		c, _ := testCache(t)
		r := testResolver(t, &resolverFactorRepo{}, c)

		litre, _ := r.Resolve(ctx, "fuel", "litres", emissions.Scope1)
		l, _ := r.Resolve(ctx, "fuel", "L", emissions.Scope1)
		assert.True(t, litre.Equal(l))
		assert.True(t, litre.Equal(decimal.NewFromFloat(2.5)))
	})

	t.Run("unknown unit falls back to conservative estimate", func(t *testing.T) {
		c, mr := testCache(t)
		repo := &resolverFactorRepo{}
		r := testResolver(t, repo, c)

		value, source := r.Resolve(ctx, "mystery", "widgets", emissions.Scope3)
		assert.True(t, value.Equal(decimal.NewFromFloat(0.5)))
		assert.Equal(t, SourceEstimate, source)

		// Estimates are never cached so fresh data is picked up immediately
		assert.False(t, mr.Exists(cache.FactorPrefix+"mystery:widgets"))
		r.Resolve(ctx, "mystery", "widgets", emissions.Scope3)
		assert.Equal(t, 2, repo.findCalls)
	})

	t.Run("degrades when cache is unavailable", func(t *testing.T) {
		r := testResolver(t, &resolverFactorRepo{}, cache.NewNoopCache())
		value, source := r.Resolve(ctx, "electricity", "kwh", emissions.Scope2)
		assert.True(t, value.Equal(decimal.NewFromFloat(0.42)))
		assert.Equal(t, SourceDefault, source)
	})
}

func TestResolveWithSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("search fills the gap before the estimate", func(t *testing.T) {
		c, _ := testCache(t)
		search := &stubSearcher{results: []factorsearch.Result{{
			Value:     decimal.NewFromFloat(1.85),
			Unit:      "widgets",
			SourceURL: "https://www.gov.uk/emission-factors",
			Trust:     factorsearch.TrustHigh,
		}}}
		r := testResolver(t, &resolverFactorRepo{}, c).WithSearch(search)

		value, source := r.Resolve(ctx, "widget_production", "widgets", emissions.Scope3)
		assert.True(t, value.Equal(decimal.NewFromFloat(1.85)))
		assert.Equal(t, "search: https://www.gov.uk/emission-factors", source)

		// Search hits are cached like any other real factor
		value, source = r.Resolve(ctx, "widget_production", "widgets", emissions.Scope3)
		assert.True(t, value.Equal(decimal.NewFromFloat(1.85)))
		assert.Equal(t, "search: https://www.gov.uk/emission-factors", source)
		assert.Equal(t, 1, search.calls)
	})

	t.Run("not consulted when an internal factor exists", func(t *testing.T) {
		c, _ := testCache(t)
		search := &stubSearcher{}
		r := testResolver(t, &resolverFactorRepo{}, c).WithSearch(search)

		_, source := r.Resolve(ctx, "electricity", "kwh", emissions.Scope2)
		assert.Equal(t, SourceDefault, source)
		assert.Zero(t, search.calls)
	})

	t.Run("results without a source URL are skipped", func(t *testing.T) {
		c, _ := testCache(t)
		search := &stubSearcher{results: []factorsearch.Result{{
			Value: decimal.NewFromFloat(0.42),
			Unit:  "widgets",
		}}}
		r := testResolver(t, &resolverFactorRepo{}, c).WithSearch(search)

		value, source := r.Resolve(ctx, "mystery", "widgets", emissions.Scope3)
		assert.True(t, value.Equal(decimal.NewFromFloat(0.5)))
		assert.Equal(t, SourceEstimate, source)
	})

	t.Run("results with a different unit are skipped", func(t *testing.T) {
		c, _ := testCache(t)
		search := &stubSearcher{results: []factorsearch.Result{{
			Value:     decimal.NewFromFloat(1.85),
			Unit:      "tonne",
			SourceURL: "https://www.ipcc.ch/factors",
		}}}
		r := testResolver(t, &resolverFactorRepo{}, c).WithSearch(search)

		_, source := r.Resolve(ctx, "mystery", "widgets", emissions.Scope3)
		assert.Equal(t, SourceEstimate, source)
	})
}

func TestResolveGridFactor(t *testing.T) {
	ctx := context.Background()

	t.Run("exact year match", func(t *testing.T) {
		c, _ := testCache(t)
		repo := &resolverFactorRepo{grid: &emissions.GridEmissionFactor{
			Region: "KR", Year: 2025, Value: decimal.NewFromFloat(0.459), Source: "KEA",
		}}
		r := testResolver(t, repo, c)

		value, source := r.ResolveGridFactor(ctx, "KR", 2025, nil)
		assert.True(t, value.Equal(decimal.NewFromFloat(0.459)))
		assert.Equal(t, "KEA", source)
	})

	t.Run("prior year substitutes with annotated source", func(t *testing.T) {
		c, _ := testCache(t)
		repo := &resolverFactorRepo{gridBefore: &emissions.GridEmissionFactor{
			Region: "TH", Year: 2024, Value: decimal.NewFromFloat(0.501), Source: "TGO",
		}}
		r := testResolver(t, repo, c)

		value, source := r.ResolveGridFactor(ctx, "TH", 2026, nil)
		assert.True(t, value.Equal(decimal.NewFromFloat(0.501)))
		assert.Equal(t, "TGO (2024)", source)
	})

	t.Run("no rows at all yields global average", func(t *testing.T) {
		c, _ := testCache(t)
		r := testResolver(t, &resolverFactorRepo{}, c)

		value, source := r.ResolveGridFactor(ctx, "ZZ", 2025, nil)
		assert.True(t, value.Equal(decimal.NewFromFloat(0.475)))
		assert.Equal(t, SourceGlobalAverage, source)
	})

	t.Run("project override key is scoped separately", func(t *testing.T) {
		c, mr := testCache(t)
		repo := &resolverFactorRepo{grid: &emissions.GridEmissionFactor{
			Region: "CN", Year: 2025, Value: decimal.NewFromFloat(0.581), Source: "MEE",
		}}
		r := testResolver(t, repo, c)

		projectID := uuid.New()
		r.ResolveGridFactor(ctx, "CN", 2025, &projectID)
		require.True(t, mr.Exists(cache.GridPrefix+"CN:2025:"+projectID.String()))
		assert.False(t, mr.Exists(cache.GridPrefix+"CN:2025"))
	})
}
