package calculation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/cache"
	"github.com/greenledger/carbon-compliance-backend/internal/metrics"
)

// Provenance tags attached to resolved factors. Callers use these to judge
// the confidence of a calculation.
const (
	SourceEstimate      = "estimate"
	SourceDefault       = "default"
	SourceGlobalAverage = "global_average"
	SourceSearch        = "search"
)

var (
	// fallbackFactor is the conservative estimate used when no factor data
	// exists anywhere. Deliberately high so missing data overstates rather
	// than understates emissions.
	fallbackFactor = decimal.NewFromFloat(0.5)

	// globalAverageGridFactor is the world-average grid intensity in
	// kg CO2e/kWh, used when a region has no grid factor rows at all.
	globalAverageGridFactor = decimal.NewFromFloat(0.475)
)

// defaultFactors maps normalized units to built-in factors used when the
// database has no matching row.
var defaultFactors = map[string]decimal.Decimal{
	"kwh":   decimal.NewFromFloat(0.42),
	"mwh":   decimal.NewFromFloat(420),
	"liter": decimal.NewFromFloat(2.5),
	"kg":    decimal.NewFromFloat(0.5),
	"tonne": decimal.NewFromFloat(500),
	"km":    decimal.NewFromFloat(0.12),
	"m3":    decimal.NewFromFloat(2.0),
}

// unitAliases folds unit spellings onto the default-table keys
var unitAliases = map[string]string{
	"kwh":    "kwh",
	"mwh":    "mwh",
	"l":      "liter",
	"liter":  "liter",
	"litre":  "liter",
	"liters": "liter",
	"litres": "liter",
	"kg":     "kg",
	"kgs":    "kg",
	"t":      "tonne",
	"tonne":  "tonne",
	"tonnes": "tonne",
	"ton":    "tonne",
	"km":     "km",
	"m3":     "m3",
	"m³":     "m3",
}

type cachedFactor struct {
	Value  decimal.Decimal `json:"value"`
	Source string          `json:"source"`
}

// FactorResolver implements Resolver over the factor repository and cache
type FactorResolver struct {
	factors emissions.FactorRepository
	cache   cache.Cache
	search  FactorSearcher
	ttl     time.Duration
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewFactorResolver creates a resolver with the given cache TTL
func NewFactorResolver(factors emissions.FactorRepository, c cache.Cache, ttl time.Duration, m *metrics.Registry, logger *zap.Logger) *FactorResolver {
	if ttl <= 0 {
		ttl = cache.FactorTTL
	}
	return &FactorResolver{
		factors: factors,
		cache:   c,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

// WithSearch enables external factor search as the last resort before the
// conservative estimate.
func (r *FactorResolver) WithSearch(s FactorSearcher) *FactorResolver {
	r.search = s
	return r
}

// Resolve walks the fallback chain: cache, database custom factor (most
// recent year first), built-in default table, external search when enabled,
// conservative estimate. Only cacheable results (database, default and
// search hits) are stored; estimates are recomputed every time so fresher
// data is picked up as soon as it lands.
func (r *FactorResolver) Resolve(ctx context.Context, activityType, unit string, scope emissions.Scope) (decimal.Decimal, string) {
	key := cache.FactorPrefix + activityType + ":" + unit

	var cached cachedFactor
	if err := r.cache.GetJSON(ctx, key, &cached); err == nil {
		r.metrics.FactorCacheHits.Add(ctx, 1)
		return cached.Value, cached.Source
	}
	r.metrics.FactorCacheMisses.Add(ctx, 1)

	factors, err := r.factors.FindFactor(ctx, activityType, unit)
	if err != nil {
		r.logger.Warn("factor lookup failed, degrading to defaults",
			zap.String("activity_type", activityType),
			zap.String("unit", unit),
			zap.Error(err))
	} else if len(factors) > 0 {
		f := factors[0]
		r.cacheFactor(ctx, key, f.Value, f.Source)
		return f.Value, f.Source
	}

	if value, ok := defaultFactors[normalizeUnit(unit)]; ok {
		r.cacheFactor(ctx, key, value, SourceDefault)
		return value, SourceDefault
	}

	if r.search != nil {
		if value, source, ok := r.searchFactor(ctx, activityType, unit); ok {
			r.cacheFactor(ctx, key, value, source)
			return value, source
		}
	}

	// Missing factor data must not fail a calculation; it only lowers the
	// confidence of the result.
	r.metrics.FactorFallbacks.Add(ctx, 1)
	r.logger.Warn("no emission factor found, using conservative estimate",
		zap.String("activity_type", activityType),
		zap.String("unit", unit),
		zap.String("scope", string(scope)))
	return fallbackFactor, SourceEstimate
}

// searchFactor consults the external search client. Only results with a
// verifiable source and a matching unit qualify; the client's own built-in
// fallback (no source URL) is skipped so the estimate path stays the single
// last resort.
func (r *FactorResolver) searchFactor(ctx context.Context, activityType, unit string) (decimal.Decimal, string, bool) {
	for _, res := range r.search.Search(ctx, activityType, unit) {
		if res.SourceURL == "" {
			continue
		}
		if normalizeUnit(res.Unit) != normalizeUnit(unit) {
			continue
		}
		r.logger.Info("emission factor found via external search",
			zap.String("activity_type", activityType),
			zap.String("unit", unit),
			zap.String("source_url", res.SourceURL),
			zap.String("trust", res.Trust.String()))
		return res.Value, SourceSearch + ": " + res.SourceURL, true
	}
	return decimal.Decimal{}, "", false
}

// ResolveGridFactor resolves a regional grid intensity. When the exact year
// is missing, the most recent earlier year substitutes with the source
// annotated "<source> (YYYY)". A region with no rows at all yields the
// global average.
func (r *FactorResolver) ResolveGridFactor(ctx context.Context, region string, year int, projectID *uuid.UUID) (decimal.Decimal, string) {
	key := cache.GridPrefix + region + ":" + fmt.Sprint(year)
	if projectID != nil {
		key += ":" + projectID.String()
	}

	var cached cachedFactor
	if err := r.cache.GetJSON(ctx, key, &cached); err == nil {
		r.metrics.FactorCacheHits.Add(ctx, 1)
		return cached.Value, cached.Source
	}
	r.metrics.FactorCacheMisses.Add(ctx, 1)

	grid, err := r.factors.FindGridFactor(ctx, region, year, projectID)
	if err != nil {
		r.logger.Warn("grid factor lookup failed",
			zap.String("region", region), zap.Int("year", year), zap.Error(err))
	} else if grid != nil {
		r.cacheFactor(ctx, key, grid.Value, grid.Source)
		return grid.Value, grid.Source
	}

	prior, err := r.factors.FindLatestGridFactorBefore(ctx, region, year, projectID)
	if err != nil {
		r.logger.Warn("grid factor fallback lookup failed",
			zap.String("region", region), zap.Int("year", year), zap.Error(err))
	} else if prior != nil {
		source := fmt.Sprintf("%s (%d)", prior.Source, prior.Year)
		r.cacheFactor(ctx, key, prior.Value, source)
		return prior.Value, source
	}

	r.metrics.FactorFallbacks.Add(ctx, 1)
	r.logger.Warn("no grid factor for region, using global average",
		zap.String("region", region), zap.Int("year", year))
	return globalAverageGridFactor, SourceGlobalAverage
}

func (r *FactorResolver) cacheFactor(ctx context.Context, key string, value decimal.Decimal, source string) {
	if err := r.cache.SetJSON(ctx, key, cachedFactor{Value: value, Source: source}, r.ttl); err != nil {
		r.logger.Warn("factor cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}
