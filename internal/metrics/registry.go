package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the domain metrics for the emissions pipeline
type Registry struct {
	meter metric.Meter

	// Calculation metrics
	CalculationDuration metric.Float64Histogram
	CalculationCounter  metric.Int64Counter
	CalculationErrors   metric.Int64Counter
	FactorCacheHits     metric.Int64Counter
	FactorCacheMisses   metric.Int64Counter
	FactorFallbacks     metric.Int64Counter

	// Reporting metrics
	ReportGenerationDuration metric.Float64Histogram
	ReportsGenerated         metric.Int64Counter
	ReportFailures           metric.Int64Counter
	ValidationErrors         metric.Int64Counter

	// Signature metrics
	SignaturesCreated  metric.Int64Counter
	SignaturesRevoked  metric.Int64Counter
	VerificationFailed metric.Int64Counter

	// Audit metrics
	AuditWriteFailures metric.Int64Counter
	AuditEntriesPurged metric.Int64Counter
}

// NewRegistry creates a metrics registry with all pipeline instruments
func NewRegistry(meterName string) (*Registry, error) {
	meter := otel.Meter(meterName)
	r := &Registry{meter: meter}

	var err error

	if r.CalculationDuration, err = meter.Float64Histogram(
		"calculation.duration",
		metric.WithDescription("Duration of activity emission calculations"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if r.CalculationCounter, err = meter.Int64Counter(
		"calculation.completed",
		metric.WithDescription("Number of completed activity calculations"),
	); err != nil {
		return nil, err
	}

	if r.CalculationErrors, err = meter.Int64Counter(
		"calculation.errors",
		metric.WithDescription("Number of failed activity calculations"),
	); err != nil {
		return nil, err
	}

	if r.FactorCacheHits, err = meter.Int64Counter(
		"factor.cache_hits",
		metric.WithDescription("Factor resolutions served from cache"),
	); err != nil {
		return nil, err
	}

	if r.FactorCacheMisses, err = meter.Int64Counter(
		"factor.cache_misses",
		metric.WithDescription("Factor resolutions that missed the cache"),
	); err != nil {
		return nil, err
	}

	if r.FactorFallbacks, err = meter.Int64Counter(
		"factor.fallbacks",
		metric.WithDescription("Factor resolutions that degraded to the estimate fallback"),
	); err != nil {
		return nil, err
	}

	if r.ReportGenerationDuration, err = meter.Float64Histogram(
		"report.generation_duration",
		metric.WithDescription("Duration of report generation"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if r.ReportsGenerated, err = meter.Int64Counter(
		"report.generated",
		metric.WithDescription("Number of reports generated"),
	); err != nil {
		return nil, err
	}

	if r.ReportFailures, err = meter.Int64Counter(
		"report.failures",
		metric.WithDescription("Number of report generations that failed"),
	); err != nil {
		return nil, err
	}

	if r.ValidationErrors, err = meter.Int64Counter(
		"report.validation_errors",
		metric.WithDescription("Validation errors found in report documents"),
	); err != nil {
		return nil, err
	}

	if r.SignaturesCreated, err = meter.Int64Counter(
		"signature.created",
		metric.WithDescription("Number of report signatures created"),
	); err != nil {
		return nil, err
	}

	if r.SignaturesRevoked, err = meter.Int64Counter(
		"signature.revoked",
		metric.WithDescription("Number of signatures revoked"),
	); err != nil {
		return nil, err
	}

	if r.VerificationFailed, err = meter.Int64Counter(
		"signature.verification_failed",
		metric.WithDescription("Signature verifications that failed"),
	); err != nil {
		return nil, err
	}

	if r.AuditWriteFailures, err = meter.Int64Counter(
		"audit.write_failures",
		metric.WithDescription("Audit entries that could not be persisted"),
	); err != nil {
		return nil, err
	}

	if r.AuditEntriesPurged, err = meter.Int64Counter(
		"audit.entries_purged",
		metric.WithDescription("Audit entries removed by retention cleanup"),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// RecordCalculation records one calculation outcome with its standard labels
func (r *Registry) RecordCalculation(ctx context.Context, scope string, durationMs float64, failed bool) {
	attrs := metric.WithAttributes(attribute.String("scope", scope))
	r.CalculationDuration.Record(ctx, durationMs, attrs)
	if failed {
		r.CalculationErrors.Add(ctx, 1, attrs)
	} else {
		r.CalculationCounter.Add(ctx, 1, attrs)
	}
}

// RecordReport records one report generation outcome
func (r *Registry) RecordReport(ctx context.Context, standard string, durationMs float64, failed bool) {
	attrs := metric.WithAttributes(attribute.String("standard", standard))
	r.ReportGenerationDuration.Record(ctx, durationMs, attrs)
	if failed {
		r.ReportFailures.Add(ctx, 1, attrs)
	} else {
		r.ReportsGenerated.Add(ctx, 1, attrs)
	}
}
