// Package router selects which query variant a job runs, based on feature flags.
package router

import (
	"fmt"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
)

// VariantSource resolves query variants by name.
type VariantSource interface {
	Get(name string) (model.QueryVariant, error)
}

// Router maps (job, flags) to exactly one QueryVariant.
type Router struct {
	source VariantSource
}

// New creates a Router backed by source. Panics if source is nil.
func New(source VariantSource) *Router {
	if source == nil {
		panic("router: VariantSource is required")
	}
	return &Router{source: source}
}

// SelectVersion decides the schema version for job. It reads only the flags.
//
// ENABLE_LEGACY_ETL=false forces v2. Otherwise the job's routing flag selects v1 when enabled.
func SelectVersion(job model.AnalyticsJob, flags model.FeatureFlagSet) (model.SchemaVersion, error) {
	legacy, err := flags.Lookup(model.FlagLegacyETL)
	if err != nil {
		return "", err
	}
	useV1, err := flags.Lookup(job.RoutingFlag)
	if err != nil {
		return "", err
	}
	if legacy && useV1 {
		return model.SchemaV1, nil
	}
	return model.SchemaV2, nil
}

// Route returns the variant to execute for the named job.
// Unknown jobs and missing flags yield a ConfigurationError.
func (r *Router) Route(name model.JobName, flags model.FeatureFlagSet) (model.QueryVariant, error) {
	job, err := model.LookupJob(name)
	if err != nil {
		return model.QueryVariant{}, err
	}
	version, err := SelectVersion(job, flags)
	if err != nil {
		return model.QueryVariant{}, fmt.Errorf("route %s: %w", name, err)
	}
	variant, err := r.source.Get(job.Variants[version])
	if err != nil {
		return model.QueryVariant{}, fmt.Errorf("route %s: %w", name, err)
	}
	return variant, nil
}
