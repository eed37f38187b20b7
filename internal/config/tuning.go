// Package config provides an optional JSON tuning overlay for tracker
// construction. The engine never reads from disk on its own; a host
// application that wants to externalize tuning constants loads a partial
// JSON document here and applies it on top of the options it builds in
// code. Fields omitted from the JSON are left untouched, so partial
// overlays are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/tracksort/sortkit"
	"github.com/banshee-data/tracksort/visualsort"
)

// SpatioTemporalStep is one entry of the piecewise-constant
// max_allowed_distance(age_epochs) step function, mirrored from
// sortkit.SpatioTemporalStep for JSON loading.
type SpatioTemporalStep struct {
	AgeEpochs   uint64  `json:"age_epochs"`
	MaxDistance float64 `json:"max_distance"`
}

// TuningOverlay is a partial, pointer-field view of the tunable tracker
// configuration. Every field is optional; only fields present in the
// JSON are applied.
type TuningOverlay struct {
	// Shared SORT params
	Shards        *int     `json:"shards,omitempty"`
	BBoxHistory   *int     `json:"bbox_history,omitempty"`
	MaxIdleEpochs *uint64  `json:"max_idle_epochs,omitempty"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	RNGSeed       *int64   `json:"rng_seed,omitempty"`

	// Positional voter: "iou" (with iou_threshold) or "mahalanobis".
	PositionalMetric *string  `json:"positional_metric,omitempty"`
	IoUThreshold     *float64 `json:"iou_threshold,omitempty"`

	SpatioTemporal []SpatioTemporalStep `json:"spatio_temporal,omitempty"`

	// Visual SORT params
	VisualHistory    *int     `json:"visual_history,omitempty"`
	VisualMetric     *string  `json:"visual_metric,omitempty"` // "cosine" or "euclidean"
	VisualThreshold  *float64 `json:"visual_threshold,omitempty"`
	FeatureDim       *int     `json:"feature_dim,omitempty"`
	PositionalWeight *float64 `json:"positional_weight,omitempty"`

	// Kalman filter params
	VelocityClamp           *float64 `json:"velocity_clamp,omitempty"`
	MaxCovarianceDiag       *float64 `json:"max_covariance_diag,omitempty"`
	IdleCovarianceInflation *float64 `json:"idle_cov_inflation,omitempty"`
}

// LoadTuningOverlay loads a TuningOverlay from a JSON file. The file must
// have a .json extension and be under the max file size. Fields omitted
// from the JSON file stay nil, so partial overlays are safe.
func LoadTuningOverlay(path string) (*TuningOverlay, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("overlay file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat overlay file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("overlay file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay file: %w", err)
	}

	o := &TuningOverlay{}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("failed to parse overlay JSON: %w", err)
	}

	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("invalid overlay: %w", err)
	}
	return o, nil
}

// Validate checks the fields that are present. Range checks that depend
// on the full resolved configuration (e.g. shards >= 1) are repeated by
// the tracker constructors; this catches only what can be judged from
// the overlay alone.
func (o *TuningOverlay) Validate() error {
	if o.PositionalMetric != nil {
		switch *o.PositionalMetric {
		case "iou", "mahalanobis":
		default:
			return fmt.Errorf("positional_metric must be \"iou\" or \"mahalanobis\", got %q", *o.PositionalMetric)
		}
	}
	if o.VisualMetric != nil {
		switch *o.VisualMetric {
		case "cosine", "euclidean":
		default:
			return fmt.Errorf("visual_metric must be \"cosine\" or \"euclidean\", got %q", *o.VisualMetric)
		}
	}
	if o.IoUThreshold != nil && (*o.IoUThreshold <= 0 || *o.IoUThreshold > 1) {
		return fmt.Errorf("iou_threshold must be in (0,1], got %f", *o.IoUThreshold)
	}
	if o.MinConfidence != nil && (*o.MinConfidence < 0 || *o.MinConfidence > 1) {
		return fmt.Errorf("min_confidence must be between 0 and 1, got %f", *o.MinConfidence)
	}
	if o.PositionalWeight != nil && (*o.PositionalWeight < 0 || *o.PositionalWeight > 1) {
		return fmt.Errorf("positional_weight must be between 0 and 1, got %f", *o.PositionalWeight)
	}
	for _, step := range o.SpatioTemporal {
		if step.MaxDistance < 0 {
			return fmt.Errorf("spatio_temporal max_distance must be non-negative, got %f", step.MaxDistance)
		}
	}
	return nil
}

// SortOptions converts the overlay's present fields into sortkit Options,
// to be appended after the host's own options so the overlay wins.
func (o *TuningOverlay) SortOptions() []sortkit.Option {
	var opts []sortkit.Option
	if o.Shards != nil {
		opts = append(opts, sortkit.WithShards(*o.Shards))
	}
	if o.BBoxHistory != nil {
		opts = append(opts, sortkit.WithBBoxHistory(*o.BBoxHistory))
	}
	if o.MaxIdleEpochs != nil {
		opts = append(opts, sortkit.WithMaxIdleEpochs(*o.MaxIdleEpochs))
	}
	if o.PositionalMetric != nil && *o.PositionalMetric == "mahalanobis" {
		opts = append(opts, sortkit.WithMahalanobis())
	} else if o.IoUThreshold != nil {
		opts = append(opts, sortkit.WithIoU(*o.IoUThreshold))
	}
	if o.MinConfidence != nil {
		opts = append(opts, sortkit.WithMinConfidence(*o.MinConfidence))
	}
	if len(o.SpatioTemporal) > 0 {
		steps := make([]sortkit.SpatioTemporalStep, len(o.SpatioTemporal))
		for i, s := range o.SpatioTemporal {
			steps[i] = sortkit.SpatioTemporalStep{AgeEpochs: s.AgeEpochs, MaxDistance: s.MaxDistance}
		}
		opts = append(opts, sortkit.WithSpatioTemporalConstraints(steps))
	}
	if o.RNGSeed != nil {
		opts = append(opts, sortkit.WithRandSeed(*o.RNGSeed))
	}
	if o.VelocityClamp != nil {
		opts = append(opts, sortkit.WithVelocityClamp(*o.VelocityClamp))
	}
	if o.MaxCovarianceDiag != nil {
		opts = append(opts, sortkit.WithMaxCovarianceDiag(*o.MaxCovarianceDiag))
	}
	if o.IdleCovarianceInflation != nil {
		opts = append(opts, sortkit.WithIdleCovarianceInflation(*o.IdleCovarianceInflation))
	}
	return opts
}

// VisualOptions converts the overlay's present fields into visualsort
// Options, to be appended after the host's own options so the overlay
// wins.
func (o *TuningOverlay) VisualOptions() []visualsort.Option {
	var opts []visualsort.Option
	if o.Shards != nil {
		opts = append(opts, visualsort.WithShards(*o.Shards))
	}
	if o.BBoxHistory != nil {
		opts = append(opts, visualsort.WithBBoxHistory(*o.BBoxHistory))
	}
	if o.VisualHistory != nil {
		opts = append(opts, visualsort.WithVisualHistory(*o.VisualHistory))
	}
	if o.MaxIdleEpochs != nil {
		opts = append(opts, visualsort.WithMaxIdleEpochs(*o.MaxIdleEpochs))
	}
	if o.PositionalMetric != nil && *o.PositionalMetric == "mahalanobis" {
		opts = append(opts, visualsort.WithMahalanobis())
	} else if o.IoUThreshold != nil {
		opts = append(opts, visualsort.WithIoU(*o.IoUThreshold))
	}
	if o.VisualMetric != nil {
		m := visualsort.MetricCosine
		if *o.VisualMetric == "euclidean" {
			m = visualsort.MetricEuclidean
		}
		opts = append(opts, visualsort.WithVisualMetric(m))
	}
	if o.VisualThreshold != nil {
		opts = append(opts, visualsort.WithVisualThreshold(*o.VisualThreshold))
	}
	if o.FeatureDim != nil {
		opts = append(opts, visualsort.WithFeatureDim(*o.FeatureDim))
	}
	if o.PositionalWeight != nil {
		opts = append(opts, visualsort.WithPositionalWeight(*o.PositionalWeight))
	}
	if o.MinConfidence != nil {
		opts = append(opts, visualsort.WithMinConfidence(*o.MinConfidence))
	}
	if len(o.SpatioTemporal) > 0 {
		steps := make([]visualsort.SpatioTemporalStep, len(o.SpatioTemporal))
		for i, s := range o.SpatioTemporal {
			steps[i] = visualsort.SpatioTemporalStep{AgeEpochs: s.AgeEpochs, MaxDistance: s.MaxDistance}
		}
		opts = append(opts, visualsort.WithSpatioTemporalConstraints(steps))
	}
	if o.RNGSeed != nil {
		opts = append(opts, visualsort.WithRandSeed(*o.RNGSeed))
	}
	if o.VelocityClamp != nil {
		opts = append(opts, visualsort.WithVelocityClamp(*o.VelocityClamp))
	}
	if o.MaxCovarianceDiag != nil {
		opts = append(opts, visualsort.WithMaxCovarianceDiag(*o.MaxCovarianceDiag))
	}
	if o.IdleCovarianceInflation != nil {
		opts = append(opts, visualsort.WithIdleCovarianceInflation(*o.IdleCovarianceInflation))
	}
	return opts
}
