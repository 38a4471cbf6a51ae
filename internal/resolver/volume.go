package resolver

import (
	"math"

	"calai/internal/config"
	"calai/internal/domain"
)

// ReviewPolicy decides whether a reviewer's suggested volume replaces
// the measured one. Overrides are deliberately conservative: the
// measurement wins unless the reviewer is confident and the suggestion
// stays within a bounded deviation.
type ReviewPolicy struct {
	MinConfidence float64
	MaxDeviation  float64
}

// PolicyFromConfig builds a ReviewPolicy from validation config.
func PolicyFromConfig(cfg *config.ValidationConfig) ReviewPolicy {
	return ReviewPolicy{
		MinConfidence: cfg.ReviewMinConfidence,
		MaxDeviation:  cfg.ReviewMaxDeviation,
	}
}

// Apply returns the volume to carry forward and whether the suggestion
// was accepted.
func (p ReviewPolicy) Apply(v domain.VerifiedVolume) (float64, bool) {
	if !v.AdjustmentMade || v.SuggestedVolumeLitres <= 0 {
		return v.OriginalVolumeLitres, false
	}
	if v.Confidence <= p.MinConfidence {
		return v.OriginalVolumeLitres, false
	}
	if v.OriginalVolumeLitres > 0 {
		deviation := math.Abs(v.SuggestedVolumeLitres-v.OriginalVolumeLitres) / v.OriginalVolumeLitres
		if deviation > p.MaxDeviation {
			return v.OriginalVolumeLitres, false
		}
	}
	return v.SuggestedVolumeLitres, true
}
