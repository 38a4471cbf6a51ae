package pipeline

import (
	"encoding/json"
	"fmt"

	"calai/internal/domain"
	"calai/internal/resolver"
)

// SegmentsRecord is the segmentation stage output.
type SegmentsRecord struct {
	ImagePath string               `json:"image_path"`
	Segments  []domain.FoodSegment `json:"segments"`
}

// AnalysisRecord is the identification stage output.
type AnalysisRecord struct {
	Analyses []domain.SegmentAnalysis `json:"food_analysis"`
}

// ConfirmedRecord is the dialogue stage output.
type ConfirmedRecord struct {
	ConfirmedResults      []domain.ConfirmedFood `json:"confirmed_results"`
	AdditionalSuggestions string                 `json:"additional_suggestions,omitempty"`
}

// VerificationRecord is the volume review stage output.
type VerificationRecord struct {
	VerifiedVolumes   []domain.VerifiedVolume `json:"verified_volumes"`
	OverallConfidence float64                 `json:"overall_assessment_confidence"`
	Notes             string                  `json:"notes,omitempty"`
}

// DecompositionRecord is the decomposition stage output.
type DecompositionRecord struct {
	DecomposedFoods []domain.Decomposition `json:"decomposed_foods"`
}

// MassRecord is the mass stage output.
type MassRecord struct {
	FoodMasses []domain.FoodMass `json:"food_masses"`
}

// NutritionReport is the final stage output.
type NutritionReport struct {
	Segments []domain.SegmentNutrition `json:"nutritional_breakdown_per_segment"`
	Totals   domain.MealSummary        `json:"total_nutrition_summary"`
}

// stageInputUnion covers both record shapes the decomposition stage
// accepts. Exactly one of the two keys is expected to be present.
type stageInputUnion struct {
	VerifiedVolumes  []domain.VerifiedVolume `json:"verified_volumes"`
	ConfirmedResults []domain.ConfirmedFood  `json:"confirmed_results"`
}

// NormalizeInput detects which record shape the decomposition stage
// was given and converts it to the common per-segment form. Review
// verdicts go through the policy here, so a single code path decides
// whether a suggested volume is carried forward.
func NormalizeInput(data []byte, policy resolver.ReviewPolicy) ([]domain.FoodItem, string, error) {
	var union stageInputUnion
	if err := json.Unmarshal(data, &union); err != nil {
		return nil, "", fmt.Errorf("unmarshaling stage input: %w", err)
	}

	switch {
	case union.VerifiedVolumes != nil:
		items := make([]domain.FoodItem, 0, len(union.VerifiedVolumes))
		for _, v := range union.VerifiedVolumes {
			volume, accepted := policy.Apply(v)
			items = append(items, domain.FoodItem{
				SegmentID:             v.SegmentID,
				FoodName:              v.FoodName,
				VolumeLitres:          volume,
				VolumeAdjusted:        accepted,
				OriginalVolumeLitres:  v.OriginalVolumeLitres,
				VerificationReasoning: v.Reasoning,
			})
		}
		return items, "verified_volumes", nil

	case union.ConfirmedResults != nil:
		items := make([]domain.FoodItem, 0, len(union.ConfirmedResults))
		for _, c := range union.ConfirmedResults {
			items = append(items, domain.FoodItem{
				SegmentID:      c.SegmentID,
				FoodName:       c.FinalFoodName,
				VolumeLitres:   c.VolumeLitres,
				Clarifications: c.Clarifications,
			})
		}
		return items, "confirmed_results", nil

	default:
		return nil, "", fmt.Errorf("stage input has neither verified_volumes nor confirmed_results")
	}
}
