package domain

import (
	"time"

	"github.com/google/uuid"
)

// FoodSegment is one detected food region with its estimated volume.
type FoodSegment struct {
	SegmentID    int     `json:"segment_id"`
	FoodName     string  `json:"food_name,omitempty"`
	VolumeLitres float64 `json:"volume_litres"`
	ImagePath    string  `json:"image_path"`
}

// SegmentAnalysis is the identification result for a single segment,
// including the uncertainty signals used to decide whether a
// clarification question is worth asking.
type SegmentAnalysis struct {
	SegmentID             int      `json:"segment_id"`
	FoodName              string   `json:"food_name"`
	Confidence            float64  `json:"confidence"`
	MajorUncertainties    []string `json:"major_uncertainties,omitempty"`
	MostImportantQuestion string   `json:"most_important_question,omitempty"`
	AmbiguityFlag         bool     `json:"ambiguity_flag"`
	OriginalVolumeLitres  float64  `json:"original_volume_litres"`
	ImagePath             string   `json:"image_path,omitempty"`
}

// ClarificationQuestion is one candidate question ranked by the dialogue
// stage. At most a fixed number of them are put to the user.
type ClarificationQuestion struct {
	SegmentID  int     `json:"segment_id"`
	FoodName   string  `json:"food_name"`
	Question   string  `json:"question"`
	Confidence float64 `json:"confidence"`
}

// ConfirmedFood is a segment after the clarification exchange, carrying
// the final name and any detail the user supplied.
type ConfirmedFood struct {
	SegmentID      int               `json:"segment_id"`
	FinalFoodName  string            `json:"final_food_name"`
	VolumeLitres   float64           `json:"volume_litres"`
	Clarifications map[string]string `json:"clarifications,omitempty"`
	QuestionAsked  string            `json:"question_asked,omitempty"`
	UserResponse   string            `json:"user_response,omitempty"`
}

// VerifiedVolume is the review verdict for one segment's volume estimate.
type VerifiedVolume struct {
	SegmentID             int     `json:"segment_id"`
	FoodName              string  `json:"food_name"`
	OriginalVolumeLitres  float64 `json:"original_volume_litres"`
	VolumeReasonable      bool    `json:"volume_reasonable"`
	SuggestedVolumeLitres float64 `json:"suggested_volume_litres"`
	Confidence            float64 `json:"confidence"`
	Reasoning             string  `json:"reasoning,omitempty"`
	AdjustmentMade        bool    `json:"adjustment_made"`
}

// VolumeVerification is the full volume-review stage output.
type VolumeVerification struct {
	VerifiedVolumes   []VerifiedVolume `json:"verified_volumes"`
	OverallConfidence float64          `json:"overall_assessment_confidence"`
	Notes             string           `json:"notes,omitempty"`
}

// FoodItem is the normalized per-segment input consumed by the
// decomposition stage, regardless of which upstream record produced it.
type FoodItem struct {
	SegmentID             int               `json:"segment_id"`
	FoodName              string            `json:"food_name"`
	VolumeLitres          float64           `json:"volume_litres"`
	VolumeAdjusted        bool              `json:"volume_adjusted,omitempty"`
	OriginalVolumeLitres  float64           `json:"original_volume_litres,omitempty"`
	VerificationReasoning string            `json:"verification_reasoning,omitempty"`
	Clarifications        map[string]string `json:"clarifications,omitempty"`
}

// IngredientComponent is one ingredient of a composite dish, expressed
// as a share of the dish volume.
type IngredientComponent struct {
	IngredientName string  `json:"ingredient_name"`
	Percentage     float64 `json:"percentage"`
	VolumeLitres   float64 `json:"volume_litres"`
	Notes          string  `json:"notes,omitempty"`
}

// Decomposition is the ingredient breakdown of one segment. Basic
// ingredients decompose to a single 100% component.
type Decomposition struct {
	SegmentID         int                   `json:"segment_id"`
	OriginalFoodName  string                `json:"original_food_name"`
	TotalVolumeLitres float64               `json:"total_volume_litres"`
	IsBasicIngredient bool                  `json:"is_basic_ingredient"`
	Reasoning         string                `json:"reasoning,omitempty"`
	IngredientVolumes []IngredientComponent `json:"ingredient_volumes"`
	Sources           []string              `json:"sources,omitempty"`
}

// DensityResult is a resolved density with provenance.
type DensityResult struct {
	DensityKgPerL float64       `json:"density_kg_per_l"`
	Method        DensityMethod `json:"method"`
	Details       string        `json:"details,omitempty"`
}

// IngredientMass is the converted mass of one ingredient component.
type IngredientMass struct {
	IngredientName string        `json:"ingredient_name"`
	VolumeLitres   float64       `json:"volume_litres"`
	DensityKgPerL  float64       `json:"density_kg_per_l"`
	MassGrams      float64       `json:"mass_grams"`
	Method         DensityMethod `json:"method"`
	Details        string        `json:"details,omitempty"`
}

// FoodMass aggregates the ingredient masses of one segment.
type FoodMass struct {
	SegmentID         int              `json:"segment_id"`
	FoodName          string           `json:"food_name"`
	IsBasicIngredient bool             `json:"is_basic_ingredient"`
	TotalMassGrams    float64          `json:"total_mass_grams"`
	IngredientMasses  []IngredientMass `json:"ingredient_masses"`
}

// NutritionFacts holds the four tracked macronutrient values.
type NutritionFacts struct {
	CaloriesKcal   float64 `json:"calories_kcal"`
	ProteinG       float64 `json:"protein_g"`
	FatG           float64 `json:"fat_g"`
	CarbohydratesG float64 `json:"carbohydrates_g"`
}

// ServingNutrition is per-serving data as acquired from a source,
// before scaling to the segment's actual mass.
type ServingNutrition struct {
	Found            bool    `json:"found"`
	ServingSizeGrams float64 `json:"serving_size_grams"`
	NutritionFacts
	SourceURL string `json:"source_url,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// SegmentNutrition is the scaled nutrition for one segment. When no
// serving data could be acquired the values are zero and DataMissing
// is set so downstream consumers can tell "none" from "nothing".
type SegmentNutrition struct {
	SegmentID      int               `json:"segment_id"`
	FoodName       string            `json:"food_name"`
	TotalMassGrams float64           `json:"total_mass_grams"`
	Nutrition      NutritionFacts    `json:"calculated_nutrition"`
	Source         *ServingNutrition `json:"source_data,omitempty"`
	DataMissing    bool              `json:"nutrition_data_missing"`
}

// MealSummary is the element-wise total across all segments of a meal.
type MealSummary struct {
	NutritionFacts
	TotalMassGrams  float64 `json:"total_mass_grams"`
	SegmentCount    int     `json:"segment_count"`
	MissingSegments int     `json:"segments_missing_data"`
}

// MealRecord is a persisted analysis outcome for the meal history.
type MealRecord struct {
	ID         uuid.UUID          `db:"id" json:"id"`
	SessionID  string             `db:"session_id" json:"session_id"`
	Query      string             `db:"query" json:"query,omitempty"`
	ImagePath  string             `db:"image_path" json:"image_path,omitempty"`
	Summary    MealSummary        `json:"summary"`
	Segments   []SegmentNutrition `json:"segments,omitempty"`
	AnalyzedAt time.Time          `db:"analyzed_at" json:"analyzed_at"`
}

// ChatTurn is one stored turn of the conversational assistant.
type ChatTurn struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// PhotoMeta stores metadata about an uploaded meal photo.
type PhotoMeta struct {
	ID           uuid.UUID `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	OriginalName string    `db:"original_name" json:"original_name"`
	FileType     FileType  `db:"file_type" json:"file_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	StorageKey   string    `db:"storage_key" json:"storage_key"`
	ContentType  string    `db:"content_type" json:"content_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
