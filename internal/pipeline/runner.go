package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"calai/internal/config"
	"calai/internal/domain"
	"calai/internal/port"
	"calai/internal/resolver"
)

// StageError is a fatal pipeline failure carrying the stage and the
// record file involved, so the operator can see exactly where the run
// stopped.
type StageError struct {
	Stage domain.Stage
	File  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed (file %s): %v", e.Stage, e.File, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Identifier names each segment and reports uncertainty signals.
type Identifier interface {
	Identify(ctx context.Context, segments []domain.FoodSegment) ([]domain.SegmentAnalysis, error)
}

// Confirmer runs the clarification exchange over segment analyses.
type Confirmer interface {
	Confirm(ctx context.Context, analyses []domain.SegmentAnalysis) ([]domain.ConfirmedFood, string, error)
}

// Reviewer second-guesses volume estimates against the original image.
type Reviewer interface {
	Review(ctx context.Context, foods []domain.ConfirmedFood, imagePath string) (*domain.VolumeVerification, error)
}

// Decomposer breaks each confirmed food into ingredient components.
type Decomposer interface {
	Decompose(ctx context.Context, items []domain.FoodItem) ([]domain.Decomposition, error)
}

// MassCalculator converts ingredient volumes to masses.
type MassCalculator interface {
	Compute(ctx context.Context, decomposed []domain.Decomposition) ([]domain.FoodMass, error)
}

// NutritionCalculator acquires and scales nutrition for each segment.
type NutritionCalculator interface {
	Compute(ctx context.Context, masses []domain.FoodMass) ([]domain.SegmentNutrition, domain.MealSummary, error)
}

// Runner executes the full analysis pipeline, persisting every stage
// record under a per-run directory.
type Runner struct {
	estimator    port.VolumeEstimator
	identifier   Identifier
	confirmer    Confirmer
	reviewer     Reviewer
	decomposer   Decomposer
	massCalc     MassCalculator
	nutritionCal NutritionCalculator
	policy       resolver.ReviewPolicy
	dataDir      string
	minVolume    float64
	stageTimeout time.Duration
}

// NewRunner wires the pipeline stages together.
func NewRunner(
	estimator port.VolumeEstimator,
	identifier Identifier,
	confirmer Confirmer,
	reviewer Reviewer,
	decomposer Decomposer,
	massCalc MassCalculator,
	nutritionCal NutritionCalculator,
	policy resolver.ReviewPolicy,
	cfg *config.PipelineConfig,
) *Runner {
	stageTimeout := cfg.StageTimeout
	if stageTimeout == 0 {
		stageTimeout = 5 * time.Minute
	}
	return &Runner{
		estimator:    estimator,
		identifier:   identifier,
		confirmer:    confirmer,
		reviewer:     reviewer,
		decomposer:   decomposer,
		massCalc:     massCalc,
		nutritionCal: nutritionCal,
		policy:       policy,
		dataDir:      cfg.DataDir,
		minVolume:    cfg.MinVolumeLitres,
		stageTimeout: stageTimeout,
	}
}

// RunResult carries the final report together with the run directory
// holding all intermediate stage records.
type RunResult struct {
	RunID  string
	RunDir string
	Report *NutritionReport
}

// filterSegments drops segments below the minimum volume. Tiny
// detections are usually garnish or segmentation noise and would waste
// a model call each.
func (r *Runner) filterSegments(segments []domain.FoodSegment) []domain.FoodSegment {
	if r.minVolume <= 0 {
		return segments
	}
	kept := segments[:0:0]
	for _, seg := range segments {
		if seg.VolumeLitres < r.minVolume {
			log.Printf("pipeline.Runner: dropping segment %d (%s): volume %.3f L below minimum %.3f L",
				seg.SegmentID, seg.FoodName, seg.VolumeLitres, r.minVolume)
			continue
		}
		kept = append(kept, seg)
	}
	return kept
}

// Run executes every stage against the image at imagePath. Errors are
// fatal for the run, except the volume review which degrades to the
// unreviewed volumes with a warning.
func (r *Runner) Run(ctx context.Context, imagePath string) (*RunResult, error) {
	runID := uuid.New().String()
	runDir := filepath.Join(r.dataDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run dir: %w", err)
	}
	log.Printf("pipeline.Runner: run %s started for %s", runID, imagePath)

	// Segmentation
	segCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
	est, err := r.estimator.Estimate(segCtx, imagePath)
	cancel()
	if err != nil {
		return nil, &StageError{Stage: domain.StageSegmentation, File: imagePath, Err: err}
	}
	segments := r.filterSegments(est.Segments)
	segFile := filepath.Join(runDir, SegmentsFile)
	if err := WriteJSON(segFile, &SegmentsRecord{ImagePath: imagePath, Segments: segments}); err != nil {
		return nil, &StageError{Stage: domain.StageSegmentation, File: segFile, Err: err}
	}

	// Identification
	idCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
	analyses, err := r.identifier.Identify(idCtx, segments)
	cancel()
	if err != nil {
		return nil, &StageError{Stage: domain.StageIdentify, File: segFile, Err: err}
	}
	analysisFile := filepath.Join(runDir, AnalysisFile)
	if err := WriteJSON(analysisFile, &AnalysisRecord{Analyses: analyses}); err != nil {
		return nil, &StageError{Stage: domain.StageIdentify, File: analysisFile, Err: err}
	}

	// Clarification dialogue. No stage timeout here: the user may take
	// a while to answer, and the answer source enforces its own.
	confirmed, suggestions, err := r.confirmer.Confirm(ctx, analyses)
	if err != nil {
		return nil, &StageError{Stage: domain.StageDialogue, File: analysisFile, Err: err}
	}
	confirmedFile := filepath.Join(runDir, ConfirmedFile)
	if err := WriteJSON(confirmedFile, &ConfirmedRecord{ConfirmedResults: confirmed, AdditionalSuggestions: suggestions}); err != nil {
		return nil, &StageError{Stage: domain.StageDialogue, File: confirmedFile, Err: err}
	}

	// Volume review. Failure here is recoverable: the unreviewed
	// volumes are still usable.
	stageInput := confirmedFile
	revCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
	verification, err := r.reviewer.Review(revCtx, confirmed, imagePath)
	cancel()
	if err != nil {
		log.Printf("pipeline.Runner: volume review failed, continuing with unreviewed volumes: %v", err)
	} else {
		verifiedFile := filepath.Join(runDir, VerifiedFile)
		rec := &VerificationRecord{
			VerifiedVolumes:   verification.VerifiedVolumes,
			OverallConfidence: verification.OverallConfidence,
			Notes:             verification.Notes,
		}
		if err := WriteJSON(verifiedFile, rec); err != nil {
			return nil, &StageError{Stage: domain.StageVolumeReview, File: verifiedFile, Err: err}
		}
		stageInput = verifiedFile
	}

	// Decomposition, fed by whichever record the review left behind
	data, err := os.ReadFile(stageInput)
	if err != nil {
		return nil, &StageError{Stage: domain.StageDecompose, File: stageInput, Err: err}
	}
	items, kind, err := NormalizeInput(data, r.policy)
	if err != nil {
		return nil, &StageError{Stage: domain.StageDecompose, File: stageInput, Err: err}
	}
	log.Printf("pipeline.Runner: decomposing %d items (input format %s)", len(items), kind)

	decCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
	decomposed, err := r.decomposer.Decompose(decCtx, items)
	cancel()
	if err != nil {
		return nil, &StageError{Stage: domain.StageDecompose, File: stageInput, Err: err}
	}
	decompFile := filepath.Join(runDir, DecompositionFile)
	if err := WriteJSON(decompFile, &DecompositionRecord{DecomposedFoods: decomposed}); err != nil {
		return nil, &StageError{Stage: domain.StageDecompose, File: decompFile, Err: err}
	}

	// Mass conversion
	massCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
	masses, err := r.massCalc.Compute(massCtx, decomposed)
	cancel()
	if err != nil {
		return nil, &StageError{Stage: domain.StageMass, File: decompFile, Err: err}
	}
	massFile := filepath.Join(runDir, MassFile)
	if err := WriteJSON(massFile, &MassRecord{FoodMasses: masses}); err != nil {
		return nil, &StageError{Stage: domain.StageMass, File: massFile, Err: err}
	}

	// Nutrition acquisition and scaling
	nutCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
	segNutrition, totals, err := r.nutritionCal.Compute(nutCtx, masses)
	cancel()
	if err != nil {
		return nil, &StageError{Stage: domain.StageNutrition, File: massFile, Err: err}
	}
	report := &NutritionReport{Segments: segNutrition, Totals: totals}
	nutritionFile := filepath.Join(runDir, NutritionFile)
	if err := WriteJSON(nutritionFile, report); err != nil {
		return nil, &StageError{Stage: domain.StageNutrition, File: nutritionFile, Err: err}
	}

	log.Printf("pipeline.Runner: run %s complete (%d segments, %.1f kcal)", runID, totals.SegmentCount, totals.CaloriesKcal)
	return &RunResult{RunID: runID, RunDir: runDir, Report: report}, nil
}

// RunStage re-executes a single late stage against the records already
// in runDir, overwriting that stage's output record. Supported stages
// are decompose, mass, and nutrition; earlier stages need the image and
// the user, so a partial rerun starts from the decomposition at the
// earliest.
func (r *Runner) RunStage(ctx context.Context, runDir string, stage domain.Stage) error {
	switch stage {
	case domain.StageDecompose:
		input := filepath.Join(runDir, VerifiedFile)
		if _, err := os.Stat(input); err != nil {
			input = filepath.Join(runDir, ConfirmedFile)
		}
		data, err := os.ReadFile(input)
		if err != nil {
			return &StageError{Stage: stage, File: input, Err: err}
		}
		items, kind, err := NormalizeInput(data, r.policy)
		if err != nil {
			return &StageError{Stage: stage, File: input, Err: err}
		}
		log.Printf("pipeline.Runner: decomposing %d items (input format %s)", len(items), kind)
		stageCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
		decomposed, err := r.decomposer.Decompose(stageCtx, items)
		cancel()
		if err != nil {
			return &StageError{Stage: stage, File: input, Err: err}
		}
		out := filepath.Join(runDir, DecompositionFile)
		if err := WriteJSON(out, &DecompositionRecord{DecomposedFoods: decomposed}); err != nil {
			return &StageError{Stage: stage, File: out, Err: err}
		}
		return nil

	case domain.StageMass:
		input := filepath.Join(runDir, DecompositionFile)
		var rec DecompositionRecord
		if err := ReadJSON(input, &rec); err != nil {
			return &StageError{Stage: stage, File: input, Err: err}
		}
		stageCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
		masses, err := r.massCalc.Compute(stageCtx, rec.DecomposedFoods)
		cancel()
		if err != nil {
			return &StageError{Stage: stage, File: input, Err: err}
		}
		out := filepath.Join(runDir, MassFile)
		if err := WriteJSON(out, &MassRecord{FoodMasses: masses}); err != nil {
			return &StageError{Stage: stage, File: out, Err: err}
		}
		return nil

	case domain.StageNutrition:
		input := filepath.Join(runDir, MassFile)
		var rec MassRecord
		if err := ReadJSON(input, &rec); err != nil {
			return &StageError{Stage: stage, File: input, Err: err}
		}
		stageCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
		segNutrition, totals, err := r.nutritionCal.Compute(stageCtx, rec.FoodMasses)
		cancel()
		if err != nil {
			return &StageError{Stage: stage, File: input, Err: err}
		}
		out := filepath.Join(runDir, NutritionFile)
		if err := WriteJSON(out, &NutritionReport{Segments: segNutrition, Totals: totals}); err != nil {
			return &StageError{Stage: stage, File: out, Err: err}
		}
		return nil

	default:
		return fmt.Errorf("stage %q cannot run standalone", stage)
	}
}
