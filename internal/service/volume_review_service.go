package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"calai/internal/domain"
	"calai/internal/llm"
	"calai/internal/port"
)

// VolumeReviewService second-guesses the measured volumes against the
// full meal photo. Two strategies exist: "list" reviews the whole meal
// in one exchange, "item" reviews each segment separately.
type VolumeReviewService interface {
	Review(ctx context.Context, foods []domain.ConfirmedFood, imagePath string) (*domain.VolumeVerification, error)
}

// NewVolumeReviewService creates the strategy named by mode. Unknown
// modes fall back to the list strategy.
func NewVolumeReviewService(model port.ChatModel, mode string) VolumeReviewService {
	switch mode {
	case "item":
		return &itemReviewService{model: model}
	default:
		return &listReviewService{model: model}
	}
}

type volumeVerdict struct {
	SegmentID             int     `json:"segment_id"`
	VolumeReasonable      bool    `json:"volume_reasonable"`
	SuggestedVolumeLitres float64 `json:"suggested_volume_litres"`
	Confidence            float64 `json:"confidence"`
	Reasoning             string  `json:"reasoning"`
	AdjustmentMade        bool    `json:"adjustment_made"`
}

// listReviewService sends the whole food list in one prompt.
type listReviewService struct {
	model port.ChatModel
}

type listReviewReply struct {
	VerifiedVolumes   []volumeVerdict `json:"verified_volumes"`
	OverallConfidence float64         `json:"overall_assessment_confidence"`
	Notes             string          `json:"notes"`
}

func (s *listReviewService) Review(ctx context.Context, foods []domain.ConfirmedFood, imagePath string) (*domain.VolumeVerification, error) {
	imageBytes, contentType, err := loadImage(imagePath)
	if err != nil {
		return nil, err
	}

	var listing strings.Builder
	for _, f := range foods {
		fmt.Fprintf(&listing, "- segment %d: %s, measured %.3f L\n", f.SegmentID, f.FinalFoodName, f.VolumeLitres)
	}

	prompt := fmt.Sprintf(`This photo shows a full meal. A depth-based system measured these
portion volumes:

%s
Judge each volume against what the photo shows. Only suggest a
different volume when the measurement is clearly off for that food and
portion; the measurement is usually right.

Reply with JSON only:
{"verified_volumes": [
  {"segment_id": <id>, "volume_reasonable": true|false,
   "suggested_volume_litres": <number>, "confidence": <0..1>,
   "reasoning": "<one sentence>", "adjustment_made": true|false}, ...],
 "overall_assessment_confidence": <0..1>, "notes": "<optional>"}
Include every segment exactly once.`, listing.String())

	out, err := s.model.Complete(ctx, port.ChatInput{
		Prompt:      prompt,
		ImageBytes:  imageBytes,
		ContentType: contentType,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, fmt.Errorf("reviewing volumes: %w", err)
	}

	var reply listReviewReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		return nil, err
	}

	byID := make(map[int]volumeVerdict, len(reply.VerifiedVolumes))
	for _, v := range reply.VerifiedVolumes {
		byID[v.SegmentID] = v
	}

	// Pair verdicts back with the inputs; a segment the model skipped
	// keeps its measured volume.
	verification := &domain.VolumeVerification{
		OverallConfidence: reply.OverallConfidence,
		Notes:             reply.Notes,
	}
	for _, f := range foods {
		v, ok := byID[f.SegmentID]
		if !ok {
			log.Printf("service.listReviewService: no verdict for segment %d, keeping measurement", f.SegmentID)
			v = volumeVerdict{SegmentID: f.SegmentID, VolumeReasonable: true, SuggestedVolumeLitres: f.VolumeLitres}
		}
		verification.VerifiedVolumes = append(verification.VerifiedVolumes, domain.VerifiedVolume{
			SegmentID:             f.SegmentID,
			FoodName:              f.FinalFoodName,
			OriginalVolumeLitres:  f.VolumeLitres,
			VolumeReasonable:      v.VolumeReasonable,
			SuggestedVolumeLitres: v.SuggestedVolumeLitres,
			Confidence:            v.Confidence,
			Reasoning:             v.Reasoning,
			AdjustmentMade:        v.AdjustmentMade,
		})
	}
	return verification, nil
}

// itemReviewService reviews one segment per exchange. Slower but each
// verdict gets the model's full attention.
type itemReviewService struct {
	model port.ChatModel
}

func (s *itemReviewService) Review(ctx context.Context, foods []domain.ConfirmedFood, imagePath string) (*domain.VolumeVerification, error) {
	imageBytes, contentType, err := loadImage(imagePath)
	if err != nil {
		return nil, err
	}

	verification := &domain.VolumeVerification{}
	var confSum float64
	for _, f := range foods {
		prompt := fmt.Sprintf(`This photo shows a full meal. A depth-based system measured the
%s portion at %.3f L. Judge that volume against the photo. Only suggest
a different volume when the measurement is clearly off; it is usually
right.

Reply with JSON only:
{"segment_id": %d, "volume_reasonable": true|false,
 "suggested_volume_litres": <number>, "confidence": <0..1>,
 "reasoning": "<one sentence>", "adjustment_made": true|false}`,
			f.FinalFoodName, f.VolumeLitres, f.SegmentID)

		out, err := s.model.Complete(ctx, port.ChatInput{
			Prompt:      prompt,
			ImageBytes:  imageBytes,
			ContentType: contentType,
			MaxTokens:   512,
		})
		if err != nil {
			return nil, fmt.Errorf("reviewing segment %d: %w", f.SegmentID, err)
		}

		var v volumeVerdict
		if err := llm.DecodeJSON(out.Text, &v); err != nil {
			return nil, fmt.Errorf("segment %d: %w", f.SegmentID, err)
		}

		confSum += v.Confidence
		verification.VerifiedVolumes = append(verification.VerifiedVolumes, domain.VerifiedVolume{
			SegmentID:             f.SegmentID,
			FoodName:              f.FinalFoodName,
			OriginalVolumeLitres:  f.VolumeLitres,
			VolumeReasonable:      v.VolumeReasonable,
			SuggestedVolumeLitres: v.SuggestedVolumeLitres,
			Confidence:            v.Confidence,
			Reasoning:             v.Reasoning,
			AdjustmentMade:        v.AdjustmentMade,
		})
	}
	if len(foods) > 0 {
		verification.OverallConfidence = confSum / float64(len(foods))
	}
	return verification, nil
}
