package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"calai/internal/domain"
	"calai/internal/llm"
	"calai/internal/port"
)

// IdentifyService names each food segment from its crop image and
// reports how sure the model is about the identification.
type IdentifyService interface {
	Identify(ctx context.Context, segments []domain.FoodSegment) ([]domain.SegmentAnalysis, error)
}

type identifyService struct {
	model port.ChatModel
}

// NewIdentifyService creates a new IdentifyService implementation.
func NewIdentifyService(model port.ChatModel) IdentifyService {
	return &identifyService{model: model}
}

type identifyReply struct {
	FoodName              string   `json:"food_name"`
	Confidence            float64  `json:"confidence"`
	MajorUncertainties    []string `json:"major_uncertainties"`
	MostImportantQuestion string   `json:"most_important_question"`
	AmbiguityFlag         bool     `json:"ambiguity_flag"`
}

const identifyPrompt = `Identify the food shown in this image crop.

Reply with JSON only:
{"food_name": "<specific name>", "confidence": <0..1>,
 "major_uncertainties": ["<aspect you cannot tell from the image>", ...],
 "most_important_question": "<the single question whose answer would most improve the identification>",
 "ambiguity_flag": true|false}

Set ambiguity_flag when the crop could plausibly be two or more different
foods. List at most three uncertainties; leave the list empty when the
identification is clear.`

// mealWords mark names that describe a whole meal rather than a single
// food. A crop labelled this way needs a clarifying question, so the
// segment is demoted to ambiguous.
var mealWords = []string{"meal", "plate", "dish with", " and ", "with dal"}

func (s *identifyService) Identify(ctx context.Context, segments []domain.FoodSegment) ([]domain.SegmentAnalysis, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to identify")
	}

	analyses := make([]domain.SegmentAnalysis, 0, len(segments))
	for _, seg := range segments {
		imageBytes, contentType, err := loadImage(seg.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", seg.SegmentID, err)
		}

		reply, err := s.identifyOne(ctx, imageBytes, contentType)
		if err != nil {
			// An unidentifiable crop stays in the meal. The dialogue
			// stage will ask the user what it is.
			log.Printf("service.identifyService: segment %d identification failed, marking unknown: %v", seg.SegmentID, err)
			reply = &identifyReply{FoodName: "Unknown food", Confidence: 0, AmbiguityFlag: true}
		}

		demoteMealDescription(reply)

		log.Printf("service.identifyService: segment %d identified as %q (confidence %.2f)", seg.SegmentID, reply.FoodName, reply.Confidence)
		analyses = append(analyses, domain.SegmentAnalysis{
			SegmentID:             seg.SegmentID,
			FoodName:              reply.FoodName,
			Confidence:            reply.Confidence,
			MajorUncertainties:    reply.MajorUncertainties,
			MostImportantQuestion: reply.MostImportantQuestion,
			AmbiguityFlag:         reply.AmbiguityFlag,
			OriginalVolumeLitres:  seg.VolumeLitres,
			ImagePath:             seg.ImagePath,
		})
	}
	return analyses, nil
}

func (s *identifyService) identifyOne(ctx context.Context, imageBytes []byte, contentType string) (*identifyReply, error) {
	out, err := s.model.Complete(ctx, port.ChatInput{
		Prompt:      identifyPrompt,
		ImageBytes:  imageBytes,
		ContentType: contentType,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, err
	}
	var reply identifyReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// demoteMealDescription caps the confidence of names that sound like a
// whole meal instead of one food.
func demoteMealDescription(reply *identifyReply) {
	name := strings.ToLower(reply.FoodName)
	for _, w := range mealWords {
		if strings.Contains(name, w) {
			reply.AmbiguityFlag = true
			if reply.Confidence > 0.7 {
				reply.Confidence = 0.7
			}
			return
		}
	}
}

// loadImage reads an image file and derives its MIME type from the
// extension.
func loadImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return data, "image/jpeg", nil
	case ".png":
		return data, "image/png", nil
	default:
		return nil, "", fmt.Errorf("unsupported image type: %s", path)
	}
}
