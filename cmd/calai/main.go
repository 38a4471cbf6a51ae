// Command calai runs the analysis pipeline against a meal photo from the
// terminal. Clarification questions are asked on stdin instead of going
// through the HTTP side channel.
// Usage:
//
//	calai -image path/to/meal.jpg
//	calai -run data/runs/<id> -stage decompose|mass|nutrition
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"calai/internal/config"
	"calai/internal/domain"
	"calai/internal/llm"
	"calai/internal/llm/claude"
	"calai/internal/llm/gemini"
	"calai/internal/llm/openai"
	"calai/internal/pipeline"
	"calai/internal/port"
	"calai/internal/resolver"
	"calai/internal/search/corpus"
	"calai/internal/search/tavily"
	"calai/internal/segmenter"
	"calai/internal/service"
	"calai/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	imagePath := flag.String("image", "", "path to the meal photo (jpg or png)")
	runDir := flag.String("run", "", "existing run directory, for -stage")
	stage := flag.String("stage", "", "rerun a single stage (decompose, mass, nutrition) against -run")
	flag.Parse()

	if *stage != "" {
		if *runDir == "" {
			flag.Usage()
			return fmt.Errorf("the -stage flag requires -run")
		}
		if _, err := os.Stat(*runDir); err != nil {
			return fmt.Errorf("cannot read run directory: %w", err)
		}
	} else {
		if *imagePath == "" {
			flag.Usage()
			return fmt.Errorf("the -image flag is required")
		}
		if _, err := os.Stat(*imagePath); err != nil {
			return fmt.Errorf("cannot read image: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	llm.RegisterProvider("claude", func(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
		return claude.NewModel(cfg), nil
	})
	llm.RegisterProvider("openai", func(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
		return openai.NewModel(cfg), nil
	})
	llm.RegisterProvider("gemini", func(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
		return gemini.NewModel(cfg), nil
	})

	model, err := llm.NewModel(&cfg.LLM.Primary)
	if err != nil {
		return fmt.Errorf("failed to build chat model: %w", err)
	}

	searcher := tavily.NewClient(&cfg.Search)
	densityCorpus := corpus.NewClient(&cfg.Corpus)
	estimator := segmenter.NewClient(&cfg.Segmenter)

	checker := validator.FromConfig(&cfg.Validation)
	densities := resolver.NewDensityResolver([]resolver.DensityStrategy{
		&resolver.CorpusStrategy{Corpus: densityCorpus, Model: model, TopK: cfg.Corpus.TopK},
		&resolver.WebStrategy{Searcher: searcher, Model: model},
		&resolver.EstimateStrategy{Model: model},
	}, checker, cfg.Validation.DensityDefault)
	nutrition := resolver.NewNutritionResolver([]resolver.NutritionStrategy{
		&resolver.WebNutritionStrategy{Searcher: searcher, Model: model},
	})

	answers := &service.TerminalAnswerSource{In: os.Stdin, Out: os.Stdout}
	runner := pipeline.NewRunner(
		estimator,
		service.NewIdentifyService(model),
		service.NewDialogueService(model, answers, &cfg.Pipeline),
		service.NewVolumeReviewService(model, ""),
		service.NewDecomposeService(model, searcher, &cfg.Validation),
		service.NewMassService(densities, checker),
		service.NewNutritionService(nutrition),
		resolver.PolicyFromConfig(&cfg.Validation), &cfg.Pipeline,
	)

	if *stage != "" {
		if err := runner.RunStage(context.Background(), *runDir, domain.Stage(*stage)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "stage %s rerun complete in %s\n", *stage, *runDir)
		return nil
	}

	result, err := runner.Run(context.Background(), *imagePath)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result.Report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "stage records written to %s\n", result.RunDir)
	return nil
}
