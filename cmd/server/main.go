package main

import (
	"fmt"
	"log"

	"calai/internal/config"
	"calai/internal/handler"
	"calai/internal/llm"
	"calai/internal/llm/claude"
	"calai/internal/llm/gemini"
	"calai/internal/llm/openai"
	"calai/internal/pipeline"
	"calai/internal/port"
	"calai/internal/repository/sqlite"
	"calai/internal/resolver"
	"calai/internal/router"
	"calai/internal/search/corpus"
	"calai/internal/search/tavily"
	"calai/internal/segmenter"
	"calai/internal/service"
	localstorage "calai/internal/storage/local"
	s3storage "calai/internal/storage/s3"
	"calai/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func registerProviders() {
	llm.RegisterProvider("claude", func(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
		return claude.NewModel(cfg), nil
	})
	llm.RegisterProvider("openai", func(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
		return openai.NewModel(cfg), nil
	})
	llm.RegisterProvider("gemini", func(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
		return gemini.NewModel(cfg), nil
	})
}

// buildModel assembles the chat model fallback chain from the configured
// providers. The secondary and tertiary slots are optional.
func buildModel(cfg *config.LLMConfig) (port.ChatModel, error) {
	var (
		models []port.ChatModel
		names  []string
	)

	primary, err := llm.NewModel(&cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary chat provider: %w", err)
	}
	models = append(models, primary)
	names = append(names, cfg.Primary.Provider)

	for _, pc := range []*config.LLMProviderConfig{cfg.SecondaryConfig(), cfg.TertiaryConfig()} {
		if pc == nil {
			continue
		}
		model, err := llm.NewModel(pc)
		if err != nil {
			return nil, fmt.Errorf("%s chat provider: %w", pc.Provider, err)
		}
		models = append(models, model)
		names = append(names, pc.Provider)
	}

	if len(models) == 1 {
		return primary, nil
	}
	return llm.NewFallbackModel(models, names), nil
}

func buildStorage(cfg *config.StorageConfig) (port.ObjectStorage, error) {
	if cfg.Provider == "s3" {
		return s3storage.NewS3Client(&cfg.S3)
	}
	return localstorage.NewLocalClient(cfg.LocalDir)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sqlite.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Repositories
	mealRepo := sqlite.NewMealRepo(db)
	chatRepo := sqlite.NewChatRepo(db)
	photoRepo := sqlite.NewPhotoRepo(db)

	// Storage
	objectStorage, err := buildStorage(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Chat model with provider fallback
	registerProviders()
	model, err := buildModel(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to build chat model: %w", err)
	}

	// External services
	searcher := tavily.NewClient(&cfg.Search)
	densityCorpus := corpus.NewClient(&cfg.Corpus)
	estimator := segmenter.NewClient(&cfg.Segmenter)

	// Resolvers
	checker := validator.FromConfig(&cfg.Validation)
	densities := resolver.NewDensityResolver([]resolver.DensityStrategy{
		&resolver.CorpusStrategy{Corpus: densityCorpus, Model: model, TopK: cfg.Corpus.TopK},
		&resolver.WebStrategy{Searcher: searcher, Model: model},
		&resolver.EstimateStrategy{Model: model},
	}, checker, cfg.Validation.DensityDefault)
	nutrition := resolver.NewNutritionResolver([]resolver.NutritionStrategy{
		&resolver.WebNutritionStrategy{Searcher: searcher, Model: model},
	})

	// Pipeline stages
	answers := service.NewAnswerStore(cfg.Pipeline.AnswerTimeout)
	identifySvc := service.NewIdentifyService(model)
	dialogueSvc := service.NewDialogueService(model, answers, &cfg.Pipeline)
	reviewSvc := service.NewVolumeReviewService(model, "")
	decomposeSvc := service.NewDecomposeService(model, searcher, &cfg.Validation)
	massSvc := service.NewMassService(densities, checker)
	nutritionSvc := service.NewNutritionService(nutrition)

	runner := pipeline.NewRunner(
		estimator, identifySvc, dialogueSvc, reviewSvc,
		decomposeSvc, massSvc, nutritionSvc,
		resolver.PolicyFromConfig(&cfg.Validation), &cfg.Pipeline,
	)

	// Services
	routerSvc := service.NewRouterService(model)
	chatSvc := service.NewChatService(model, chatRepo, mealRepo)
	analyzeSvc := service.NewAnalyzeService(routerSvc, runner, chatSvc, mealRepo)
	mealSvc := service.NewMealService(mealRepo)
	photoSvc := service.NewPhotoService(photoRepo, objectStorage, &cfg.Storage)

	// Handlers
	analyzeH := handler.NewAnalyzeHandler(analyzeSvc, cfg.Pipeline.DataDir)
	inputH := handler.NewInputHandler(answers)
	mealH := handler.NewMealHandler(mealSvc)
	photoH := handler.NewPhotoHandler(photoSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(&cfg.CORS, analyzeH, inputH, mealH, photoH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
