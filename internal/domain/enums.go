package domain

// FileType represents the allowed image types for upload.
type FileType string

const (
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"image/jpeg": FileTypeJPG,
	"image/png":  FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// Route is the destination chosen for an incoming request.
type Route string

const (
	RouteConversational Route = "conversational"
	RoutePipeline       Route = "pipeline"
)

// DensityMethod records which lookup strategy produced a density value.
type DensityMethod string

const (
	DensityMethodCorpus   DensityMethod = "PDF_RAG"
	DensityMethodWeb      DensityMethod = "WEB_SEARCH"
	DensityMethodEstimate DensityMethod = "LLM_ESTIMATE"
)

// DialoguePhase tracks progress through the clarification exchange.
type DialoguePhase string

const (
	PhaseCollecting     DialoguePhase = "collecting"
	PhaseRanking        DialoguePhase = "ranking"
	PhaseAwaitingAnswer DialoguePhase = "awaiting_answer"
	PhaseMerging        DialoguePhase = "merging"
	PhaseDone           DialoguePhase = "done"
)

// Stage identifies a pipeline stage for logging and diagnostics.
type Stage string

const (
	StageSegmentation Stage = "segmentation"
	StageIdentify     Stage = "identify"
	StageDialogue     Stage = "dialogue"
	StageVolumeReview Stage = "volume_review"
	StageDecompose    Stage = "decompose"
	StageMass         Stage = "mass"
	StageNutrition    Stage = "nutrition"
)

// ChatRole labels a turn in a stored conversation.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)
