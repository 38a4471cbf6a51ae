package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"calai/internal/service"
)

// AnalyzeHandler handles meal analysis requests.
type AnalyzeHandler struct {
	analyzeService service.AnalyzeService
	scratchDir     string
}

// NewAnalyzeHandler creates a new AnalyzeHandler. Uploaded photos are
// spooled to scratchDir so the segmentation model can read them from disk.
func NewAnalyzeHandler(analyzeService service.AnalyzeService, scratchDir string) *AnalyzeHandler {
	return &AnalyzeHandler{analyzeService: analyzeService, scratchDir: scratchDir}
}

// Analyze handles POST /api/v1/analyze
// Accepts multipart form data with an optional "image" file and an
// optional "query" text field. At least one must be present.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_SESSION", "session_id field is required")
		return
	}
	query := c.PostForm("query")

	input := service.AnalyzeInput{
		SessionID: sessionID,
		Query:     query,
	}

	file, header, err := c.Request.FormFile("image")
	if err == nil {
		defer func() { _ = file.Close() }()

		path, data, spoolErr := h.spoolImage(file, header.Filename)
		if spoolErr != nil {
			RespondError(c, http.StatusInternalServerError, "SPOOL_FAILED", "could not store uploaded image")
			return
		}
		defer func() { _ = os.Remove(path) }()

		input.ImagePath = path
		input.ImageBytes = data
		input.ContentType = header.Header.Get("Content-Type")
	} else if query == "" {
		RespondError(c, http.StatusBadRequest, "EMPTY_REQUEST", "provide an image, a query, or both")
		return
	}

	output, err := h.analyzeService.Analyze(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, output)
}

// spoolImage writes the upload to a scratch file and returns its path
// along with the raw bytes.
func (h *AnalyzeHandler) spoolImage(file io.Reader, originalName string) (string, []byte, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}
	if err := os.MkdirAll(h.scratchDir, 0o755); err != nil {
		return "", nil, err
	}
	tmp, err := os.CreateTemp(h.scratchDir, "upload-*"+ext)
	if err != nil {
		return "", nil, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}
	return tmp.Name(), data, nil
}
