package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"calai/internal/service"
)

// PhotoHandler handles meal photo upload and retrieval endpoints.
type PhotoHandler struct {
	photoService service.PhotoService
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(photoService service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

// Upload handles POST /api/v1/photos
func (h *PhotoHandler) Upload(c *gin.Context) {
	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_SESSION", "session_id field is required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	meta, err := h.photoService.Upload(c.Request.Context(), service.PhotoUploadInput{
		SessionID: sessionID,
		File:      file,
		Header:    header,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, meta)
}

// GetByID handles GET /api/v1/photos/:id
func (h *PhotoHandler) GetByID(c *gin.Context) {
	photoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid photo ID")
		return
	}

	meta, err := h.photoService.GetByID(c.Request.Context(), photoID)
	if err != nil {
		HandleError(c, err)
		return
	}

	downloadURL, err := h.photoService.GetDownloadURL(c.Request.Context(), photoID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"photo":        meta,
		"download_url": downloadURL,
	})
}

// Download handles GET /api/v1/photos/:id/content
func (h *PhotoHandler) Download(c *gin.Context) {
	photoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid photo ID")
		return
	}

	data, meta, err := h.photoService.GetBytes(c.Request.Context(), photoID)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, meta.ContentType, data)
}
