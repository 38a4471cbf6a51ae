package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calai/internal/service"
)

// InputHandler exposes the clarification question side channel. While a
// pipeline run is blocked on a question, clients poll for it here and
// post the answer back.
type InputHandler struct {
	answers *service.AnswerStore
}

// NewInputHandler creates a new InputHandler.
func NewInputHandler(answers *service.AnswerStore) *InputHandler {
	return &InputHandler{answers: answers}
}

// PendingQuestion handles GET /api/v1/input/question
func (h *InputHandler) PendingQuestion(c *gin.Context) {
	question, ok := h.answers.Current()
	RespondOK(c, gin.H{
		"pending":  ok,
		"question": question,
	})
}

type answerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// SubmitAnswer handles POST /api/v1/input/answer
func (h *InputHandler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "answer field is required")
		return
	}

	if err := h.answers.Submit(req.Answer); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "answer accepted"})
}
