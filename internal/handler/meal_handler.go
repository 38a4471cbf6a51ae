package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"calai/internal/export"
	"calai/internal/service"
)

// MealHandler handles meal history endpoints.
type MealHandler struct {
	mealService service.MealService
}

// NewMealHandler creates a new MealHandler.
func NewMealHandler(mealService service.MealService) *MealHandler {
	return &MealHandler{mealService: mealService}
}

// List handles GET /api/v1/meals
func (h *MealHandler) List(c *gin.Context) {
	sessionID := c.Query("session_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	meals, err := h.mealService.List(c.Request.Context(), sessionID, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, meals)
}

// GetByID handles GET /api/v1/meals/:id
func (h *MealHandler) GetByID(c *gin.Context) {
	meal, err := h.mealService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, meal)
}

// Export handles GET /api/v1/meals/export
// Streams the meal history as CSV (default) or XLSX via ?format=xlsx.
func (h *MealHandler) Export(c *gin.Context) {
	sessionID := c.Query("session_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))

	meals, err := h.mealService.List(c.Request.Context(), sessionID, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	name := sessionID
	if name == "" {
		name = "meals"
	}

	if c.DefaultQuery("format", "csv") == "xlsx" {
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, meals); err != nil {
			RespondError(c, http.StatusInternalServerError, "EXPORT_FAILED", "could not build XLSX export")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(name, "xlsx")+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(name, "csv")+`"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Writer.WriteHeader(http.StatusOK)
	_, _ = c.Writer.Write(export.BOM)

	w := export.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteMeals(meals); err != nil {
		return
	}
	w.Flush()
}
