package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/internal/service"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// ResultHandler exposes computed result endpoints.
type ResultHandler struct {
	results *service.ResultsService
}

// NewResultHandler constructs ResultHandler.
func NewResultHandler(results *service.ResultsService) *ResultHandler {
	return &ResultHandler{results: results}
}

// StudentResult godoc
// @Summary Aggregate result for one student
// @Tags Results
// @Produce json
// @Param id path string true "Student ID"
// @Param term query int true "Term (1-3)"
// @Param session query string true "Academic session"
// @Success 200 {object} response.Envelope
// @Router /results/students/{id} [get]
func (h *ResultHandler) StudentResult(c *gin.Context) {
	term := termFromQuery(c)
	session := c.Query("session")
	if term == 0 || session == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term and session are required"))
		return
	}

	result, err := h.results.StudentResult(c.Request.Context(), c.Param("id"), term, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// StudentSheet godoc
// @Summary Per-subject result sheet for one student
// @Tags Results
// @Produce json
// @Param id path string true "Student ID"
// @Param term query int true "Term (1-3)"
// @Param session query string true "Academic session"
// @Success 200 {object} response.Envelope
// @Router /results/students/{id}/sheet [get]
func (h *ResultHandler) StudentSheet(c *gin.Context) {
	term := termFromQuery(c)
	session := c.Query("session")
	if term == 0 || session == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term and session are required"))
		return
	}

	// Students only ever see published scores; staff see everything.
	publishedOnly := true
	if claims := claimsFromContext(c); claims != nil && claims.Role != models.RoleStudent {
		publishedOnly = false
	}

	sheet, err := h.results.StudentSheet(c.Request.Context(), c.Param("id"), term, session, publishedOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Broadsheet godoc
// @Summary Class broadsheet for a term
// @Tags Results
// @Produce json
// @Param id path string true "Class ID"
// @Param term query int true "Term (1-3)"
// @Param session query string true "Academic session"
// @Success 200 {object} response.Envelope
// @Router /results/classes/{id}/broadsheet [get]
func (h *ResultHandler) Broadsheet(c *gin.Context) {
	term := termFromQuery(c)
	session := c.Query("session")
	if term == 0 || session == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term and session are required"))
		return
	}

	rows, err := h.results.Broadsheet(c.Request.Context(), c.Param("id"), term, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
