package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/internal/service"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// ScoreHandler exposes score entry and workflow endpoints.
type ScoreHandler struct {
	scores *service.ScoreService
}

// NewScoreHandler constructs ScoreHandler.
func NewScoreHandler(scores *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// List godoc
// @Summary List scores
// @Tags Scores
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param subjectId query string false "Filter by subject"
// @Param classId query string false "Filter by class"
// @Param term query int false "Filter by term"
// @Param session query string false "Filter by session"
// @Param published query bool false "Filter by published state"
// @Success 200 {object} response.Envelope
// @Router /scores [get]
func (h *ScoreHandler) List(c *gin.Context) {
	filter := models.ScoreFilter{
		StudentID: c.Query("studentId"),
		SubjectID: c.Query("subjectId"),
		ClassID:   c.Query("classId"),
		Term:      termFromQuery(c),
		Session:   c.Query("session"),
	}
	if published := c.Query("published"); published != "" {
		v := published == "true"
		filter.Published = &v
	}

	scores, err := h.scores.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// Upsert godoc
// @Summary Create or update a single score
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.UpsertScoreRequest true "Score payload"
// @Success 201 {object} response.Envelope
// @Router /scores [post]
func (h *ScoreHandler) Upsert(c *gin.Context) {
	var req service.UpsertScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}

	score, err := h.scores.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, score)
}

// BulkUpsert godoc
// @Summary Save a batch of scores atomically
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.BulkScoresRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /scores/bulk [post]
func (h *ScoreHandler) BulkUpsert(c *gin.Context) {
	var req service.BulkScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}

	saved, err := h.scores.BulkUpsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": saved}, nil)
}

// Approve godoc
// @Summary Approve or revoke scores for a class scope
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.ScoreScopeRequest true "Scope payload"
// @Success 200 {object} response.Envelope
// @Router /scores/approve [post]
func (h *ScoreHandler) Approve(c *gin.Context) {
	h.toggle(c, h.scores.Approve)
}

// Publish godoc
// @Summary Publish or unpublish scores for a class scope
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.ScoreScopeRequest true "Scope payload"
// @Success 200 {object} response.Envelope
// @Router /scores/publish [post]
func (h *ScoreHandler) Publish(c *gin.Context) {
	h.toggle(c, h.scores.Publish)
}

func (h *ScoreHandler) toggle(c *gin.Context, fn func(ctx context.Context, req service.ScoreScopeRequest, state bool) error) {
	var payload struct {
		service.ScoreScopeRequest
		State *bool `json:"state"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scope payload"))
		return
	}
	state := true
	if payload.State != nil {
		state = *payload.State
	}

	if err := fn(c.Request.Context(), payload.ScoreScopeRequest, state); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"state": state}, nil)
}

// Delete godoc
// @Summary Delete a score
// @Tags Scores
// @Param id path string true "Score ID"
// @Success 204 {object} response.Envelope
// @Router /scores/{id} [delete]
func (h *ScoreHandler) Delete(c *gin.Context) {
	if err := h.scores.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
