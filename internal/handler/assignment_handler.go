package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/internal/service"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// AssignmentHandler exposes teacher-subject assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// List godoc
// @Summary List teacher-subject assignments
// @Tags Assignments
// @Produce json
// @Param teacherId query string false "Filter by teacher"
// @Param subjectId query string false "Filter by subject"
// @Param classId query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := models.AssignmentFilter{
		TeacherID: c.Query("teacherId"),
		SubjectID: c.Query("subjectId"),
		ClassID:   c.Query("classId"),
	}

	assignments, err := h.assignments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Assign godoc
// @Summary Assign subjects to a teacher
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignSubjectsRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	if err := h.assignments.Assign(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"assigned": len(req.Items)})
}

// Remove godoc
// @Summary Remove an assignment
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204 {object} response.Envelope
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	if err := h.assignments.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
