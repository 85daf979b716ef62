package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/service"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// SubjectHandler exposes subject endpoints.
type SubjectHandler struct {
	subjects *service.SubjectService
}

// NewSubjectHandler constructs SubjectHandler.
func NewSubjectHandler(subjects *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Param category query string false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.subjects.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Save godoc
// @Summary Create or update a subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body service.SaveSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Save(c *gin.Context) {
	var req service.SaveSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}

	subject, err := h.subjects.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Delete godoc
// @Summary Delete subject and its dependent records
// @Tags Subjects
// @Param id path string true "Subject ID"
// @Success 204 {object} response.Envelope
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.subjects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
