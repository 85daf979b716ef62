package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/service"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// RemarkHandler exposes form-teacher remark endpoints.
type RemarkHandler struct {
	remarks *service.RemarkService
}

// NewRemarkHandler constructs RemarkHandler.
func NewRemarkHandler(remarks *service.RemarkService) *RemarkHandler {
	return &RemarkHandler{remarks: remarks}
}

// ListByClass godoc
// @Summary List remarks for a class and term
// @Tags Remarks
// @Produce json
// @Param id path string true "Class ID"
// @Param term query int true "Term (1-3)"
// @Param session query string true "Academic session"
// @Success 200 {object} response.Envelope
// @Router /remarks/classes/{id} [get]
func (h *RemarkHandler) ListByClass(c *gin.Context) {
	term := termFromQuery(c)
	session := c.Query("session")
	if term == 0 || session == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term and session are required"))
		return
	}

	remarks, err := h.remarks.ListByClass(c.Request.Context(), c.Param("id"), term, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, remarks, nil)
}

// ForStudent godoc
// @Summary Remark for one student in a term
// @Tags Remarks
// @Produce json
// @Param id path string true "Student ID"
// @Param term query int true "Term (1-3)"
// @Param session query string true "Academic session"
// @Success 200 {object} response.Envelope
// @Router /remarks/students/{id} [get]
func (h *RemarkHandler) ForStudent(c *gin.Context) {
	term := termFromQuery(c)
	session := c.Query("session")
	if term == 0 || session == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term and session are required"))
		return
	}

	remark, err := h.remarks.ForStudent(c.Request.Context(), c.Param("id"), term, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, remark, nil)
}

// Save godoc
// @Summary Create or update a remark
// @Tags Remarks
// @Accept json
// @Produce json
// @Param payload body service.SaveRemarkRequest true "Remark payload"
// @Success 201 {object} response.Envelope
// @Router /remarks [post]
func (h *RemarkHandler) Save(c *gin.Context) {
	var req service.SaveRemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid remark payload"))
		return
	}

	remark, err := h.remarks.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, remark)
}
