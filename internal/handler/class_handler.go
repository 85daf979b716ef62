package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/internal/service"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// ClassHandler exposes class endpoints.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Param level query string false "Filter by level (JSS or SS)"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	filter := models.ClassFilter{
		Level:  models.ClassLevel(c.Query("level")),
		Search: strings.TrimSpace(c.Query("search")),
	}

	classes, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Mine godoc
// @Summary Class assigned to the calling form teacher
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes/mine [get]
func (h *ClassHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	class, err := h.classes.ForFormTeacher(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Save godoc
// @Summary Create or update a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.SaveClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Save(c *gin.Context) {
	var req service.SaveClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.classes.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Delete godoc
// @Summary Delete class
// @Tags Classes
// @Param id path string true "Class ID"
// @Success 204 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.classes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
