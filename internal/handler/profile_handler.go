package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/internal/service"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// ProfileHandler exposes registry profile administration endpoints.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// List godoc
// @Summary List profiles
// @Tags Profiles
// @Produce json
// @Param role query string false "Filter by role"
// @Param search query string false "Search by name or username"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /profiles [get]
func (h *ProfileHandler) List(c *gin.Context) {
	var filter models.ProfileFilter
	if role := c.Query("role"); role != "" {
		r := models.Role(role)
		filter.Role = &r
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	profiles, pagination, err := h.profiles.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, pagination)
}

// Get godoc
// @Summary Get profile
// @Tags Profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /profiles/{id} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Seed godoc
// @Summary Pre-provision a registry profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Param payload body service.SeedProfileRequest true "Profile payload"
// @Success 201 {object} response.Envelope
// @Router /profiles [post]
func (h *ProfileHandler) Seed(c *gin.Context) {
	var req service.SeedProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	profile, err := h.profiles.Seed(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// Delete godoc
// @Summary Delete profile
// @Tags Profiles
// @Param id path string true "Profile ID"
// @Success 204 {object} response.Envelope
// @Router /profiles/{id} [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
	if err := h.profiles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
