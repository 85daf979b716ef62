package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/service"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// SettingsHandler exposes the singleton school settings.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get godoc
// @Summary School settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Update school settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.UpdateSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
