package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/service"
	"github.com/ppisng/ppis-api/pkg/response"
)

// DashboardHandler wires the dashboard service to HTTP endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Admin dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
