package handlers

import (
	"net/http"

	"task-manager/server/internal/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboards services.DashboardService
}

func NewDashboardHandler(dashboards services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	data, err := h.dashboards.Global(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *DashboardHandler) GetUserDashboardData(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	data, err := h.dashboards.ForUser(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
