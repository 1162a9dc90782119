package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
)

type DashboardHandler struct {
	svc *services.DashboardService
}

func NewDashboardHandler(svc *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.Get)
}

func (h *DashboardHandler) Get(c *gin.Context) {
	progressKey, goalsKey, ok := partitions(c)
	if !ok {
		return
	}

	stats, err := h.svc.GetDashboard(c.Request.Context(), progressKey, goalsKey)
	if err != nil {
		handleError(c, err)
		return
	}

	respondOK(c, http.StatusOK, stats)
}
