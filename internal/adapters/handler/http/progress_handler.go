package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
)

const maxImportBytes = 5 << 20

type ProgressHandler struct {
	svc *services.ProgressService
}

func NewProgressHandler(svc *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

type pointsRequest struct {
	Points *int `json:"points"`
}

type contentToggleRequest struct {
	Week   int  `json:"week" binding:"required"`
	Points *int `json:"points"`
}

type addPointsRequest struct {
	Amount int    `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

type kpiRequest struct {
	Month *int `json:"month" binding:"required"`
	Value any  `json:"value"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type startDateRequest struct {
	StartDate string `json:"startDate" binding:"required"`
}

type themeRequest struct {
	Theme domain.Theme `json:"theme" binding:"required"`
}

func (h *ProgressHandler) RegisterRoutes(router *gin.RouterGroup) {
	p := router.Group("/progress")
	{
		p.GET("", h.Overview)
		p.GET("/state", h.State)
		p.GET("/weeks/:week", h.Week)
		p.GET("/phases/:phase", h.Phase)
		p.GET("/tasks", h.Tasks)
		p.POST("/tasks/:id/toggle", h.ToggleTask)
		p.PUT("/tasks/:id/note", h.AddNote)
		p.POST("/habits/:id/toggle", h.ToggleHabit)
		p.POST("/content/:id/toggle", h.ToggleContent)
		p.POST("/challenges/:id/complete", h.CompleteChallenge)
		p.POST("/points", h.AddPoints)
		p.POST("/streak", h.UpdateStreak)
		p.POST("/badges/check", h.CheckBadges)
		p.PUT("/kpis/:metric", h.UpdateKPI)

		p.PUT("/settings/start-date", h.SetStartDate)
		p.PUT("/settings/theme", h.SetTheme)
		p.POST("/settings/theme/cycle", h.CycleTheme)
		p.POST("/settings/sound/toggle", h.ToggleSound)
		p.POST("/settings/notifications/toggle", h.ToggleNotifications)

		p.POST("/reset", h.Reset)
		p.GET("/export", h.Export)
		p.POST("/import", h.Import)
	}
}

func (h *ProgressHandler) Overview(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	overview, err := h.svc.Overview(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, overview)
}

func (h *ProgressHandler) State(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	state, err := h.svc.State(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, state)
}

func (h *ProgressHandler) Week(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		handleError(c, domain.ErrInvalidWeekNumber)
		return
	}
	view, err := h.svc.Week(c.Request.Context(), key, n)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

func (h *ProgressHandler) Phase(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("phase"))
	if err != nil {
		handleError(c, services.ErrPhaseNotFound)
		return
	}
	view, err := h.svc.Phase(c.Request.Context(), key, id)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

func (h *ProgressHandler) Tasks(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	tasks, err := h.svc.TasksByCategory(c.Request.Context(), key, c.DefaultQuery("category", "all"))
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, tasks)
}

func (h *ProgressHandler) ToggleTask(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	var req pointsRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.svc.ToggleTask(c.Request.Context(), key, c.Param("id"), req.Points)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

func (h *ProgressHandler) ToggleHabit(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	var req pointsRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.svc.ToggleDailyHabit(c.Request.Context(), key, c.Param("id"), req.Points)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

func (h *ProgressHandler) ToggleContent(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	var req contentToggleRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.ToggleWeeklyContent(c.Request.Context(), key, c.Param("id"), req.Week, req.Points)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

func (h *ProgressHandler) CompleteChallenge(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	var req pointsRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.svc.CompleteChallenge(c.Request.Context(), key, c.Param("id"), req.Points)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

func (h *ProgressHandler) AddPoints(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	var req addPointsRequest
	if !bindJSON(c, &req) {
		return
	}
	points, err := h.svc.AddPoints(c.Request.Context(), key, req.Amount, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, points)
}

func (h *ProgressHandler) UpdateStreak(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	res, err := h.svc.UpdateStreak(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

func (h *ProgressHandler) CheckBadges(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	earned, err := h.svc.CheckBadges(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, earned)
}

func (h *ProgressHandler) UpdateKPI(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	var req kpiRequest
	if !bindJSON(c, &req) {
		return
	}
	series, err := h.svc.UpdateKPI(c.Request.Context(), key, c.Param("metric"), *req.Month, req.Value)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, series)
}

func (h *ProgressHandler) AddNote(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	var req noteRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.AddNote(c.Request.Context(), key, c.Param("id"), req.Note); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ProgressHandler) SetStartDate(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	var req startDateRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := h.svc.SetStartDate(c.Request.Context(), key, req.StartDate)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, settings)
}

func (h *ProgressHandler) SetTheme(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	var req themeRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := h.svc.SetTheme(c.Request.Context(), key, req.Theme)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, settings)
}

func (h *ProgressHandler) settingsAction(c *gin.Context, action func(*services.ProgressService, *gin.Context, string) (*domain.Settings, error)) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	settings, err := action(h.svc, c, key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, settings)
}

func (h *ProgressHandler) CycleTheme(c *gin.Context) {
	h.settingsAction(c, func(s *services.ProgressService, c *gin.Context, key string) (*domain.Settings, error) {
		return s.CycleTheme(c.Request.Context(), key)
	})
}

func (h *ProgressHandler) ToggleSound(c *gin.Context) {
	h.settingsAction(c, func(s *services.ProgressService, c *gin.Context, key string) (*domain.Settings, error) {
		return s.ToggleSound(c.Request.Context(), key)
	})
}

func (h *ProgressHandler) ToggleNotifications(c *gin.Context) {
	h.settingsAction(c, func(s *services.ProgressService, c *gin.Context, key string) (*domain.Settings, error) {
		return s.ToggleNotifications(c.Request.Context(), key)
	})
}

func (h *ProgressHandler) Reset(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	state, err := h.svc.Reset(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, state)
}

// Export returns the raw document so it can be imported back as-is.
func (h *ProgressHandler) Export(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	data, err := h.svc.Export(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="progress.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (h *ProgressHandler) Import(c *gin.Context) {
	key, _, ok := partitions(c)
	if !ok {
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		handleError(c, services.ErrInvalidImport)
		return
	}
	state, err := h.svc.Import(c.Request.Context(), key, data)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, state)
}
