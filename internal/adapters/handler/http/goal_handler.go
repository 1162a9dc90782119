package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
)

type GoalHandler struct {
	svc *services.GoalService
}

func NewGoalHandler(svc *services.GoalService) *GoalHandler {
	return &GoalHandler{svc: svc}
}

type progressRequest struct {
	Current *float64 `json:"current" binding:"required"`
}

type onboardingStepRequest struct {
	Step *int `json:"step" binding:"required"`
}

func (h *GoalHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/goals")
	{
		g.GET("", h.Overview)
		g.GET("/primary", h.Primary)
		g.GET("/all", h.All)

		g.GET("/slots/:type", h.GetSlot)
		g.PUT("/slots/:type", h.SetSlot)
		g.DELETE("/slots/:type", h.DeleteSlot)
		g.PUT("/slots/:type/progress", h.UpdateProgress)
		g.POST("/slots/:type/increment", h.Increment)

		g.GET("/custom", h.ListCustom)
		g.POST("/custom", h.AddCustom)
		g.PATCH("/custom/:id", h.UpdateCustom)
		g.DELETE("/custom/:id", h.DeleteCustom)

		g.PUT("/onboarding/step", h.SetOnboardingStep)
		g.POST("/onboarding/complete", h.CompleteOnboarding)
		g.POST("/onboarding/skip", h.SkipOnboarding)

		g.POST("/reset", h.Reset)
		g.GET("/export", h.Export)
	}
}

// slot reads the goal type from the path and the quarter from ?quarter=,
// which only quarterly goals use.
func slot(c *gin.Context) (domain.GoalType, domain.Quarter) {
	return domain.GoalType(c.Param("type")), domain.Quarter(c.Query("quarter"))
}

func (h *GoalHandler) Overview(c *gin.Context) {
	_, key, ok := partitions(c)
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

func (h *GoalHandler) Primary(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	goal, err := h.svc.PrimaryGoal(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, goal)
}

func (h *GoalHandler) All(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	goals, err := h.svc.AllGoals(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, goals)
}

func (h *GoalHandler) GetSlot(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	t, q := slot(c)
	goal, err := h.svc.Goal(c.Request.Context(), key, t, q)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, goal)
}

func (h *GoalHandler) SetSlot(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	var input services.GoalInput
	if !bindJSON(c, &input) {
		return
	}
	t, q := slot(c)
	goal, err := h.svc.SetGoal(c.Request.Context(), key, t, q, input)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, goal)
}

func (h *GoalHandler) DeleteSlot(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	t, q := slot(c)
	if err := h.svc.DeleteGoal(c.Request.Context(), key, t, q); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GoalHandler) UpdateProgress(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	var req progressRequest
	if !bindJSON(c, &req) {
		return
	}
	t, q := slot(c)
	goal, err := h.svc.UpdateProgress(c.Request.Context(), key, t, q, *req.Current)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, goal)
}

func (h *GoalHandler) Increment(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	t, q := slot(c)
	goal, err := h.svc.IncrementProgress(c.Request.Context(), key, t, q)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, goal)
}

func (h *GoalHandler) ListCustom(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	goals, err := h.svc.CustomGoals(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, goals)
}

func (h *GoalHandler) AddCustom(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	var input services.GoalInput
	if !bindJSON(c, &input) {
		return
	}
	goal, err := h.svc.AddCustomGoal(c.Request.Context(), key, input)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, goal)
}

func (h *GoalHandler) UpdateCustom(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	var patch domain.GoalPatch
	if !bindJSON(c, &patch) {
		return
	}
	goal, err := h.svc.UpdateCustomGoal(c.Request.Context(), key, c.Param("id"), patch)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, goal)
}

func (h *GoalHandler) DeleteCustom(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomGoal(c.Request.Context(), key, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GoalHandler) SetOnboardingStep(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	var req onboardingStepRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := h.svc.SetOnboardingStep(c.Request.Context(), key, *req.Step)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, status)
}

func (h *GoalHandler) CompleteOnboarding(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	status, err := h.svc.CompleteOnboarding(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, status)
}

func (h *GoalHandler) SkipOnboarding(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	status, err := h.svc.SkipOnboarding(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, status)
}

func (h *GoalHandler) Reset(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	if err := h.svc.Reset(c.Request.Context(), key); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GoalHandler) Export(c *gin.Context) {
	_, key, ok := partitions(c)
	if !ok {
		return
	}
	data, err := h.svc.Export(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="goals.json"`)
	c.Data(http.StatusOK, "application/json", data)
}
