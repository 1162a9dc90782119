package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
)

// CatalogHandler serves the read-only growth plan. It needs no session.
type CatalogHandler struct {
	catalog *domain.Catalog
	now     func() time.Time
}

func NewCatalogHandler(catalog *domain.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, now: time.Now}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	cat := router.Group("/catalog")
	{
		cat.GET("", h.Get)
		cat.GET("/phases", h.Phases)
		cat.GET("/weeks/:week", h.Week)
		cat.GET("/tasks", h.Tasks)
		cat.GET("/habits", h.list(func(c *domain.Catalog) any { return c.DailyHabits }))
		cat.GET("/content", h.list(func(c *domain.Catalog) any { return c.WeeklyContent }))
		cat.GET("/challenges", h.list(func(c *domain.Catalog) any { return c.Challenges }))
		cat.GET("/badges", h.list(func(c *domain.Catalog) any { return c.Badges }))
		cat.GET("/levels", h.list(func(c *domain.Catalog) any { return c.Levels }))
		cat.GET("/kpis", h.list(func(c *domain.Catalog) any { return c.KPIMetrics }))
		cat.GET("/units", h.list(func(*domain.Catalog) any { return domain.GoalUnits }))
		cat.GET("/quote", h.Quote)
	}
}

func (h *CatalogHandler) Get(c *gin.Context) {
	respondOK(c, http.StatusOK, h.catalog)
}

func (h *CatalogHandler) list(pick func(*domain.Catalog) any) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, pick(h.catalog))
	}
}

func (h *CatalogHandler) Phases(c *gin.Context) {
	respondOK(c, http.StatusOK, h.catalog.Phases)
}

func (h *CatalogHandler) Week(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		handleError(c, domain.ErrInvalidWeekNumber)
		return
	}
	week, ok := h.catalog.Week(n)
	if !ok {
		handleError(c, domain.ErrInvalidWeekNumber)
		return
	}
	respondOK(c, http.StatusOK, week)
}

// Tasks filters by ?category= and ?phase=; both are optional.
func (h *CatalogHandler) Tasks(c *gin.Context) {
	if p := c.Query("phase"); p != "" {
		phase, err := strconv.Atoi(p)
		if err != nil {
			handleError(c, services.ErrPhaseNotFound)
			return
		}
		if _, ok := h.catalog.Phase(phase); !ok {
			handleError(c, services.ErrPhaseNotFound)
			return
		}
		respondOK(c, http.StatusOK, h.catalog.TasksForPhase(phase))
		return
	}
	respondOK(c, http.StatusOK, h.catalog.TasksByCategory(c.DefaultQuery("category", "all")))
}

func (h *CatalogHandler) Quote(c *gin.Context) {
	q, ok := h.catalog.QuoteFor(h.now().YearDay())
	if !ok {
		respondError(c, http.StatusNotFound, "no quotes available")
		return
	}
	respondOK(c, http.StatusOK, q)
}
