package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
)

var errPartitionMissing = errors.New("user context missing")

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

var badRequest = []error{
	domain.ErrFieldsRequired,
	domain.ErrPasswordTooShort,
	domain.ErrPasswordTooLong,
	domain.ErrNewPasswordTooShort,
	domain.ErrCurrentPasswordIncorrect,
	domain.ErrInvalidEmail,
	domain.ErrInvalidGoalType,
	domain.ErrInvalidQuarter,
	domain.ErrInvalidGoalTarget,
	domain.ErrInvalidGoalDeadline,
	domain.ErrKPIMonthOutOfRange,
	domain.ErrInvalidTheme,
	domain.ErrInvalidStartDate,
	domain.ErrInvalidWeekNumber,
	services.ErrUnknownItem,
	services.ErrInvalidPoints,
	services.ErrInvalidImport,
}

var notFound = []error{
	domain.ErrUserNotFound,
	domain.ErrGoalNotFound,
	domain.ErrUnknownKPIMetric,
	services.ErrPhaseNotFound,
}

func matches(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleError maps domain errors to status codes. Their messages are meant for
// end users; anything unexpected is logged and hidden.
func handleError(c *gin.Context, err error) {
	switch {
	case matches(err, badRequest):
		respondError(c, http.StatusBadRequest, err.Error())
	case matches(err, notFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNotLoggedIn):
		respondError(c, http.StatusUnauthorized, err.Error())
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func partitions(c *gin.Context) (string, string, bool) {
	progressKey, goalsKey, ok := middleware.GetPartitions(c)
	if !ok {
		_ = c.Error(errPartitionMissing)
		respondError(c, http.StatusInternalServerError, errPartitionMissing.Error())
	}
	return progressKey, goalsKey, ok
}

// bindOptionalJSON accepts an empty body as the zero value.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
