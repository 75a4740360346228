package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/echotrack/echotrack-api/internal/dto"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
	"github.com/echotrack/echotrack-api/pkg/response"
)

// StatsService is the surface the stats handler depends on.
type StatsService interface {
	DailyStats(ctx context.Context, windowDays int) (dto.DailyStatsResponse, bool, error)
	DailyOverdue(ctx context.Context, windowDays int) (dto.DailyCountResponse, bool, error)
	DailyPending(ctx context.Context, windowDays int) (dto.DailyCountResponse, bool, error)
	CurrentOverdue(ctx context.Context) (dto.OverdueCountResponse, error)
	TodayStats(ctx context.Context) (dto.TodayStatsResponse, bool, error)
	AverageCompletionTimes(ctx context.Context) (dto.AverageCompletionResponse, bool, error)
}

// StatsHandler exposes the dashboard statistics endpoints.
type StatsHandler struct {
	stats StatsService
}

// NewStatsHandler builds the handler.
func NewStatsHandler(stats StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Daily godoc
// @Summary Per-day creation and performed counts over the trailing window
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param windowDays query int false "Window size in days"
// @Success 200 {object} response.Envelope{data=dto.DailyStatsResponse}
// @Router /stats/daily [get]
func (h *StatsHandler) Daily(c *gin.Context) {
	windowDays, ok := windowDaysParam(c)
	if !ok {
		return
	}

	stats, cached, err := h.stats.DailyStats(c.Request.Context(), windowDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, cacheMeta(cached))
}

// DailyOverdue godoc
// @Summary Per-day overdue counts reconstructed over the trailing window
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param windowDays query int false "Window size in days"
// @Success 200 {object} response.Envelope{data=dto.DailyCountResponse}
// @Router /stats/overdue/daily [get]
func (h *StatsHandler) DailyOverdue(c *gin.Context) {
	windowDays, ok := windowDaysParam(c)
	if !ok {
		return
	}

	stats, cached, err := h.stats.DailyOverdue(c.Request.Context(), windowDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, cacheMeta(cached))
}

// DailyPending godoc
// @Summary Per-day pending counts reconstructed over the trailing window
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param windowDays query int false "Window size in days"
// @Success 200 {object} response.Envelope{data=dto.DailyCountResponse}
// @Router /stats/pending/daily [get]
func (h *StatsHandler) DailyPending(c *gin.Context) {
	windowDays, ok := windowDaysParam(c)
	if !ok {
		return
	}

	stats, cached, err := h.stats.DailyPending(c.Request.Context(), windowDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, cacheMeta(cached))
}

// Overdue godoc
// @Summary Current overdue request count
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=dto.OverdueCountResponse}
// @Router /stats/overdue/count [get]
func (h *StatsHandler) Overdue(c *gin.Context) {
	resp, err := h.stats.CurrentOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Today godoc
// @Summary Dashboard header summary for the current day
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=dto.TodayStatsResponse}
// @Router /stats/today [get]
func (h *StatsHandler) Today(c *gin.Context) {
	stats, cached, err := h.stats.TodayStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, cacheMeta(cached))
}

// AverageCompletion godoc
// @Summary Mean completion hours per timed pathway
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=dto.AverageCompletionResponse}
// @Router /stats/average-completion [get]
func (h *StatsHandler) AverageCompletion(c *gin.Context) {
	resp, cached, err := h.stats.AverageCompletionTimes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, cacheMeta(cached))
}

func cacheMeta(hit bool) map[string]interface{} {
	return map[string]interface{}{"cache_hit": hit}
}

// windowDaysParam reads the optional windowDays query parameter. On a bad
// value it writes the error response and reports false; absence yields zero,
// which leaves the configured window in effect.
func windowDaysParam(c *gin.Context) (int, bool) {
	raw := c.Query("windowDays")
	if raw == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 || parsed > 366 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "windowDays must be a positive number of days"))
		return 0, false
	}
	return parsed, true
}
