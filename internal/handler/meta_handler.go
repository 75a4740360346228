package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/echotrack/echotrack-api/pkg/response"
)

// MetaHandler serves reference data and liveness probes.
type MetaHandler struct {
	db      *sqlx.DB
	redis   *redis.Client
	wards   []string
	started time.Time
}

// NewMetaHandler builds the handler.
func NewMetaHandler(db *sqlx.DB, redisClient *redis.Client, wards []string) *MetaHandler {
	return &MetaHandler{
		db:      db,
		redis:   redisClient,
		wards:   wards,
		started: time.Now(),
	}
}

// Wards godoc
// @Summary List the configured ward options
// @Tags meta
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /meta/wards [get]
func (h *MetaHandler) Wards(c *gin.Context) {
	wards := h.wards
	if wards == nil {
		wards = []string{}
	}
	response.JSON(c, http.StatusOK, gin.H{"wards": wards})
}

// Health godoc
// @Summary Service health including backing stores
// @Tags meta
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *MetaHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK
	checks := gin.H{"database": "ok", "redis": "ok"}

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}
	if h.redis == nil {
		checks["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unreachable"
	}

	response.JSON(c, status, gin.H{
		"status": checks,
		"uptime": time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Ready godoc
// @Summary Readiness probe, fails until the database accepts queries
// @Tags meta
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ready [get]
func (h *MetaHandler) Ready(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		response.JSON(c, http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"ready": true})
}
