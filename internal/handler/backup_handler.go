package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/echotrack/echotrack-api/internal/dto"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
	"github.com/echotrack/echotrack-api/pkg/response"
)

// BackupService is the surface the backup handler depends on.
type BackupService interface {
	List(ctx context.Context) ([]dto.BackupFile, error)
	Trigger()
	DownloadToken(filename string) (*dto.BackupDownloadResponse, error)
	ResolveToken(token string) (path, filename string, err error)
}

// BackupHandler exposes snapshot management endpoints.
type BackupHandler struct {
	backups BackupService
}

// NewBackupHandler builds the handler.
func NewBackupHandler(backups BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// List godoc
// @Summary List stored snapshots, newest first
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]dto.BackupFile}
// @Router /backups [get]
func (h *BackupHandler) List(c *gin.Context) {
	files, err := h.backups.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files)
}

// Trigger godoc
// @Summary Queue an immediate snapshot run
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Success 202 {object} response.Envelope{data=dto.BackupTriggerResponse}
// @Router /backups [post]
func (h *BackupHandler) Trigger(c *gin.Context) {
	h.backups.Trigger()
	response.JSON(c, http.StatusAccepted, dto.BackupTriggerResponse{Queued: true})
}

// Token godoc
// @Summary Issue a signed download token for a snapshot
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Param filename path string true "Snapshot filename"
// @Success 200 {object} response.Envelope{data=dto.BackupDownloadResponse}
// @Failure 404 {object} response.Envelope
// @Router /backups/{filename}/token [post]
func (h *BackupHandler) Token(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "filename required"))
		return
	}
	resp, err := h.backups.DownloadToken(filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Download godoc
// @Summary Download a snapshot using a signed token
// @Tags backups
// @Produce text/csv
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /backups/download [get]
func (h *BackupHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "download token required"))
		return
	}
	path, filename, err := h.backups.ResolveToken(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, filename)
}
