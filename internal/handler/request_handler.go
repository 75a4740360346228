package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/echotrack/echotrack-api/internal/dto"
	"github.com/echotrack/echotrack-api/internal/service"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
	"github.com/echotrack/echotrack-api/pkg/export"
	"github.com/echotrack/echotrack-api/pkg/response"
)

// RequestService is the surface the request handler depends on.
type RequestService interface {
	Create(ctx context.Context, payload dto.CreateRequestRequest) (*dto.CreateRequestResponse, error)
	List(ctx context.Context) ([]dto.RequestItem, error)
	MarkCompleted(ctx context.Context, id int64) error
	UndoCompleted(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	UpdateField(ctx context.Context, id int64, payload dto.UpdateFieldRequest) error
	Export(ctx context.Context, renderer service.ExportRenderer) ([]byte, error)
}

// RequestHandler exposes the echo-request lifecycle endpoints.
type RequestHandler struct {
	requests RequestService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
}

// NewRequestHandler builds the handler.
func NewRequestHandler(requests RequestService) *RequestHandler {
	return &RequestHandler{
		requests: requests,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
	}
}

// Create godoc
// @Summary Register a new echo request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateRequestRequest true "Request"
// @Success 201 {object} response.Envelope{data=dto.CreateRequestResponse}
// @Failure 400 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var payload dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	resp, err := h.requests.Create(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// List godoc
// @Summary List all echo requests in display order
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]dto.RequestItem}
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	items, err := h.requests.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Complete godoc
// @Summary Mark an echo request completed
// @Tags requests
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/complete [post]
func (h *RequestHandler) Complete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.requests.MarkCompleted(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Undo godoc
// @Summary Return a completed echo request to pending
// @Tags requests
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/undo [post]
func (h *RequestHandler) Undo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.requests.UndoCompleted(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete an echo request
// @Tags requests
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.requests.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateField godoc
// @Summary Update one editable field on an echo request
// @Tags requests
// @Accept json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param payload body dto.UpdateFieldRequest true "Field update"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/field [patch]
func (h *RequestHandler) UpdateField(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var payload dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid field payload"))
		return
	}
	if err := h.requests.UpdateField(c.Request.Context(), id, payload); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Download the raw request table
// @Tags requests
// @Produce text/csv
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /requests/export [get]
func (h *RequestHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	stamp := time.Now().Format("2006-01-02")

	var (
		data        []byte
		err         error
		contentType string
		filename    string
	)
	switch format {
	case "csv":
		data, err = h.requests.Export(c.Request.Context(), h.csv)
		contentType = "text/csv"
		filename = fmt.Sprintf("echo-requests-%s.csv", stamp)
	case "pdf":
		data, err = h.requests.Export(c.Request.Context(), pdfRenderer{h.pdf})
		contentType = "application/pdf"
		filename = fmt.Sprintf("echo-requests-%s.pdf", stamp)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// pdfRenderer adapts the titled PDF exporter to the plain renderer contract.
type pdfRenderer struct {
	exporter *export.PDFExporter
}

func (r pdfRenderer) Render(data export.Dataset) ([]byte, error) {
	return r.exporter.Render(data, "Echo Requests")
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return 0, false
	}
	return id, true
}
