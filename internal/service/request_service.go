package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/echotrack/echotrack-api/internal/dto"
	"github.com/echotrack/echotrack-api/internal/models"
	"github.com/echotrack/echotrack-api/pkg/export"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
)

// RequestRepository is the persistence surface used by RequestService.
type RequestRepository interface {
	Create(ctx context.Context, req *models.EchoRequest, yearRef time.Time) error
	GetByID(ctx context.Context, id int64) (*models.EchoRequest, error)
	List(ctx context.Context) ([]models.EchoRequest, error)
	MarkCompleted(ctx context.Context, id int64, completionTime time.Time) error
	UndoCompleted(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	UpdateField(ctx context.Context, id int64, field models.RequestField, value string) error
}

// ExportRenderer turns a dataset into downloadable bytes.
type ExportRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// RequestService implements echo-request lifecycle operations.
type RequestService struct {
	repo     RequestRepository
	cal      *WorkingCalendar
	cache    *CacheService
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewRequestService builds the request service.
func NewRequestService(repo RequestRepository, cal *WorkingCalendar, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RequestService {
	return &RequestService{
		repo:     repo,
		cal:      cal,
		cache:    cache,
		validate: validate,
		logger:   logger,
		now:      cal.Now,
	}
}

const statsCachePattern = "stats:*"

// Create validates the payload, computes the working-hours deadline and
// persists the request. The display identifier is allocated by the repository
// inside the insert transaction.
func (s *RequestService) Create(ctx context.Context, payload dto.CreateRequestRequest) (*dto.CreateRequestResponse, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	pathway := models.Pathway(strings.ToUpper(strings.TrimSpace(payload.Pathway)))
	if !pathway.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown pathway %q", payload.Pathway))
	}

	requestTime, err := s.cal.ParseTimestamp(payload.RequestTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request_time")
	}

	expectedTime, err := s.cal.Deadline(pathway, requestTime)
	if err != nil {
		return nil, err
	}

	req := &models.EchoRequest{
		Pathway:      pathway,
		RequestTime:  requestTime,
		ExpectedTime: expectedTime,
		Status:       models.StatusPending,
		TriageDate:   DateOf(requestTime),
		PatientName:  strings.TrimSpace(payload.PatientName),
		MRN:          strings.TrimSpace(payload.MRN),
		Ward:         strings.TrimSpace(payload.Ward),
	}

	if err := s.repo.Create(ctx, req, s.now()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "create echo request")
	}

	s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("echo request created",
		zap.Int64("id", req.ID),
		zap.String("display_id", req.DisplayID),
		zap.String("pathway", string(req.Pathway)),
	)

	return &dto.CreateRequestResponse{ID: req.ID, DisplayID: req.DisplayID}, nil
}

// List returns all requests in display order.
func (s *RequestService) List(ctx context.Context) ([]dto.RequestItem, error) {
	requests, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "list echo requests")
	}

	s.sortForDisplay(requests, s.now())

	items := make([]dto.RequestItem, 0, len(requests))
	for i := range requests {
		items = append(items, toRequestItem(&requests[i]))
	}
	return items, nil
}

// MarkCompleted stamps the request with the current time.
func (s *RequestService) MarkCompleted(ctx context.Context, id int64) error {
	if err := s.repo.MarkCompleted(ctx, id, s.now()); err != nil {
		return s.mutationError(err, "complete echo request")
	}
	s.cache.Invalidate(ctx, statsCachePattern)
	return nil
}

// UndoCompleted returns a completed request to pending and clears its
// completion time.
func (s *RequestService) UndoCompleted(ctx context.Context, id int64) error {
	if err := s.repo.UndoCompleted(ctx, id); err != nil {
		return s.mutationError(err, "undo echo request completion")
	}
	s.cache.Invalidate(ctx, statsCachePattern)
	return nil
}

// Delete removes a request permanently.
func (s *RequestService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mutationError(err, "delete echo request")
	}
	s.cache.Invalidate(ctx, statsCachePattern)
	return nil
}

// UpdateField changes one mutable descriptive field.
func (s *RequestService) UpdateField(ctx context.Context, id int64, payload dto.UpdateFieldRequest) error {
	if err := s.validate.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid field payload")
	}
	field := models.RequestField(payload.Field)
	if !field.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %q is not editable", payload.Field))
	}
	if err := s.repo.UpdateField(ctx, id, field, payload.Value); err != nil {
		return s.mutationError(err, "update echo request field")
	}
	s.cache.Invalidate(ctx, statsCachePattern)
	return nil
}

// Export renders the raw request table, newest first, with a derived
// performance column.
func (s *RequestService) Export(ctx context.Context, renderer ExportRenderer) ([]byte, error) {
	requests, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "export echo requests")
	}

	sort.Slice(requests, func(i, j int) bool { return requests[i].ID > requests[j].ID })

	now := s.now()
	dataset := export.Dataset{
		Headers: []string{"ID", "Display ID", "Pathway", "Request Time", "Expected Time", "Status", "Completion Time", "Performance", "Notes", "Patient Name", "MRN", "Ward"},
	}
	for i := range requests {
		r := &requests[i]
		completion := ""
		if r.CompletionTime != nil {
			completion = r.CompletionTime.In(s.cal.Location()).Format("2006-01-02 15:04")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":              strconv.FormatInt(r.ID, 10),
			"Display ID":      r.DisplayID,
			"Pathway":         string(r.Pathway.Display()),
			"Request Time":    r.RequestTime.In(s.cal.Location()).Format("2006-01-02 15:04"),
			"Expected Time":   r.ExpectedTime.In(s.cal.Location()).Format("2006-01-02 15:04"),
			"Status":          string(r.Status),
			"Completion Time": completion,
			"Performance":     performanceLabel(r, now),
			"Notes":           r.Notes,
			"Patient Name":    r.PatientName,
			"MRN":             r.MRN,
			"Ward":            r.Ward,
		})
	}

	data, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render export")
	}
	return data, nil
}

func (s *RequestService) mutationError(err error, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "echo request not found")
	}
	return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, action)
}

// sortForDisplay orders requests into three tiers: pending timed requests by
// urgency, green and rejected requests by descending sequence number, and
// completed requests by most recent completion.
func (s *RequestService) sortForDisplay(requests []models.EchoRequest, now time.Time) {
	sort.SliceStable(requests, func(i, j int) bool {
		a, b := &requests[i], &requests[j]
		ta, tb := displayTier(a), displayTier(b)
		if ta != tb {
			return ta < tb
		}
		switch ta {
		case 1:
			return timeLeft(a, now) < timeLeft(b, now)
		case 2:
			return displaySeq(a.DisplayID) > displaySeq(b.DisplayID)
		default:
			return completionOf(a).After(completionOf(b))
		}
	})
}

func displayTier(r *models.EchoRequest) int {
	switch {
	case r.Pathway == models.PathwayGreen || r.Pathway == models.PathwayRejected:
		return 2
	case r.Status == models.StatusCompleted:
		return 3
	default:
		return 1
	}
}

func timeLeft(r *models.EchoRequest, now time.Time) time.Duration {
	return r.ExpectedTime.Sub(now)
}

// displaySeq extracts the numeric sequence from a "YY.NNNN" identifier.
func displaySeq(displayID string) int {
	parts := strings.SplitN(displayID, ".", 2)
	if len(parts) != 2 {
		return 0
	}
	seq, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return seq
}

func completionOf(r *models.EchoRequest) time.Time {
	if r.CompletionTime == nil {
		return time.Time{}
	}
	return *r.CompletionTime
}

// performanceLabel derives the overdue/on_time column for the raw export.
// Untimed pathways carry expected = request time, so a pending green request
// is overdue as soon as the clock moves past its creation.
func performanceLabel(r *models.EchoRequest, now time.Time) string {
	switch r.Status {
	case models.StatusCompleted:
		if r.CompletionTime != nil && r.CompletionTime.After(r.ExpectedTime) {
			return "overdue"
		}
		return "on_time"
	default:
		if r.ExpectedTime.Before(now) {
			return "overdue"
		}
		return "on_time"
	}
}

func toRequestItem(r *models.EchoRequest) dto.RequestItem {
	return dto.RequestItem{
		ID:             r.ID,
		DisplayID:      r.DisplayID,
		Pathway:        r.Pathway.Display(),
		RequestTime:    r.RequestTime,
		ExpectedTime:   r.ExpectedTime,
		Status:         r.Status,
		TriageDate:     r.TriageDate.Format("2006-01-02"),
		CompletionTime: r.CompletionTime,
		Notes:          r.Notes,
		PatientName:    r.PatientName,
		MRN:            r.MRN,
		Ward:           r.Ward,
	}
}
