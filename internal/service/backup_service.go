package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/echotrack/echotrack-api/internal/dto"
	"github.com/echotrack/echotrack-api/internal/models"
	"github.com/echotrack/echotrack-api/pkg/config"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
	"github.com/echotrack/echotrack-api/pkg/export"
	"github.com/echotrack/echotrack-api/pkg/jobs"
	"github.com/echotrack/echotrack-api/pkg/storage"
)

// backupPrefix names snapshot files; the timestamp suffix keeps them sortable.
const backupPrefix = "BACKUP-ECHO-IN-TRACK-"

const jobTypeSnapshot = "snapshot"

// RequestLister provides the rows included in a snapshot.
type RequestLister interface {
	List(ctx context.Context) ([]models.EchoRequest, error)
}

// BackupService writes nightly CSV snapshots of the request table, prunes old
// ones, and issues signed download tokens for the survivors.
type BackupService struct {
	requests RequestLister
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	csv      *export.CSVExporter
	metrics  *MetricsService
	logger   *zap.Logger
	cal      *WorkingCalendar

	queue      *jobs.Queue
	maxBackups int
	enabled    bool
	now        func() time.Time
}

// NewBackupService builds the backup service and its job queue.
func NewBackupService(requests RequestLister, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, cal *WorkingCalendar, cfg config.BackupConfig) *BackupService {
	s := &BackupService{
		requests:   requests,
		store:      store,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		metrics:    metrics,
		logger:     logger,
		cal:        cal,
		maxBackups: cfg.MaxBackups,
		enabled:    cfg.Enabled,
		now:        cal.Now,
	}
	s.queue = jobs.NewQueue("backups", s.handleJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: time.Minute,
		Logger:     logger,
	})
	return s
}

// Start launches the queue and the midnight scheduler, then queues a catch-up
// snapshot if none was taken today or yesterday.
func (s *BackupService) Start(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.queue.Start(ctx)
	go s.scheduleLoop(ctx)

	recent, err := s.hasRecentSnapshot()
	if err != nil {
		s.logger.Warn("backup freshness check failed", zap.Error(err))
		return
	}
	if !recent {
		s.logger.Info("no recent backup found, queueing catch-up snapshot")
		s.Trigger()
	}
}

// Stop drains the queue workers.
func (s *BackupService) Stop() {
	if !s.enabled {
		return
	}
	s.queue.Stop()
}

// Trigger queues a snapshot run.
func (s *BackupService) Trigger() {
	if !s.enabled {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: jobTypeSnapshot}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Error("failed to queue snapshot", zap.Error(err))
	}
}

// Snapshot writes one CSV snapshot and prunes beyond the retention limit.
func (s *BackupService) Snapshot(ctx context.Context) (string, error) {
	requests, err := s.requests.List(ctx)
	if err != nil {
		s.metrics.RecordBackupRun("failure")
		return "", fmt.Errorf("load requests: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"id", "display_id", "pathway", "request_time", "expected_time", "status", "triage_date", "completion_time", "notes", "patient_name", "mrn", "ward"},
	}
	loc := s.cal.Location()
	for i := range requests {
		r := &requests[i]
		completion := ""
		if r.CompletionTime != nil {
			completion = r.CompletionTime.In(loc).Format(time.RFC3339)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"id":              strconv.FormatInt(r.ID, 10),
			"display_id":      r.DisplayID,
			"pathway":         string(r.Pathway),
			"request_time":    r.RequestTime.In(loc).Format(time.RFC3339),
			"expected_time":   r.ExpectedTime.In(loc).Format(time.RFC3339),
			"status":          string(r.Status),
			"triage_date":     r.TriageDate.Format("2006-01-02"),
			"completion_time": completion,
			"notes":           r.Notes,
			"patient_name":    r.PatientName,
			"mrn":             r.MRN,
			"ward":            r.Ward,
		})
	}

	data, err := s.csv.Render(dataset)
	if err != nil {
		s.metrics.RecordBackupRun("failure")
		return "", fmt.Errorf("render snapshot: %w", err)
	}

	filename := backupPrefix + s.now().Format("2006-01-02-15-04") + ".csv"
	if _, err := s.store.Save(filename, data); err != nil {
		s.metrics.RecordBackupRun("failure")
		return "", fmt.Errorf("store snapshot: %w", err)
	}

	deleted, err := s.store.PruneByPrefix(backupPrefix, s.maxBackups)
	if err != nil {
		s.logger.Warn("backup pruning failed", zap.Error(err))
	} else if len(deleted) > 0 {
		s.logger.Info("pruned old backups", zap.Strings("deleted", deleted))
	}

	s.metrics.RecordBackupRun("success")
	s.logger.Info("snapshot written", zap.String("filename", filename), zap.Int("rows", len(dataset.Rows)))
	return filename, nil
}

// List returns stored snapshots, newest first.
func (s *BackupService) List(ctx context.Context) ([]dto.BackupFile, error) {
	files, err := s.store.ListByPrefix(backupPrefix)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "list backups")
	}
	result := make([]dto.BackupFile, 0, len(files))
	for _, f := range files {
		result = append(result, dto.BackupFile{Filename: f.Name, SizeBytes: f.Size, Modified: f.Modified})
	}
	return result, nil
}

// DownloadToken issues a signed token for one stored snapshot.
func (s *BackupService) DownloadToken(filename string) (*dto.BackupDownloadResponse, error) {
	if !strings.HasPrefix(filename, backupPrefix) || strings.ContainsAny(filename, "/\\") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown backup file")
	}
	files, err := s.store.ListByPrefix(backupPrefix)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "list backups")
	}
	found := false
	for _, f := range files {
		if f.Name == filename {
			found = true
			break
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "backup not found")
	}

	token, expiresAt, err := s.signer.Generate(filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign download token")
	}
	return &dto.BackupDownloadResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// ResolveToken validates a download token and returns the file's path and name.
func (s *BackupService) ResolveToken(token string) (path, filename string, err error) {
	filename, err = s.signer.Parse(token)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	if !strings.HasPrefix(filename, backupPrefix) || strings.ContainsAny(filename, "/\\") {
		return "", "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	return s.store.Path(filename), filename, nil
}

func (s *BackupService) handleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypeSnapshot:
		_, err := s.Snapshot(ctx)
		return err
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

// hasRecentSnapshot reports whether a snapshot dated today or yesterday exists.
func (s *BackupService) hasRecentSnapshot() (bool, error) {
	files, err := s.store.ListByPrefix(backupPrefix)
	if err != nil {
		return false, err
	}
	today := s.now().Format("2006-01-02")
	yesterday := s.now().AddDate(0, 0, -1).Format("2006-01-02")
	for _, f := range files {
		if strings.HasPrefix(f.Name, backupPrefix+today) || strings.HasPrefix(f.Name, backupPrefix+yesterday) {
			return true, nil
		}
	}
	return false, nil
}

// scheduleLoop queues one snapshot at every reference-timezone midnight.
func (s *BackupService) scheduleLoop(ctx context.Context) {
	for {
		now := s.now()
		next := DateOf(now).AddDate(0, 0, 1)
		nextLocal := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, s.cal.Location())
		timer := time.NewTimer(nextLocal.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Trigger()
		}
	}
}
