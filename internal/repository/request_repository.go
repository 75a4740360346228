package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/echotrack/echotrack-api/internal/models"
)

// advisoryLockClass namespaces the advisory lock taken while allocating
// display IDs, so unrelated locks on the same database never collide.
const advisoryLockClass = 7201

// RequestRepository handles persistence for echo requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, display_id, pathway, request_time, expected_time, status, triage_date, completion_time, notes, patient_name, mrn, ward, created_at, updated_at`

// Create inserts the request, allocating the next display ID for the year of
// yearRef. The allocation runs under a transaction-scoped advisory lock so
// concurrent creates can never be handed the same sequence number.
func (r *RequestRepository) Create(ctx context.Context, req *models.EchoRequest, yearRef time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback() //nolint:errcheck
		}
	}()

	year := yearRef.Year() % 100
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, advisoryLockClass, year); err != nil {
		return fmt.Errorf("acquire display id lock: %w", err)
	}

	var lastSeq int
	seqQuery := `SELECT COALESCE(MAX(CAST(split_part(display_id, '.', 2) AS INTEGER)), 0) FROM echo_requests WHERE display_id LIKE $1`
	if err := tx.GetContext(ctx, &lastSeq, seqQuery, fmt.Sprintf("%02d.%%", year)); err != nil {
		return fmt.Errorf("read last display id: %w", err)
	}
	req.DisplayID = fmt.Sprintf("%02d.%04d", year, lastSeq+1)

	now := time.Now().UTC()
	req.Status = models.StatusPending
	req.CreatedAt = now
	req.UpdatedAt = now

	insert := `INSERT INTO echo_requests (display_id, pathway, request_time, expected_time, status, triage_date, notes, patient_name, mrn, ward, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`
	if err := tx.GetContext(ctx, &req.ID, insert,
		req.DisplayID, req.Pathway, req.RequestTime, req.ExpectedTime, req.Status,
		req.TriageDate, req.Notes, req.PatientName, req.MRN, req.Ward,
		req.CreatedAt, req.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert echo request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create request: %w", err)
	}
	committed = true
	return nil
}

// GetByID returns a single request.
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*models.EchoRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM echo_requests WHERE id = $1`, requestColumns)
	var req models.EchoRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get echo request: %w", err)
	}
	return &req, nil
}

// List returns every request ordered by id. Display ordering is applied by
// the request service.
func (r *RequestRepository) List(ctx context.Context) ([]models.EchoRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM echo_requests ORDER BY id`, requestColumns)
	var rows []models.EchoRequest
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list echo requests: %w", err)
	}
	return rows, nil
}

// MarkCompleted records a completion timestamp and flips the status.
func (r *RequestRepository) MarkCompleted(ctx context.Context, id int64, completionTime time.Time) error {
	query := `UPDATE echo_requests SET status = $2, completion_time = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.StatusCompleted, completionTime, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return requireRow(res)
}

// UndoCompleted reverts a request to pending and clears the completion time.
// Reverting an already-pending request is a no-op but still requires the row
// to exist.
func (r *RequestRepository) UndoCompleted(ctx context.Context, id int64) error {
	query := `UPDATE echo_requests SET status = $2, completion_time = NULL, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.StatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("undo completed: %w", err)
	}
	return requireRow(res)
}

// Delete removes the row permanently.
func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM echo_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete echo request: %w", err)
	}
	return requireRow(res)
}

// UpdateField sets one mutable descriptive column. The field has been
// validated by the service, so it maps directly onto a column name.
func (r *RequestRepository) UpdateField(ctx context.Context, id int64, field models.RequestField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("unsupported field %q", field)
	}
	query := fmt.Sprintf(`UPDATE echo_requests SET %s = $2, updated_at = $3 WHERE id = $1`, string(field))
	res, err := r.db.ExecContext(ctx, query, id, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
