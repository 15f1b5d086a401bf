package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hrops-platform/hrops-api/internal/models"
)

const jobPostingColumns = `id, job_id, requester_id, department, position_title, expected_experience, expected_doj, job_description, hardware_requirements, software_requirements, budget_approved, currency, status, priority, approved_by, approved_at, approval_comments, rejected_by, rejected_at, rejection_reason, procurement_assigned_to, procurement_assigned_at, procurement_notes, filled_by, filled_at, urgency_reason, special_instructions, created_by, version, created_at, updated_at`

// JobPostingRepository provides database access for hiring requisitions.
type JobPostingRepository struct {
	db *sqlx.DB
}

// NewJobPostingRepository creates a new instance of JobPostingRepository.
func NewJobPostingRepository(db *sqlx.DB) *JobPostingRepository {
	return &JobPostingRepository{db: db}
}

// Create inserts a requisition together with its initial history entry in one
// transaction. The jobId must already be allocated; a record is never
// persisted without one.
func (r *JobPostingRepository) Create(ctx context.Context, job *models.JobPosting, entry *models.JobWorkflowEntry) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	job.Version = 1

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create job posting: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertJob = `INSERT INTO job_postings (` + jobPostingColumns + `)
		VALUES (:id, :job_id, :requester_id, :department, :position_title, :expected_experience, :expected_doj, :job_description, :hardware_requirements, :software_requirements, :budget_approved, :currency, :status, :priority, :approved_by, :approved_at, :approval_comments, :rejected_by, :rejected_at, :rejection_reason, :procurement_assigned_to, :procurement_assigned_at, :procurement_notes, :filled_by, :filled_at, :urgency_reason, :special_instructions, :created_by, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertJob, job); err != nil {
		return fmt.Errorf("create job posting: %w", err)
	}

	if entry != nil {
		if err := insertJobWorkflowEntry(ctx, tx, job.ID, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create job posting: %w", err)
	}
	return nil
}

// FindByID returns a requisition with its ordered workflow history.
func (r *JobPostingRepository) FindByID(ctx context.Context, id string) (*models.JobPosting, error) {
	query := `SELECT ` + jobPostingColumns + ` FROM job_postings WHERE id = $1 LIMIT 1`
	var job models.JobPosting
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find job posting by id: %w", err)
	}
	if err := r.loadHistory(ctx, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// FindByJobID returns a requisition by its human-readable identifier.
func (r *JobPostingRepository) FindByJobID(ctx context.Context, jobID string) (*models.JobPosting, error) {
	query := `SELECT ` + jobPostingColumns + ` FROM job_postings WHERE job_id = $1 LIMIT 1`
	var job models.JobPosting
	if err := r.db.GetContext(ctx, &job, query, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find job posting by job id: %w", err)
	}
	if err := r.loadHistory(ctx, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobPostingRepository) loadHistory(ctx context.Context, job *models.JobPosting) error {
	const query = `SELECT id, job_posting_id, action, performed_by, performed_at, from_status, to_status, comments FROM job_workflow_history WHERE job_posting_id = $1 ORDER BY performed_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &job.WorkflowHistory, query, job.ID); err != nil {
		return fmt.Errorf("load workflow history: %w", err)
	}
	return nil
}

// List returns requisitions based on filters with total count.
func (r *JobPostingRepository) List(ctx context.Context, filter models.JobPostingFilter) ([]models.JobPosting, int, error) {
	baseQuery := `FROM job_postings WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)+1))
		args = append(args, filter.RequesterID)
	}
	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, *filter.Priority)
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.ToDate)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(job_id) LIKE $%d OR LOWER(position_title) LIKE $%d OR LOWER(department) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"job_id":       true,
		"expected_doj": true,
		"priority":     true,
		"created_at":   true,
		"updated_at":   true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", jobPostingColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list job postings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count job postings: %w", err)
	}

	return jobs, total, nil
}

// ListForProcurement returns approved requisitions ordered for the
// procurement queue.
func (r *JobPostingRepository) ListForProcurement(ctx context.Context) ([]models.JobPosting, error) {
	query := `SELECT ` + jobPostingColumns + ` FROM job_postings WHERE status = $1 ORDER BY priority ASC, expected_doj ASC`
	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, query, models.JobStatusApproved); err != nil {
		return nil, fmt.Errorf("list job postings for procurement: %w", err)
	}
	return jobs, nil
}

// ListOverdue returns open requisitions whose expected joining date passed.
func (r *JobPostingRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.JobPosting, error) {
	query := `SELECT ` + jobPostingColumns + ` FROM job_postings WHERE expected_doj < $1 AND status IN ($2, $3, $4) ORDER BY expected_doj ASC`
	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, query, now, models.JobStatusPendingApproval, models.JobStatusApproved, models.JobStatusInProcurement); err != nil {
		return nil, fmt.Errorf("list overdue job postings: %w", err)
	}
	return jobs, nil
}

// ApplyTransition persists a workflow mutation and its history entry in one
// transaction, guarded by the optimistic version check. ErrVersionConflict is
// returned when another writer got there first; nothing is written in that
// case.
func (r *JobPostingRepository) ApplyTransition(ctx context.Context, job *models.JobPosting, entry *models.JobWorkflowEntry) error {
	expectedVersion := job.Version
	job.Version++
	job.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		job.Version = expectedVersion
		return fmt.Errorf("begin job transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE job_postings SET status = :status, priority = :priority,
			approved_by = :approved_by, approved_at = :approved_at, approval_comments = :approval_comments,
			rejected_by = :rejected_by, rejected_at = :rejected_at, rejection_reason = :rejection_reason,
			procurement_assigned_to = :procurement_assigned_to, procurement_assigned_at = :procurement_assigned_at, procurement_notes = :procurement_notes,
			filled_by = :filled_by, filled_at = :filled_at,
			version = :version, updated_at = :updated_at
		WHERE id = :id AND version = :version - 1`
	res, err := tx.NamedExecContext(ctx, update, job)
	if err != nil {
		job.Version = expectedVersion
		return fmt.Errorf("update job posting: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		job.Version = expectedVersion
		return fmt.Errorf("job transition rows affected: %w", err)
	}
	if affected == 0 {
		job.Version = expectedVersion
		return ErrVersionConflict
	}

	if err := insertJobWorkflowEntry(ctx, tx, job.ID, entry); err != nil {
		job.Version = expectedVersion
		return err
	}

	if err := tx.Commit(); err != nil {
		job.Version = expectedVersion
		return fmt.Errorf("commit job transition: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry for a requisition event.
func (r *JobPostingRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return insertAuditLog(ctx, r.db, log)
}

func insertJobWorkflowEntry(ctx context.Context, tx *sqlx.Tx, jobID string, entry *models.JobWorkflowEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.JobPostingID = jobID
	const query = `INSERT INTO job_workflow_history (id, job_posting_id, action, performed_by, performed_at, from_status, to_status, comments) VALUES (:id, :job_posting_id, :action, :performed_by, :performed_at, :from_status, :to_status, :comments)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append workflow history: %w", err)
	}
	return nil
}
