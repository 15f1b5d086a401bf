package models

import "time"

// JobPostingStatus enumerates the requisition lifecycle states.
type JobPostingStatus string

const (
	JobStatusDraft           JobPostingStatus = "draft"
	JobStatusPendingApproval JobPostingStatus = "pending_approval"
	JobStatusApproved        JobPostingStatus = "approved"
	JobStatusInProcurement   JobPostingStatus = "in_procurement"
	JobStatusFilled          JobPostingStatus = "filled"
	JobStatusCancelled       JobPostingStatus = "cancelled"
)

// JobPostingAction enumerates workflow actions on a requisition.
type JobPostingAction string

const (
	JobActionSubmit            JobPostingAction = "submit"
	JobActionApprove           JobPostingAction = "approve"
	JobActionReject            JobPostingAction = "reject"
	JobActionAssignProcurement JobPostingAction = "assignProcurement"
	JobActionFill              JobPostingAction = "fill"
	JobActionCancel            JobPostingAction = "cancel"
)

// JobPriority ranks requisition urgency.
type JobPriority string

const (
	JobPriorityLow    JobPriority = "low"
	JobPriorityMedium JobPriority = "medium"
	JobPriorityHigh   JobPriority = "high"
	JobPriorityUrgent JobPriority = "urgent"
)

// JobPosting represents a hiring requisition stored in the job_postings table.
// JobID is immutable once assigned by the identifier allocator.
type JobPosting struct {
	ID                 string           `db:"id" json:"id"`
	JobID              string           `db:"job_id" json:"jobId"`
	RequesterID        string           `db:"requester_id" json:"requesterId"`
	Department         string           `db:"department" json:"department"`
	PositionTitle      string           `db:"position_title" json:"positionTitle"`
	ExpectedExperience string           `db:"expected_experience" json:"expectedExperience,omitempty"`
	ExpectedDoj        time.Time        `db:"expected_doj" json:"expectedDoj"`
	JobDescription     string           `db:"job_description" json:"jobDescription"`
	HardwareReqs       string           `db:"hardware_requirements" json:"hardwareRequirements,omitempty"`
	SoftwareReqs       string           `db:"software_requirements" json:"softwareRequirements,omitempty"`
	BudgetApproved     *float64         `db:"budget_approved" json:"budgetApproved,omitempty"`
	Currency           string           `db:"currency" json:"currency"`
	Status             JobPostingStatus `db:"status" json:"status"`
	Priority           JobPriority      `db:"priority" json:"priority"`

	ApprovedBy       *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovalComments string     `db:"approval_comments" json:"approvalComments,omitempty"`

	RejectedBy      *string    `db:"rejected_by" json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `db:"rejected_at" json:"rejectedAt,omitempty"`
	RejectionReason string     `db:"rejection_reason" json:"rejectionReason,omitempty"`

	ProcurementAssignedTo *string    `db:"procurement_assigned_to" json:"procurementAssignedTo,omitempty"`
	ProcurementAssignedAt *time.Time `db:"procurement_assigned_at" json:"procurementAssignedAt,omitempty"`
	ProcurementNotes      string     `db:"procurement_notes" json:"procurementNotes,omitempty"`

	FilledBy *string    `db:"filled_by" json:"filledBy,omitempty"`
	FilledAt *time.Time `db:"filled_at" json:"filledAt,omitempty"`

	UrgencyReason       string `db:"urgency_reason" json:"urgencyReason,omitempty"`
	SpecialInstructions string `db:"special_instructions" json:"specialInstructions,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	WorkflowHistory []JobWorkflowEntry `db:"-" json:"workflowHistory,omitempty"`
}

// JobWorkflowEntry is an immutable audit entry appended on every status change.
type JobWorkflowEntry struct {
	ID           string           `db:"id" json:"id"`
	JobPostingID string           `db:"job_posting_id" json:"-"`
	Action       string           `db:"action" json:"action"`
	PerformedBy  string           `db:"performed_by" json:"performedBy"`
	PerformedAt  time.Time        `db:"performed_at" json:"performedAt"`
	FromStatus   JobPostingStatus `db:"from_status" json:"fromStatus"`
	ToStatus     JobPostingStatus `db:"to_status" json:"toStatus"`
	Comments     string           `db:"comments" json:"comments,omitempty"`
}

// IsTerminal reports whether no further workflow actions apply.
func (s JobPostingStatus) IsTerminal() bool {
	return s == JobStatusFilled || s == JobStatusCancelled
}

// DaysUntilDoj returns the whole days remaining until the expected joining date.
func (j *JobPosting) DaysUntilDoj(now time.Time) int {
	return int(j.ExpectedDoj.Sub(now).Hours() / 24)
}

// IsOverdue reports whether the expected joining date passed while the
// requisition is still open.
func (j *JobPosting) IsOverdue(now time.Time) bool {
	if j.Status.IsTerminal() {
		return false
	}
	return j.ExpectedDoj.Before(now)
}

// JobPostingFilter captures listing criteria for requisitions.
type JobPostingFilter struct {
	Status      *JobPostingStatus
	Department  string
	RequesterID string
	Priority    *JobPriority
	FromDate    *time.Time
	ToDate      *time.Time
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
