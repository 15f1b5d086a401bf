package workflow

import "github.com/hrops-platform/hrops-api/internal/models"

// JobPostingMachine is the workflow engine instantiated for requisitions.
type JobPostingMachine = Machine[models.JobPosting, models.JobPostingStatus, models.JobPostingAction]

// NewJobPostingMachine builds the requisition transition table. filled and
// cancelled are terminal; reject returns the requisition to draft for
// revision, keeping the reason in history.
func NewJobPostingMachine() *JobPostingMachine {
	cancellable := []models.JobPostingStatus{
		models.JobStatusDraft,
		models.JobStatusPendingApproval,
		models.JobStatusApproved,
		models.JobStatusInProcurement,
	}

	transitions := []Transition[models.JobPostingStatus, models.JobPostingAction]{
		{From: models.JobStatusDraft, Action: models.JobActionSubmit, To: models.JobStatusPendingApproval},
		{From: models.JobStatusPendingApproval, Action: models.JobActionApprove, To: models.JobStatusApproved},
		{From: models.JobStatusPendingApproval, Action: models.JobActionReject, To: models.JobStatusDraft},
		{From: models.JobStatusApproved, Action: models.JobActionAssignProcurement, To: models.JobStatusInProcurement},
		{From: models.JobStatusInProcurement, Action: models.JobActionFill, To: models.JobStatusFilled},
	}
	for _, from := range cancellable {
		transitions = append(transitions, Transition[models.JobPostingStatus, models.JobPostingAction]{
			From: from, Action: models.JobActionCancel, To: models.JobStatusCancelled,
		})
	}

	guards := map[models.JobPostingAction]Guard{
		models.JobActionSubmit:            func(a Actor) bool { return a.Permissions.CanCreateJobs },
		models.JobActionApprove:           func(a Actor) bool { return a.Permissions.CanApproveJobs },
		models.JobActionReject:            func(a Actor) bool { return a.Permissions.CanApproveJobs },
		models.JobActionAssignProcurement: func(a Actor) bool { return a.Permissions.CanAccessProcurement || a.Permissions.CanApproveJobs },
		models.JobActionFill:              func(a Actor) bool { return a.Permissions.CanAccessProcurement },
		models.JobActionCancel:            func(a Actor) bool { return a.Permissions.CanCreateJobs || a.Permissions.CanApproveJobs },
	}

	effects := map[models.JobPostingAction]Effect[models.JobPosting]{
		models.JobActionApprove: func(j *models.JobPosting, c Change) {
			actor := c.Actor.ID
			at := c.At
			j.ApprovedBy = &actor
			j.ApprovedAt = &at
			j.ApprovalComments = c.Comments
		},
		models.JobActionReject: func(j *models.JobPosting, c Change) {
			actor := c.Actor.ID
			at := c.At
			j.RejectedBy = &actor
			j.RejectedAt = &at
			j.RejectionReason = c.Comments
		},
		models.JobActionAssignProcurement: func(j *models.JobPosting, c Change) {
			at := c.At
			assignee := c.Target
			if assignee == "" {
				assignee = c.Actor.ID
			}
			j.ProcurementAssignedTo = &assignee
			j.ProcurementAssignedAt = &at
			j.ProcurementNotes = c.Comments
		},
		models.JobActionFill: func(j *models.JobPosting, c Change) {
			at := c.At
			if c.Target != "" {
				filledBy := c.Target
				j.FilledBy = &filledBy
			}
			j.FilledAt = &at
		},
	}

	return New(Config[models.JobPosting, models.JobPostingStatus, models.JobPostingAction]{
		Describe: func(j *models.JobPosting) string { return j.JobID },
		State:    func(j *models.JobPosting) models.JobPostingStatus { return j.Status },
		SetState: func(j *models.JobPosting, s models.JobPostingStatus) { j.Status = s },
		Transitions: transitions,
		Guards:      guards,
		Effects:     effects,
	})
}
