package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

// Transitions of the application state machine. Each function validates the
// transition against the current job, mutates it in place and reports whether
// anything changed. Nothing is mutated when an error is returned.

func submit(job *model.Job, application model.Application, now time.Time) error {
	if job.FindApplicationById(application.ApplicantId) >= 0 {
		return fmt.Errorf("%w: applicant %s", model.ErrDuplicateApplication, application.ApplicantId)
	}

	application.Status = model.ApplicationStatusPending
	application.AppliedAt = now
	application.UpdatedAt = now
	job.Applications = append(job.Applications, application)
	return nil
}

func approve(job *model.Job, applicantId string, policy string, now time.Time) (changed bool, err error) {
	if job.IsFinalized() {
		return false, fmt.Errorf("%w: job %s", model.ErrAlreadyFinalized, job.Id)
	}

	idx := job.FindApplicationById(applicantId)
	if idx < 0 {
		return false, fmt.Errorf("%w: application of %s", model.ErrNotFound, applicantId)
	}

	switch job.Applications[idx].Status {
	case model.ApplicationStatusApproved:
		// Repeated approval
		return false, nil
	case model.ApplicationStatusPending:
	default:
		return false, fmt.Errorf("%w: %s application can't be approved", model.ErrInvalidTransition, job.Applications[idx].Status)
	}

	if other := job.FindApproved(); other >= 0 {
		return false, fmt.Errorf("%w: %s", model.ErrAlreadyApproved, job.Applications[other].ApplicantWallet)
	}

	setStatus(&job.Applications[idx], model.ApplicationStatusApproved, now)
	job.ApprovedApplicantWallet = job.Applications[idx].ApplicantWallet

	if policy == config.ApprovalPolicyDeclineOthers {
		for i := range job.Applications {
			if i != idx && job.Applications[i].Status == model.ApplicationStatusPending {
				setStatus(&job.Applications[i], model.ApplicationStatusDeclined, now)
			}
		}
	}

	return true, nil
}

func decline(job *model.Job, applicantId string, now time.Time) (changed bool, err error) {
	idx := job.FindApplicationById(applicantId)
	if idx < 0 {
		return false, fmt.Errorf("%w: application of %s", model.ErrNotFound, applicantId)
	}

	switch job.Applications[idx].Status {
	case model.ApplicationStatusDeclined:
		return false, nil
	case model.ApplicationStatusPending:
	default:
		return false, fmt.Errorf("%w: %s application can't be declined", model.ErrInvalidTransition, job.Applications[idx].Status)
	}

	setStatus(&job.Applications[idx], model.ApplicationStatusDeclined, now)
	return true, nil
}

func reassign(job *model.Job, wallet string, now time.Time) (changed bool, err error) {
	if job.IsFinalized() {
		return false, fmt.Errorf("%w: job %s", model.ErrAlreadyFinalized, job.Id)
	}

	target := job.FindApplicationByWallet(wallet)
	if target < 0 {
		return false, fmt.Errorf("%w: application from %s", model.ErrNotFound, wallet)
	}

	switch job.Applications[target].Status {
	case model.ApplicationStatusPending, model.ApplicationStatusRevoked, model.ApplicationStatusApproved:
	default:
		return false, fmt.Errorf("%w: %s application can't be reassigned", model.ErrInvalidTransition, job.Applications[target].Status)
	}

	for i := range job.Applications {
		if i != target && job.Applications[i].Status == model.ApplicationStatusApproved {
			setStatus(&job.Applications[i], model.ApplicationStatusRevoked, now)
			changed = true
		}
	}

	if job.Applications[target].Status != model.ApplicationStatusApproved {
		setStatus(&job.Applications[target], model.ApplicationStatusApproved, now)
		changed = true
	}

	if !strings.EqualFold(job.ApprovedApplicantWallet, job.Applications[target].ApplicantWallet) {
		job.ApprovedApplicantWallet = job.Applications[target].ApplicantWallet
		changed = true
	}

	return changed, nil
}

func complete(job *model.Job, now time.Time) (changed bool, err error) {
	if job.IsComplete {
		return false, fmt.Errorf("%w: job %s", model.ErrAlreadyComplete, job.Id)
	}
	if job.Status == model.JobStatusRefunded {
		return false, fmt.Errorf("%w: job %s is refunded", model.ErrAlreadyFinalized, job.Id)
	}

	idx := job.FindApproved()
	if idx < 0 {
		return false, fmt.Errorf("%w: job %s", model.ErrNoApprovedApplicant, job.Id)
	}

	setStatus(&job.Applications[idx], model.ApplicationStatusComplete, now)
	job.IsComplete = true

	// Approval is exclusive, any other approved application is a leftover
	revokeApproved(job, now)

	return true, nil
}

func refund(job *model.Job, now time.Time) (changed bool, err error) {
	if job.IsFinalized() {
		return false, fmt.Errorf("%w: job %s", model.ErrAlreadyFinalized, job.Id)
	}

	job.Status = model.JobStatusRefunded
	revokeApproved(job, now)
	return true, nil
}

func revokeApproved(job *model.Job, now time.Time) {
	for i := range job.Applications {
		if job.Applications[i].Status == model.ApplicationStatusApproved {
			setStatus(&job.Applications[i], model.ApplicationStatusRevoked, now)
		}
	}
}

func setStatus(application *model.Application, status model.ApplicationStatus, now time.Time) {
	application.Status = status
	application.UpdatedAt = now
}
