package model

import "time"

// Status values are stored as they were historically written
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "Pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusDeclined ApplicationStatus = "declined"
	ApplicationStatusRevoked  ApplicationStatus = "revoked"
	ApplicationStatusComplete ApplicationStatus = "complete"
)

// Freelancer's application to a job
type Application struct {
	ApplicantId     string            `json:"applicantId"`
	ApplicantName   string            `json:"applicantName"`
	CoverLetter     string            `json:"coverLetter"`
	ApplicantWallet string            `json:"applicantWallet"`
	Status          ApplicationStatus `json:"status"`
	AppliedAt       time.Time         `json:"appliedAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}
