package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	TableJob = "jobs"
)

type JobStatus string

const (
	JobStatusOngoing  JobStatus = "ongoing"
	JobStatusRefunded JobStatus = "refunded"
)

type JobType string

const (
	JobTypeHourly     JobType = "Hourly"
	JobTypeFixedPrice JobType = "Fixed-Price"
)

func (self JobType) IsValid() bool {
	return self == JobTypeHourly || self == JobTypeFixedPrice
}

type ExperienceLevel string

const (
	ExperienceLevelEntry        ExperienceLevel = "Entry Level"
	ExperienceLevelIntermediate ExperienceLevel = "Intermediate"
	ExperienceLevelExpert       ExperienceLevel = "Expert"
)

func (self ExperienceLevel) IsValid() bool {
	switch self {
	case ExperienceLevelEntry, ExperienceLevelIntermediate, ExperienceLevelExpert:
		return true
	}
	return false
}

// Posted unit of work with its embedded applications
type Job struct {
	Id               string          `gorm:"primaryKey" json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Budget           float64         `json:"budget"`
	Skills           pq.StringArray  `gorm:"type:text[]" json:"skills"`
	JobType          JobType         `json:"jobType"`
	ExperienceLevel  ExperienceLevel `json:"experienceLevel"`
	Responsibilities pq.StringArray  `gorm:"type:text[]" json:"responsibilities"`
	Requirements     pq.StringArray  `gorm:"type:text[]" json:"requirements"`
	Logo             string          `json:"logo"`
	Banner           string          `json:"banner"`
	ClientLocation   string          `json:"clientLocation"`
	PaymentVerified  bool            `json:"paymentVerified"`

	// Wallet of the client who posted the job
	PosterWallet string `json:"posterWallet"`

	// Job id in the escrow contract, decimal
	SmartContractJobId string `json:"smartContractJobId"`

	Status     JobStatus `json:"status"`
	IsComplete bool      `json:"isComplete"`

	// Wallet of the applicant whose application is approved, empty if none
	ApprovedApplicantWallet string `json:"approvedApplicantWallet"`

	Applications JSONList[Application] `gorm:"type:jsonb" json:"applications"`

	// Incremented on every update, used for optimistic concurrency
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Job) TableName() string {
	return TableJob
}

// Complete or refunded jobs don't change anymore
func (self *Job) IsFinalized() bool {
	return self.IsComplete || self.Status == JobStatusRefunded
}

// Index of the application submitted by the user, -1 if there's none
func (self *Job) FindApplicationById(applicantId string) int {
	for i := range self.Applications {
		if self.Applications[i].ApplicantId == applicantId {
			return i
		}
	}
	return -1
}

// Index of the application submitted from the wallet, -1 if there's none
func (self *Job) FindApplicationByWallet(wallet string) int {
	for i := range self.Applications {
		if strings.EqualFold(self.Applications[i].ApplicantWallet, wallet) {
			return i
		}
	}
	return -1
}

// Index of the first approved application, -1 if there's none
func (self *Job) FindApproved() int {
	for i := range self.Applications {
		if self.Applications[i].Status == ApplicationStatusApproved {
			return i
		}
	}
	return -1
}

// Deep copy, safe to modify
func (self *Job) Clone() *Job {
	out := *self
	out.Skills = cloneStrings(self.Skills)
	out.Responsibilities = cloneStrings(self.Responsibilities)
	out.Requirements = cloneStrings(self.Requirements)
	if self.Applications != nil {
		out.Applications = make(JSONList[Application], len(self.Applications))
		copy(out.Applications, self.Applications)
	}
	return &out
}

func cloneStrings(in pq.StringArray) pq.StringArray {
	if in == nil {
		return nil
	}
	out := make(pq.StringArray, len(in))
	copy(out, in)
	return out
}
