package report

import (
	"go.uber.org/atomic"
)

type JobsErrors struct {
	DbError           atomic.Uint64 `json:"db_error"`
	SettlementError   atomic.Uint64 `json:"settlement_error"`
	ConversationError atomic.Uint64 `json:"conversation_error"`
}

type JobsState struct {
	JobsCreated           atomic.Uint64 `json:"jobs_created"`
	ApplicationsSubmitted atomic.Uint64 `json:"applications_submitted"`
	ApplicationsApproved  atomic.Uint64 `json:"applications_approved"`
	ApplicationsDeclined  atomic.Uint64 `json:"applications_declined"`
	Reassignments         atomic.Uint64 `json:"reassignments"`
	JobsCompleted         atomic.Uint64 `json:"jobs_completed"`
	JobsRefunded          atomic.Uint64 `json:"jobs_refunded"`
	ConflictRetries       atomic.Uint64 `json:"conflict_retries"`
}

type JobsReport struct {
	State  JobsState  `json:"state"`
	Errors JobsErrors `json:"errors"`
}
