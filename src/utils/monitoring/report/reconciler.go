package report

import (
	"go.uber.org/atomic"
)

type ReconcilerErrors struct {
	EscrowRead atomic.Uint64 `json:"escrow_read"`
	DbError    atomic.Uint64 `json:"db_error"`
	Mirror     atomic.Uint64 `json:"mirror"`
}

type ReconcilerState struct {
	Passes                atomic.Uint64 `json:"passes"`
	LastPassTimestamp     atomic.Int64  `json:"last_pass_timestamp"`
	JobsChecked           atomic.Uint64 `json:"jobs_checked"`
	CompletionsMirrored   atomic.Uint64 `json:"completions_mirrored"`
	RefundsMirrored       atomic.Uint64 `json:"refunds_mirrored"`
	ReassignmentsMirrored atomic.Uint64 `json:"reassignments_mirrored"`
}

type ReconcilerReport struct {
	State  ReconcilerState  `json:"state"`
	Errors ReconcilerErrors `json:"errors"`
}
