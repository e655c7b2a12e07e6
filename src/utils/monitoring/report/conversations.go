package report

import (
	"go.uber.org/atomic"
)

type ConversationsErrors struct {
	DbError atomic.Uint64 `json:"db_error"`
}

type ConversationsState struct {
	ConversationsCreated atomic.Uint64 `json:"conversations_created"`
	MessagesPersisted    atomic.Uint64 `json:"messages_persisted"`
	ConflictRetries      atomic.Uint64 `json:"conflict_retries"`

	AverageMessagesPerMinute atomic.Float64 `json:"average_messages_per_minute"`
}

type ConversationsReport struct {
	State  ConversationsState  `json:"state"`
	Errors ConversationsErrors `json:"errors"`
}
