package conversations

import (
	"context"

	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

// Persistence of conversations, one per job
type Store interface {
	// Fails with model.ErrConflict when the job already has a conversation
	Create(ctx context.Context, conversation *model.Conversation) error

	Get(ctx context.Context, jobId string) (*model.Conversation, error)

	// Writes the conversation only if the stored version equals expectedVersion, fails with model.ErrConflict otherwise
	Update(ctx context.Context, conversation *model.Conversation, expectedVersion int64) error

	// Last message of every conversation, newest first
	Summaries(ctx context.Context) ([]*model.ConversationSummary, error)
}
