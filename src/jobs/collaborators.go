package jobs

import (
	"context"
	"math/big"

	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

// Checks that a settlement action already happened in the escrow contract.
// Every failure is reported as model.ErrSettlement.
type Confirmer interface {
	ConfirmPosted(ctx context.Context, externalId *big.Int) error
	ConfirmAssigned(ctx context.Context, externalId *big.Int, wallet string) error
	ConfirmCompleted(ctx context.Context, externalId *big.Int) error
	ConfirmRefunded(ctx context.Context, externalId *big.Int) error
}

// Creates the conversation between the client and the approved freelancer
type ConversationEnsurer interface {
	Ensure(ctx context.Context, jobId string, participants ...string) (*model.Conversation, error)
}
