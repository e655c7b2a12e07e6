package settlement

import (
	"context"
	"math/big"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/eth"
	"github.com/blockwork-protocol/marketplace/src/utils/task"

	"github.com/sirupsen/logrus"
)

// Read access to the escrow contract
type EscrowReader interface {
	JobCount(ctx context.Context) (*big.Int, error)
	GetJob(ctx context.Context, id *big.Int) (*eth.EscrowJob, error)
}

// Reads the job from the contract, retrying failed calls
func readJob(ctx context.Context, log *logrus.Entry, config *config.Escrow, escrow EscrowReader, id *big.Int) (job *eth.EscrowJob, err error) {
	err = task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(config.MaxElapsedTime).
		WithMaxInterval(config.MaxInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			log.WithError(err).WithField("external_id", id.String()).Warn("Failed to read escrow job, retrying")
			return err
		}).
		Run(func() error {
			callCtx, cancel := context.WithTimeout(ctx, config.CallTimeout)
			defer cancel()

			job, err = escrow.GetJob(callCtx, id)
			return err
		})
	return
}
