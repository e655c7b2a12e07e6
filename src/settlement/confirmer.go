package settlement

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/eth"
	"github.com/blockwork-protocol/marketplace/src/utils/logger"
	"github.com/blockwork-protocol/marketplace/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Checks settlement actions against the escrow contract state
type EscrowConfirmer struct {
	config *config.Escrow
	log    *logrus.Entry
	escrow EscrowReader
}

func NewEscrowConfirmer(config *config.Config) (self *EscrowConfirmer) {
	self = new(EscrowConfirmer)
	self.config = &config.Escrow
	self.log = logger.NewSublogger("escrow-confirmer")
	return
}

func (self *EscrowConfirmer) WithEscrow(v EscrowReader) *EscrowConfirmer {
	self.escrow = v
	return self
}

func (self *EscrowConfirmer) get(ctx context.Context, id *big.Int) (*eth.EscrowJob, error) {
	job, err := readJob(ctx, self.log, self.config, self.escrow, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read escrow job %s: %v", model.ErrSettlement, id, err)
	}

	// Missing jobs are returned as zero values
	if job.Client == (common.Address{}) {
		return nil, fmt.Errorf("%w: job %s isn't posted to the escrow", model.ErrSettlement, id)
	}
	return job, nil
}

func (self *EscrowConfirmer) ConfirmPosted(ctx context.Context, id *big.Int) error {
	_, err := self.get(ctx, id)
	return err
}

func (self *EscrowConfirmer) ConfirmAssigned(ctx context.Context, id *big.Int, wallet string) error {
	if !common.IsHexAddress(wallet) {
		return fmt.Errorf("%w: %s isn't a valid address", model.ErrSettlement, wallet)
	}

	job, err := self.get(ctx, id)
	if err != nil {
		return err
	}

	if job.Freelancer != common.HexToAddress(wallet) {
		return fmt.Errorf("%w: job %s is assigned to %s in the escrow", model.ErrSettlement, id, job.Freelancer.Hex())
	}
	return nil
}

func (self *EscrowConfirmer) ConfirmCompleted(ctx context.Context, id *big.Int) error {
	job, err := self.get(ctx, id)
	if err != nil {
		return err
	}
	if !job.IsCompleted {
		return fmt.Errorf("%w: payment for job %s isn't released", model.ErrSettlement, id)
	}
	return nil
}

func (self *EscrowConfirmer) ConfirmRefunded(ctx context.Context, id *big.Int) error {
	job, err := self.get(ctx, id)
	if err != nil {
		return err
	}
	if !job.IsRefunded {
		return fmt.Errorf("%w: job %s isn't refunded", model.ErrSettlement, id)
	}
	return nil
}

// Trusts the caller, used when the escrow isn't configured
type NopConfirmer struct{}

func (NopConfirmer) ConfirmPosted(ctx context.Context, id *big.Int) error { return nil }

func (NopConfirmer) ConfirmAssigned(ctx context.Context, id *big.Int, wallet string) error {
	return nil
}

func (NopConfirmer) ConfirmCompleted(ctx context.Context, id *big.Int) error { return nil }

func (NopConfirmer) ConfirmRefunded(ctx context.Context, id *big.Int) error { return nil }
