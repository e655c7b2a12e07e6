package eth

import (
	"context"
	"errors"
	"math/big"

	"github.com/blockwork-protocol/marketplace/src/utils/config"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Read-only part of the escrow contract used by the marketplace
const EscrowABI = `[
	{"type":"function","name":"jobCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"jobs","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[
		{"name":"client","type":"address"},
		{"name":"freelancer","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"isApproved","type":"bool"},
		{"name":"isCompleted","type":"bool"},
		{"name":"isRefunded","type":"bool"}
	]}
]`

var ErrUnexpectedOutput = errors.New("unexpected contract output")

// Job as stored in the escrow contract
type EscrowJob struct {
	Id          *big.Int
	Client      common.Address
	Freelancer  common.Address
	Amount      *big.Int
	IsApproved  bool
	IsCompleted bool
	IsRefunded  bool
}

func (self *EscrowJob) HasFreelancer() bool {
	return self.Freelancer != (common.Address{})
}

// Binding of the escrow contract
type Escrow struct {
	contract *bind.BoundContract
}

func NewEscrow(caller bind.ContractCaller, address common.Address, contractABI *abi.ABI) *Escrow {
	return &Escrow{
		contract: bind.NewBoundContract(address, *contractABI, caller, nil, nil),
	}
}

// Connects to the chain configured in the escrow section. ABI is downloaded from the explorer if configured.
func NewEscrowFromConfig(log *logrus.Entry, config *config.Escrow) (*Escrow, error) {
	client, err := GetEthClient(log, config.RpcUrl)
	if err != nil {
		return nil, err
	}

	var contractABI *abi.ABI
	if config.ExplorerApiUrl != "" && config.ApiKey != "" {
		contractABI, err = GetContractABI(config.ExplorerApiUrl, config.ContractAddress, config.ApiKey)
	} else {
		contractABI, err = ParseABI(EscrowABI)
	}
	if err != nil {
		return nil, err
	}

	return NewEscrow(client, common.HexToAddress(config.ContractAddress), contractABI), nil
}

// Number of jobs posted to the contract. Ids start with 1.
func (self *Escrow) JobCount(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	err := self.contract.Call(&bind.CallOpts{Context: ctx}, &out, "jobCount")
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, ErrUnexpectedOutput
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (self *Escrow) GetJob(ctx context.Context, id *big.Int) (*EscrowJob, error) {
	var out []interface{}
	err := self.contract.Call(&bind.CallOpts{Context: ctx}, &out, "jobs", id)
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, ErrUnexpectedOutput
	}

	return &EscrowJob{
		Id:          new(big.Int).Set(id),
		Client:      *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Freelancer:  *abi.ConvertType(out[1], new(common.Address)).(*common.Address),
		Amount:      *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		IsApproved:  *abi.ConvertType(out[3], new(bool)).(*bool),
		IsCompleted: *abi.ConvertType(out[4], new(bool)).(*bool),
		IsRefunded:  *abi.ConvertType(out[5], new(bool)).(*bool),
	}, nil
}
