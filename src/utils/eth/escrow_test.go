package eth

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestEscrowTestSuite(t *testing.T) {
	suite.Run(t, new(EscrowTestSuite))
}

type EscrowTestSuite struct {
	suite.Suite
	ctx    context.Context
	abi    *abi.ABI
	caller *fakeCaller
	escrow *Escrow
}

// Answers contract calls from an in-memory list of jobs
type fakeCaller struct {
	abi  *abi.ABI
	jobs map[int64]*EscrowJob
}

func (self *fakeCaller) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (self *fakeCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	method, err := self.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "jobCount":
		return method.Outputs.Pack(big.NewInt(int64(len(self.jobs))))
	case "jobs":
		args, err := method.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		job, ok := self.jobs[args[0].(*big.Int).Int64()]
		if !ok {
			job = &EscrowJob{Amount: big.NewInt(0)}
		}
		return method.Outputs.Pack(job.Client, job.Freelancer, job.Amount, job.IsApproved, job.IsCompleted, job.IsRefunded)
	}
	return nil, errors.New("unknown method")
}

func (s *EscrowTestSuite) SetupSuite() {
	var err error
	s.ctx = context.Background()
	s.abi, err = ParseABI(EscrowABI)
	require.Nil(s.T(), err)

	s.caller = &fakeCaller{
		abi: s.abi,
		jobs: map[int64]*EscrowJob{
			1: {
				Client:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
				Freelancer:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
				Amount:      new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18)),
				IsApproved:  true,
				IsCompleted: true,
			},
			2: {
				Client:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
				Amount:     big.NewInt(5),
				IsRefunded: true,
			},
		},
	}
	s.escrow = NewEscrow(s.caller, common.HexToAddress("0x3333333333333333333333333333333333333333"), s.abi)
}

func (s *EscrowTestSuite) TestJobCount() {
	count, err := s.escrow.JobCount(s.ctx)
	require.Nil(s.T(), err)
	require.Equal(s.T(), int64(2), count.Int64())
}

func (s *EscrowTestSuite) TestGetCompletedJob() {
	job, err := s.escrow.GetJob(s.ctx, big.NewInt(1))
	require.Nil(s.T(), err)
	require.Equal(s.T(), int64(1), job.Id.Int64())
	require.True(s.T(), job.HasFreelancer())
	require.Equal(s.T(), "0x2222222222222222222222222222222222222222", job.Freelancer.Hex())
	require.True(s.T(), job.IsCompleted)
	require.False(s.T(), job.IsRefunded)
	require.Equal(s.T(), 3.0, WeiToEther(job.Amount))
}

func (s *EscrowTestSuite) TestGetRefundedJob() {
	job, err := s.escrow.GetJob(s.ctx, big.NewInt(2))
	require.Nil(s.T(), err)
	require.False(s.T(), job.HasFreelancer())
	require.True(s.T(), job.IsRefunded)
}

func (s *EscrowTestSuite) TestGetContractABI() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(s.T(), "getabi", r.URL.Query().Get("action"))
		require.Equal(s.T(), "key", r.URL.Query().Get("apikey"))

		status, message, result := "1", "OK", EscrowABI
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&RawABIResponse{Status: &status, Message: &message, Result: &result})
	}))
	defer server.Close()

	contractABI, err := GetContractABI(server.URL, "0x3333333333333333333333333333333333333333", "key")
	require.Nil(s.T(), err)
	require.Contains(s.T(), contractABI.Methods, "jobs")
	require.Contains(s.T(), contractABI.Methods, "jobCount")
}

func (s *EscrowTestSuite) TestGetContractABIFailure() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, message, result := "0", "NOTOK", "Invalid API Key"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&RawABIResponse{Status: &status, Message: &message, Result: &result})
	}))
	defer server.Close()

	_, err := GetContractABI(server.URL, "0x3333333333333333333333333333333333333333", "key")
	require.Error(s.T(), err)
}
