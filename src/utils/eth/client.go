package eth

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

type (
	RawABIResponse struct {
		Status  *string `json:"status"`
		Message *string `json:"message"`
		Result  *string `json:"result"`
	}
)

func GetEthClient(log *logrus.Entry, rpcUrl string) (client *ethclient.Client, err error) {
	client, err = ethclient.Dial(rpcUrl)
	if err != nil {
		log.WithError(err).Error("Cannot get ETH client")
		return
	}

	return
}

// Downloads contract's ABI from an etherscan-compatible explorer API
func GetContractRawABI(apiUrl, address, apiKey string) (rawABIResponse *RawABIResponse, err error) {
	client := resty.New()
	rawABIResponse = &RawABIResponse{}
	resp, err := client.R().
		SetQueryParams(map[string]string{
			"module":  "contract",
			"action":  "getabi",
			"address": address,
			"apikey":  apiKey,
		}).
		SetResult(rawABIResponse).
		Get(apiUrl)

	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("get contract raw abi was not successful: %s", resp)
	}

	if rawABIResponse.Status == nil || *rawABIResponse.Status != "1" || rawABIResponse.Result == nil {
		return nil, fmt.Errorf("get contract raw abi failed: %s", resp)
	}

	return rawABIResponse, nil
}

func GetContractABI(apiUrl, contractAddress, apiKey string) (*abi.ABI, error) {
	rawABIResponse, err := GetContractRawABI(apiUrl, contractAddress, apiKey)
	if err != nil {
		return nil, err
	}

	return ParseABI(*rawABIResponse.Result)
}

func ParseABI(raw string) (*abi.ABI, error) {
	contractABI, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &contractABI, nil
}

func WeiToEther(wei *big.Int) float64 {
	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether)).Float64()
	return ether
}
