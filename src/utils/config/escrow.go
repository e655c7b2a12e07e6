package config

import (
	"time"

	"github.com/spf13/viper"
)

// Escrow contract holding the funds of every job
type Escrow struct {
	// Are settlement actions confirmed on chain before being mirrored
	Enabled bool

	// JSON-RPC endpoint of the chain
	RpcUrl string

	// Address of the escrow contract
	ContractAddress string

	// Block explorer API used to download the contract's ABI. Embedded ABI is used when empty.
	ExplorerApiUrl string
	ApiKey         string

	// Max time of a single contract read
	CallTimeout time.Duration

	// Retrying failed contract reads
	MaxElapsedTime time.Duration
	MaxInterval    time.Duration
}

func setEscrowDefaults() {
	viper.SetDefault("Escrow.Enabled", "false")
	viper.SetDefault("Escrow.RpcUrl", "http://127.0.0.1:8545")
	viper.SetDefault("Escrow.ContractAddress", "0x0000000000000000000000000000000000000000")
	viper.SetDefault("Escrow.ExplorerApiUrl", "")
	viper.SetDefault("Escrow.ApiKey", "")
	viper.SetDefault("Escrow.CallTimeout", "10s")
	viper.SetDefault("Escrow.MaxElapsedTime", "30s")
	viper.SetDefault("Escrow.MaxInterval", "5s")
}
