package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// Every client receives every event
	GatewayScopeAll = "all"

	// Clients receive events of the jobs they subscribed to
	GatewayScopeJob = "job"
)

// Real-time messaging gateway
type Gateway struct {
	// Delivery scope, "job" or "all"
	Scope string

	// Size of the hub's input queue. Events are dropped when it's full
	QueueSize int

	// Per client queue of outgoing events. Events are dropped when it's full
	ClientQueueSize int

	// Max time of writing one event to a client
	WriteTimeout time.Duration

	// Max inbound frames per second per connection
	MaxMessagesPerSecond float64

	// Burst of inbound frames per connection
	MaxMessagesBurst int

	// Max size of a single inbound frame in bytes
	MaxFrameSize int64

	// Origin patterns accepted during websocket handshake
	OriginPatterns []string

	// Broadcast messages persisted through the REST API
	BroadcastPersisted bool
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.Scope", GatewayScopeJob)
	viper.SetDefault("Gateway.QueueSize", "1000")
	viper.SetDefault("Gateway.ClientQueueSize", "64")
	viper.SetDefault("Gateway.WriteTimeout", "10s")
	viper.SetDefault("Gateway.MaxMessagesPerSecond", "10")
	viper.SetDefault("Gateway.MaxMessagesBurst", "20")
	viper.SetDefault("Gateway.MaxFrameSize", "65536")
	viper.SetDefault("Gateway.OriginPatterns", []string{"*"})
	viper.SetDefault("Gateway.BroadcastPersisted", "false")
}
